package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	tests := map[string]string{
		"":                                       "",
		"postgres://u:p@h:5432/d":                "postgres://u:p@h:5432/d",
		"'host=h  user=u dbname=d'":              "host=h user=u dbname=d sslmode=disable",
		"host=h user=u dbname=d sslmode=require": "host=h user=u dbname=d sslmode=require",
	}
	for in, want := range tests {
		if got := NormalizeDSN(in); got != want {
			t.Fatalf("NormalizeDSN(%q) = %q want %q", in, got, want)
		}
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=law password=secret dbname=firm sslmode=disable")
	want := "postgres://law:secret@db:5432/firm?sslmode=disable"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := ToURLDSN("host=db"); got != "host=db" {
		t.Fatalf("incomplete DSN should be unchanged, got %q", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := SQLiteDSN("lawfirm.db"); got != "lawfirm.db?_foreign_keys=on" {
		t.Fatalf("got %q", got)
	}
	if got := SQLiteDSN("file:x?mode=memory"); got != "file:x?mode=memory&_foreign_keys=on" {
		t.Fatalf("got %q", got)
	}
	if got := SQLiteDSN("x.db?_foreign_keys=off"); got != "x.db?_foreign_keys=off" {
		t.Fatalf("explicit setting must be kept, got %q", got)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=h password=secret user=u"); got != "host=h password=*** user=u" {
		t.Fatalf("got %q", got)
	}
	if got := MaskDSN("postgres://u:secret@h/d"); got != "postgres://u:***@h/d" {
		t.Fatalf("got %q", got)
	}
}
