package validation

import "testing"

func TestRequiredAndEmpty(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	if v.Empty() {
		t.Fatalf("expected violation for blank name")
	}
	if v["name"] != "required" {
		t.Fatalf("unexpected code %q", v["name"])
	}
}

func TestAddKeepsFirstViolation(t *testing.T) {
	v := Violations{}
	Required("email", "", v)
	Email("email", "not-an-email", v)
	if v["email"] != "required" {
		t.Fatalf("expected first violation to win, got %q", v["email"])
	}
}

func TestEmail(t *testing.T) {
	cases := map[string]bool{
		"ayse@example.com":        true,
		"":                        true,
		"no-at-sign":              false,
		"Ayse <ayse@example.com>": false,
		"ali..veli@example.com":   false,
		"ali.veli@example.com":    true,
	}
	for in, ok := range cases {
		v := Violations{}
		Email("email", in, v)
		if v.Empty() != ok {
			t.Errorf("Email(%q) valid=%v, want %v", in, v.Empty(), ok)
		}
	}
}

func TestOneOf(t *testing.T) {
	v := Violations{}
	OneOf("status", "Open", []string{"Open", "Closed"}, v)
	OneOf("priority", "Urgent", []string{"High", "Medium", "Low"}, v)
	if _, ok := v["status"]; ok {
		t.Fatalf("Open should be accepted")
	}
	if v["priority"] != "invalid_choice" {
		t.Fatalf("expected invalid_choice, got %q", v["priority"])
	}
}

func TestNumericBounds(t *testing.T) {
	v := Violations{}
	NonNegativeFloat("rate", -1, v)
	NonNegativeInt("duration", 0, v)
	PositiveFloat("quantity", 0, v)
	RangeFloat("vat", 1.5, 0, 1, v)
	if v["rate"] != "must_not_be_negative" {
		t.Errorf("rate: %q", v["rate"])
	}
	if _, ok := v["duration"]; ok {
		t.Errorf("zero duration should be accepted")
	}
	if v["quantity"] != "must_be_positive" {
		t.Errorf("quantity: %q", v["quantity"])
	}
	if v["vat"] != "out_of_range" {
		t.Errorf("vat: %q", v["vat"])
	}
}

func TestLength(t *testing.T) {
	v := Violations{}
	MinLen("password", "abc", 8, v)
	MaxLen("subject", "çok uzun konu", 5, v)
	if v["password"] != "too_short" || v["subject"] != "too_long" {
		t.Fatalf("unexpected violations: %v", v)
	}
}
