package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,tr;q=0.8") != "tr" {
		t.Fatalf("expected tr from second tag")
	}
	if DetectLanguage("") != "tr" {
		t.Fatalf("expected default tr")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("tr", "required") != "Zorunlu alan" {
		t.Fatalf("expected Zorunlu alan")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to tr translation if exists
	if T("es", "required") != "Zorunlu alan" {
		t.Fatalf("expected tr fallback for es lang")
	}
}

func TestLangContext(t *testing.T) {
	if LangFrom(context.Background()) != DefaultLang {
		t.Fatalf("expected default lang")
	}
	ctx := WithLang(context.Background(), "en")
	if LangFrom(ctx) != "en" {
		t.Fatalf("expected en from context")
	}
}
