//go:build !integration

package i18n

import (
	"testing"
)

func TestTranslator(t *testing.T) {
	// Arrange
	translator, err := newTranslatorFromBytes([]byte("\"Payment failed\": Malipo hayakufaulu\n\"Plan not found\": Mpango haukupatikana\n"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	cases := map[string]string{
		"Plan not found":                     "Mpango haukupatikana",
		"Payment failed: Insufficient funds": "Malipo hayakufaulu: Insufficient funds",
		"nonexistent message":                "nonexistent message",
		"Unknown head: detail":               "Unknown head: detail",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			// Act + Assert
			if got := translator.T(in); got != want {
				t.Errorf("wanted %q, got %q", want, got)
			}
		})
	}
}

func TestNewTranslator_EmbeddedLocales(t *testing.T) {
	for _, locale := range []string{"en", "sw"} {
		t.Run(locale, func(t *testing.T) {
			tr, err := NewTranslator(LocalesFS, locale)
			if err != nil {
				t.Fatalf("NewTranslator(%s): %v", locale, err)
			}
			if tr.Locale() != locale {
				t.Fatalf("locale = %q", tr.Locale())
			}
			if got := tr.T("Plan not found"); got == "" {
				t.Fatal("empty translation")
			}
		})
	}

	en, _ := NewTranslator(LocalesFS, "")
	if got := en.T("STK Push sent! Check your phone"); got != "STK Push sent! Check your phone" {
		t.Fatalf("english must be identity, got %q", got)
	}
}

func TestNewTranslator_UnknownLocale(t *testing.T) {
	if _, err := NewTranslator(LocalesFS, "xx"); err == nil {
		t.Fatal("expected error for missing locale file")
	}
}

func TestTranslator_NilPassesThrough(t *testing.T) {
	var tr *Translator
	if got := tr.T("Plan not found"); got != "Plan not found" {
		t.Fatalf("got %q", got)
	}
}
