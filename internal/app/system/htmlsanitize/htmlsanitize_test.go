package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/samaquete/jangubi/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	if got := htmlsanitize.Sanitize("Messe de Noël à 22h"); got != "Messe de Noël à 22h" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestSanitize_SafeHTML(t *testing.T) {
	input := "<p><strong>Annonce</strong> et <em>détails</em></p>"
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected safe HTML preserved, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	input := "<p>Bonjour</p><script>alert('xss')</script>"
	if got := htmlsanitize.Sanitize(input); got != "<p>Bonjour</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesOnclick(t *testing.T) {
	input := `<button onclick="alert('xss')">Cliquer</button>`
	if got := htmlsanitize.Sanitize(input); strings.Contains(got, "onclick") {
		t.Errorf("expected onclick stripped, got %q", got)
	}
}

func TestStripAll(t *testing.T) {
	input := "<p><strong>Kermesse</strong> paroissiale</p>"
	if got := htmlsanitize.StripAll(input); got != "Kermesse paroissiale" {
		t.Errorf("expected plain text, got %q", got)
	}
}
