package repository

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncatePreviewShortBodyUntouched(t *testing.T) {
	body := "see you at 10"
	if got := truncatePreview(body); got != body {
		t.Errorf("truncatePreview(%q) = %q, want unchanged", body, got)
	}
}

func TestTruncatePreviewCapsLongBody(t *testing.T) {
	body := strings.Repeat("a", previewLength+40)
	got := truncatePreview(body)
	if len(got) != previewLength {
		t.Errorf("preview length = %d, want %d", len(got), previewLength)
	}
}

func TestTruncatePreviewKeepsValidUTF8(t *testing.T) {
	// Place a multi-byte rune across the cap so a byte-index cut would
	// split it.
	body := strings.Repeat("a", previewLength-1) + "é" + strings.Repeat("b", 40)
	got := truncatePreview(body)
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	if len(got) > previewLength {
		t.Errorf("preview length = %d, want at most %d", len(got), previewLength)
	}
	if got != strings.Repeat("a", previewLength-1) {
		t.Errorf("expected the partial rune dropped, got %q", got)
	}
}

func TestTruncatePreviewMultiByteOnly(t *testing.T) {
	body := strings.Repeat("é", previewLength)
	got := truncatePreview(body)
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	if len(got) > previewLength {
		t.Errorf("preview length = %d, want at most %d", len(got), previewLength)
	}
}
