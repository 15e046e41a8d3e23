package sheet

import (
	"bytes"
	"errors"
	"testing"

	"passportsheet/internal/domain"
)

func TestRenderPDF(t *testing.T) {
	s, err := ComposeBytes(encodePNG(t, sampleTile()), 4)
	if err != nil {
		t.Fatalf("ComposeBytes error: %v", err)
	}
	out, err := RenderPDF(s)
	if err != nil {
		t.Fatalf("RenderPDF error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not look like a pdf: %q", out[:8])
	}
	if PDFFilename() != "passport-photo-sheet.pdf" {
		t.Fatalf("PDFFilename() = %q", PDFFilename())
	}
}

func TestRenderPDFWithoutSheet(t *testing.T) {
	if _, err := RenderPDF(nil); !errors.Is(err, domain.ErrRender) {
		t.Fatalf("RenderPDF(nil) error = %v, want render error", err)
	}
}
