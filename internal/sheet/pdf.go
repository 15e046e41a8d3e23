package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"passportsheet/internal/domain"
)

// PrintDPI is the resolution a sheet is laid out at on the PDF page.
const PrintDPI = 300

// PDFFilename is the download name of the printable export.
func PDFFilename() string {
	return strings.TrimSuffix(Filename, ".png") + ".pdf"
}

// RenderPDF wraps the sheet PNG in a single-page PDF sized to the sheet at
// PrintDPI so it prints at a predictable physical size.
func RenderPDF(s *Sheet) ([]byte, error) {
	if s == nil || len(s.PNG) == 0 {
		return nil, fmt.Errorf("%w: no sheet to export", domain.ErrRender)
	}
	wd := float64(s.Layout.Width) * 72 / PrintDPI
	ht := float64(s.Layout.Height) * 72 / PrintDPI

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("sheet", opts, bytes.NewReader(s.PNG))
	pdf.ImageOptions("sheet", 0, 0, wd, ht, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: write pdf: %v", domain.ErrRender, err)
	}
	return buf.Bytes(), nil
}
