package formatter

import (
	"bytes"
	"os"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "DejaVuSans"

	// Relative paths where the TTF font may live.
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	pdfFontSourcePath  = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

// resolveFontPath tries to find the DejaVuSans font in
// runtime layout (next to the binary) or source layout.
func resolveFontPath() string {
	if _, err := os.Stat(pdfFontRuntimePath); err == nil {
		return pdfFontRuntimePath
	}
	if _, err := os.Stat(pdfFontSourcePath); err == nil {
		return pdfFontSourcePath
	}
	return ""
}

func (mf *PDFFormatter) Format(report *entity.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	fontName := "Arial"
	// Core fonts only cover cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if fontPath := resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
		tr = func(s string) string { return s }
	}

	r := &report.Results

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, tr(baseTitle))
	pdf.Ln(12)

	pdf.SetFont(fontName, "", 12)
	_, lineHeight := pdf.GetFontSize()
	if report.JDOverview != "" {
		pdf.MultiCell(0, lineHeight*1.5, tr(report.JDOverview), "", "", false)
		pdf.Ln(2)
	}

	pdf.SetFont(fontName, "B", 14)
	pdf.MultiCell(0, 8, tr(summaryLine(r)), "", "", false)

	for _, s := range sections(r) {
		if len(s.questions) == 0 {
			continue
		}
		pdf.Ln(4)
		pdf.SetFont(fontName, "B", 14)
		pdf.Cell(0, 8, tr(s.title))
		pdf.Ln(9)

		pdf.SetFont(fontName, "", 12)
		for _, q := range s.questions {
			pdf.MultiCell(0, lineHeight*1.5, tr("- "+q.Text+" ("+scoreLabel(q)+")"), "", "", false)
		}
	}

	if len(r.Unanswered) > 0 {
		pdf.Ln(4)
		pdf.SetFont(fontName, "B", 14)
		pdf.Cell(0, 8, tr("Not Answered"))
		pdf.Ln(9)

		pdf.SetFont(fontName, "", 12)
		for _, q := range r.Unanswered {
			pdf.MultiCell(0, lineHeight*1.5, tr("- "+q.Text), "", "", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (mf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
