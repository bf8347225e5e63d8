package formatter

import (
	"bytes"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(report *entity.Report) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	r := &report.Results

	heading(doc, "Heading1", baseTitle)
	if report.JDOverview != "" {
		doc.AddParagraph().AddRun().AddText(report.JDOverview)
	}

	summary := doc.AddParagraph().AddRun()
	summary.Properties().SetBold(true)
	summary.AddText(summaryLine(r))

	for _, s := range sections(r) {
		if len(s.questions) == 0 {
			continue
		}
		heading(doc, "Heading2", s.title)
		for _, q := range s.questions {
			doc.AddParagraph().AddRun().AddText("- " + q.Text + " (" + scoreLabel(q) + ")")
		}
	}

	if len(r.Unanswered) > 0 {
		heading(doc, "Heading2", "Not Answered")
		for _, q := range r.Unanswered {
			doc.AddParagraph().AddRun().AddText("- " + q.Text)
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func heading(doc *document.Document, style, text string) {
	p := doc.AddParagraph()
	p.SetStyle(style)
	p.AddRun().AddText(text)
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
