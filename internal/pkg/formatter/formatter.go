package formatter

import (
	"fmt"

	"github.com/futig/jd-assessment/internal/entity"
)

const baseTitle = "Interview Assessment Results"

type Formatter interface {
	Format(report *entity.Report) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ReportFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format: %s", entity.ErrInvalidParameter, format)
	}
}

// section is one score bucket of the report, in display order.
type section struct {
	title     string
	questions []entity.ScoredQuestion
}

func sections(r *entity.Results) []section {
	return []section{
		{"Excellent", r.Excellent},
		{"Good", r.Good},
		{"Needs Improvement", r.NeedsImprovement},
	}
}

func summaryLine(r *entity.Results) string {
	return fmt.Sprintf("Overall score: %.0f%% (%d of %d questions answered)", r.OverallScore, r.Answered, r.Total)
}

func scoreLabel(q entity.ScoredQuestion) string {
	return fmt.Sprintf("%.0f%%", q.Score)
}
