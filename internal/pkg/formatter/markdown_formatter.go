package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/jd-assessment/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(report *entity.Report) ([]byte, error) {
	var buf bytes.Buffer
	r := &report.Results

	fmt.Fprintf(&buf, "# %s\n\n", baseTitle)
	if report.JDOverview != "" {
		fmt.Fprintf(&buf, "_%s_\n\n", report.JDOverview)
	}
	fmt.Fprintf(&buf, "**%s**\n", summaryLine(r))

	for _, s := range sections(r) {
		if len(s.questions) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n## %s\n\n", s.title)
		for _, q := range s.questions {
			fmt.Fprintf(&buf, "- %s (%s)\n", q.Text, scoreLabel(q))
		}
	}

	if len(r.Unanswered) > 0 {
		fmt.Fprintf(&buf, "\n## Not Answered\n\n")
		for _, q := range r.Unanswered {
			fmt.Fprintf(&buf, "- %s\n", q.Text)
		}
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
