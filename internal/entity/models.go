package entity

import "fmt"

// Step is the position of a session in the assessment workflow.
type Step int

const (
	StepInput Step = iota
	StepGenerate
	StepAnswer
	StepResults
)

func (s Step) String() string {
	switch s {
	case StepInput:
		return "input"
	case StepGenerate:
		return "generate"
	case StepAnswer:
		return "answer"
	case StepResults:
		return "results"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Question is immutable once received from the generator.
type Question struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	ReferenceAnswer string `json:"reference_answer"`
}

// StoredQuestion is the cached projection of a Question.
type StoredQuestion struct {
	Text            string `json:"text"`
	ReferenceAnswer string `json:"reference_answer"`
}

// JDAnalysis is the verdict of the job description analyzer.
type JDAnalysis struct {
	IsValidJD  bool    `json:"is_valid_jd"`
	Confidence float64 `json:"confidence"`
	Overview   string  `json:"overview"`
	Error      *string `json:"error,omitempty"`
}

// Accepted reports whether the analysis lets the workflow advance.
func (a *JDAnalysis) Accepted(threshold float64) bool {
	return a.IsValidJD && a.Confidence >= threshold
}

type Evaluation struct {
	Score                  float64 `json:"score"`
	Feedback               string  `json:"feedback"`
	ImprovementSuggestions string  `json:"improvement_suggestions"`
	// Fallback marks a neutral substitute produced when the evaluator failed.
	Fallback bool `json:"fallback"`
}

// AnswerSource tells which generation strategy produced an answer.
type AnswerSource string

const (
	AnswerSourceStream AnswerSource = "stream"
	AnswerSourceSync   AnswerSource = "sync"
	AnswerSourceStatic AnswerSource = "static"
)

type GeneratedAnswer struct {
	Text   string       `json:"text"`
	Source AnswerSource `json:"source"`
}

// ScoredQuestion pairs a question with its recorded score.
type ScoredQuestion struct {
	Question
	Score    float64 `json:"score"`
	Answered bool    `json:"answered"`
}

type Results struct {
	OverallScore     float64          `json:"overall_score"`
	Answered         int              `json:"answered"`
	Total            int              `json:"total"`
	Excellent        []ScoredQuestion `json:"excellent"`
	Good             []ScoredQuestion `json:"good"`
	NeedsImprovement []ScoredQuestion `json:"needs_improvement"`
	Unanswered       []Question       `json:"unanswered"`
}

// Score buckets of the results dashboard.
const (
	ExcellentThreshold = 80.0
	GoodThreshold      = 60.0
)

// Rating returns the dashboard bucket label for a score.
func Rating(score float64) string {
	switch {
	case score >= ExcellentThreshold:
		return "Excellent"
	case score >= GoodThreshold:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// LogEntry is one record returned by the log viewer, passed through untouched.
type LogEntry map[string]any

// LogType selects one of the collaborator's log streams.
type LogType string

const (
	LogTypeAPI LogType = "api"
	LogTypeLLM LogType = "llm"
	LogTypeApp LogType = "app"
)

func (t LogType) Validate() error {
	switch t {
	case LogTypeAPI, LogTypeLLM, LogTypeApp:
		return nil
	default:
		return fmt.Errorf("%w: log type must be one of api, llm, app, got %q", ErrInvalidParameter, string(t))
	}
}

// ReportFormat is an export format of the results report.
type ReportFormat string

const (
	FormatMarkdown ReportFormat = "md"
	FormatDOCX     ReportFormat = "docx"
	FormatPDF      ReportFormat = "pdf"
)

func (f ReportFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

// Report is the exportable summary of a finished assessment.
type Report struct {
	SessionID  string
	JDOverview string
	Results    Results
}

// ReportFile is a rendered report ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
