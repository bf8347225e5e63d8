package entity

import "iter"

// Wire types of the assessment service.

type AnalyzeJDRequest struct {
	JDText string `json:"jd_text"`
}

type GenerateQuestionsRequest struct {
	JDText        string `json:"jd_text"`
	QuestionCount int    `json:"question_count"`
}

type GenerateQuestionsResponse struct {
	Questions []Question `json:"questions"`
}

type EvaluateAnswerRequest struct {
	QuestionID      string  `json:"question_id"`
	UserAnswer      string  `json:"user_answer"`
	ReferenceAnswer string  `json:"reference_answer"`
	QuestionText    *string `json:"question_text,omitempty"`
}

type GenerateAnswerRequest struct {
	QuestionText string `json:"question_text"`
	WordLimit    int    `json:"word_limit"`
}

type GenerateAnswerResponse struct {
	Answer string `json:"answer"`
}

type LogsResponse struct {
	Logs  []LogEntry `json:"logs"`
	Error string     `json:"error,omitempty"`
}

// TextStream is an open streamed answer. Chunks yields decoded text in
// arrival order; Close releases the transport and may be called at any time.
type TextStream interface {
	Chunks() iter.Seq2[string, error]
	Close() error
}
