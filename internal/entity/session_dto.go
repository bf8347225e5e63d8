package entity

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SubmitJDRequest struct {
	JDText string `json:"jd_text" validate:"required"`
}

type GenerateQuestionsInput struct {
	QuestionCount int `json:"question_count"`
}

type SubmitAnswerRequest struct {
	UserAnswer string `json:"user_answer" validate:"required"`
}

type LogsQuery struct {
	Type     LogType `validate:"required,oneof=api llm app"`
	Date     string  `validate:"omitempty,datetime=2006-01-02"`
	Username string
	Password string
}

// SessionView is the rendering snapshot of a session.
type SessionView struct {
	ID         string             `json:"session_id"`
	Step       Step               `json:"step"`
	JDText     string             `json:"jd_text,omitempty"`
	JDOverview string             `json:"jd_overview,omitempty"`
	Questions  []Question         `json:"questions"`
	Scores     map[string]float64 `json:"scores"`
}

type SubmitJDResponse struct {
	Analysis *JDAnalysis  `json:"analysis"`
	Session  *SessionView `json:"session"`
}

type SubmitAnswerResponse struct {
	Evaluation *Evaluation  `json:"evaluation"`
	Session    *SessionView `json:"session"`
}
