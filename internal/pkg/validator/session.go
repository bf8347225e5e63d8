package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/jd-assessment/internal/entity"
)

// ValidateSubmitJD checks the job description is present and long enough
// to be worth analyzing.
func (v *Validator) ValidateSubmitJD(req *entity.SubmitJDRequest) error {
	req.JDText = strings.TrimSpace(req.JDText)
	if err := v.validateStruct(req); err != nil {
		return err
	}

	if n := utf8.RuneCountInString(req.JDText); n < v.cfg.MinJDLength {
		return fmt.Errorf("%w: job description must be at least %d characters, got %d",
			entity.ErrValidationRejected, v.cfg.MinJDLength, n)
	}

	return nil
}

// QuestionCount validates the requested batch size; zero selects the default.
func (v *Validator) QuestionCount(count int) (int, error) {
	if count == 0 {
		return v.cfg.DefaultQuestionCount, nil
	}
	if count < v.cfg.MinQuestionCount || count > v.cfg.MaxQuestionCount {
		return 0, fmt.Errorf("%w: question_count must be between %d and %d, got %d",
			entity.ErrInvalidParameter, v.cfg.MinQuestionCount, v.cfg.MaxQuestionCount, count)
	}
	return count, nil
}

// ValidateSubmitAnswer validates answer submission
func (v *Validator) ValidateSubmitAnswer(req *entity.SubmitAnswerRequest) error {
	if strings.TrimSpace(req.UserAnswer) == "" {
		return fmt.Errorf("%w: user_answer", entity.ErrMissingField)
	}
	return v.validateStruct(req)
}

// ValidateLogsQuery validates the log viewer parameters
func (v *Validator) ValidateLogsQuery(q *entity.LogsQuery) error {
	if err := v.validateStruct(q); err != nil {
		return err
	}
	return q.Type.Validate()
}
