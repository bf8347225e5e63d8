package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/futig/jd-assessment/internal/config"
	"github.com/futig/jd-assessment/internal/entity"
	playground "github.com/go-playground/validator/v10"
)

// Validator checks request payloads against struct tags and the session
// limits from configuration.
type Validator struct {
	cfg      config.SessionConfig
	validate *playground.Validate
}

func New(cfg config.SessionConfig) *Validator {
	return &Validator{
		cfg:      cfg,
		validate: playground.New(playground.WithRequiredStructEnabled()),
	}
}

// validateStruct maps tag failures onto the domain validation errors.
func (v *Validator) validateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", entity.ErrInvalidFormat, err)
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s", entity.ErrMissingField, field)
	case "datetime":
		return fmt.Errorf("%w: %s must be YYYY-MM-DD", entity.ErrInvalidFormat, field)
	default:
		return fmt.Errorf("%w: %s failed %s=%s", entity.ErrInvalidParameter, field, fe.Tag(), fe.Param())
	}
}
