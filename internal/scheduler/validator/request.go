package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cospace/pkg/config"
	"cospace/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// RequestValidator checks booking submissions before they reach the
// scheduling decision. Shape errors and business-rule violations are
// reported separately so handlers can map them to distinct statuses.
type RequestValidator struct {
	validate *validator.Validate
	cfg      *config.Config
}

func NewRequestValidator(cfg *config.Config) *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
		cfg:      cfg,
	}
}

// ValidateShape checks structural integrity: required fields, id
// formats, end after start.
func (v *RequestValidator) ValidateShape(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return ValidationErrors{
			ValidationError{Field: "StartTime", Message: "start_time and end_time are required"},
		}
	}

	return nil
}

// ValidateRules checks the configurable business rules: duration bounds
// and the recurrence expansion cap.
func (v *RequestValidator) ValidateRules(req *model.BookingRequest) error {
	var errs ValidationErrors

	duration := req.EndTime.Sub(req.StartTime)
	if duration < v.cfg.MinBookingDuration {
		errs = append(errs, ValidationError{
			Field:   "EndTime",
			Message: fmt.Sprintf("booking duration %s is below the minimum of %s", duration, v.cfg.MinBookingDuration),
		})
	}
	if duration > v.cfg.MaxBookingDuration {
		errs = append(errs, ValidationError{
			Field:   "EndTime",
			Message: fmt.Sprintf("booking duration %s exceeds the maximum of %s", duration, v.cfg.MaxBookingDuration),
		})
	}

	if req.StartTime.Before(time.Now()) {
		errs = append(errs, ValidationError{
			Field:   "StartTime",
			Message: "start_time cannot be in the past",
		})
	}

	if req.Recurrence != nil && req.Recurrence.Count > v.cfg.RecurrenceMaxOccurrences {
		errs = append(errs, ValidationError{
			Field:   "Recurrence.Count",
			Message: fmt.Sprintf("recurrence count %d exceeds the maximum of %d", req.Recurrence.Count, v.cfg.RecurrenceMaxOccurrences),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *RequestValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
