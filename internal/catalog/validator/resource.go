package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cospace/pkg/logger"
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

type ResourceValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewResourceValidator(log *logger.Logger) *ResourceValidator {
	v := validator.New()

	log.Info("Resource validator initialized successfully")

	return &ResourceValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ResourceValidator) Validate(resource *model.Resource) error {
	if err := v.validate.Struct(resource); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateWindows(resource.Windows)
}

// ValidateWindows checks a window set on its own, for calendar updates.
func (v *ResourceValidator) ValidateWindows(windows []model.OperatingWindow) error {
	if len(windows) == 0 {
		return ValidationErrors{
			ValidationError{
				Field:   "Windows",
				Message: "at least one operating window is required",
			},
		}
	}
	for i, w := range windows {
		if err := v.validate.Struct(w); err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				translated := v.translateValidationErrors(validationErrs)
				for j := range translated {
					translated[j].Field = fmt.Sprintf("Windows[%d].%s", i, translated[j].Field)
				}
				return translated
			}
			return err
		}
	}
	return v.validateWindows(windows)
}

func (v *ResourceValidator) validateWindows(windows []model.OperatingWindow) error {
	var errs ValidationErrors

	for i, w := range windows {
		start := model.ClockMinutes(w.Start)
		end := model.ClockMinutes(w.End)
		if start < 0 || end < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Windows[%d]", i),
				Message: "start and end must be valid HH:MM clock times",
			})
			continue
		}
		if end <= start {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Windows[%d]", i),
				Message: "end must be after start",
			})
		}
		if len(w.Days) > 0 && w.Date != "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Windows[%d]", i),
				Message: "days and date are mutually exclusive",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	if err := v.checkWindowOverlaps(windows); err != nil {
		return err
	}

	return nil
}

// checkWindowOverlaps rejects window sets where two windows can be open
// at the same clock time on the same day.
func (v *ResourceValidator) checkWindowOverlaps(windows []model.OperatingWindow) error {
	type span struct {
		index      int
		start, end int
	}

	byDay := make(map[string][]span)
	for i, w := range windows {
		start := model.ClockMinutes(w.Start)
		end := model.ClockMinutes(w.End)

		keys := v.dayKeys(w)
		for _, key := range keys {
			byDay[key] = append(byDay[key], span{index: i, start: start, end: end})
		}
	}

	for day, spans := range byDay {
		sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
		for i := 1; i < len(spans); i++ {
			if spans[i].start < spans[i-1].end {
				return ValidationErrors{
					ValidationError{
						Field:   fmt.Sprintf("Windows[%d]", spans[i].index),
						Message: fmt.Sprintf("overlaps window %d on %s", spans[i-1].index, day),
					},
				}
			}
		}
	}

	return nil
}

// dayKeys expands a window into the day buckets it can apply to. A
// one-off date buckets under its weekday, since a recurring window on
// that weekday would collide with it.
func (v *ResourceValidator) dayKeys(w model.OperatingWindow) []string {
	allDays := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

	if w.Date != "" {
		if t, err := time.Parse("2006-01-02", w.Date); err == nil {
			return []string{strings.ToLower(t.Weekday().String())}
		}
		return allDays
	}
	if len(w.Days) == 0 {
		return allDays
	}
	return w.Days
}

func (v *ResourceValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "datetime":
			message = fmt.Sprintf("%s must match format %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
