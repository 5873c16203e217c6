package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError is the first failing rule of a form, carrying a
// human-readable message ready for display.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		label := fld.Tag.Get("label")
		if label == "" {
			return fld.Name
		}
		return label
	})

	v.RegisterValidation("cep", isCEP)
	v.RegisterValidation("brphone", isBRPhone)
	v.RegisterValidation("posint", isPositiveInt)
	v.RegisterValidation("hhmm", isClockTime)

	v.RegisterStructValidation(validateElderForm, ElderForm{})
	v.RegisterStructValidation(validatePrescriptionForm, PrescriptionForm{})

	return v
}

// Validate runs the form's rules in declared order and returns the first
// failing message, or nil when the form is valid. Nothing is submitted before
// this passes, so an invalid birth date never reaches the network.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
	}

	return err
}

func fieldMessage(fe validator.FieldError) string {
	label := fe.Field()

	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return fmt.Sprintf("%s must be a valid e-mail address", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "eqfield":
		return "passwords do not match"
	case "numeric":
		return fmt.Sprintf("%s must be a number", label)
	case "len":
		return fmt.Sprintf("%s must be %s digits", label, fe.Param())
	case "uuid4":
		return fmt.Sprintf("%s is not a valid access code", label)
	case "cep":
		return fmt.Sprintf("%s must look like 00000-000", label)
	case "brphone":
		return fmt.Sprintf("%s is not a valid phone number", label)
	case "posint":
		return fmt.Sprintf("%s must be a positive number", label)
	case "gt":
		return fmt.Sprintf("%s is required", label)
	case "hhmm":
		return fmt.Sprintf("%s must be a time like 08:30", label)
	case "oneof":
		return fmt.Sprintf("%s has an invalid value", label)
	case "birthdate":
		return "birth date is not a valid calendar date"
	case "weekday":
		return "select at least one weekday"
	}

	return fmt.Sprintf("%s is invalid", label)
}

var (
	cepPattern   = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

func isCEP(fl validator.FieldLevel) bool {
	return cepPattern.MatchString(fl.Field().String())
}

// isBRPhone accepts Brazilian phone numbers with or without formatting:
// two-digit area code plus an eight or nine digit number.
func isBRPhone(fl validator.FieldLevel) bool {
	digits := nonDigits.ReplaceAllString(fl.Field().String(), "")
	return len(digits) == 10 || len(digits) == 11
}

func isPositiveInt(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	return err == nil && n > 0
}

func isClockTime(fl validator.FieldLevel) bool {
	return clockPattern.MatchString(fl.Field().String())
}

// validateElderForm rejects dates that do not exist on the calendar, such as
// day 31 in month 02: time.Date normalizes those, so a round trip through it
// changes the components.
func validateElderForm(sl validator.StructLevel) {
	f := sl.Current().Interface().(ElderForm)

	day, errD := strconv.Atoi(strings.TrimSpace(f.BirthDay))
	month, errM := strconv.Atoi(strings.TrimSpace(f.BirthMonth))
	year, errY := strconv.Atoi(strings.TrimSpace(f.BirthYear))
	if errD != nil || errM != nil || errY != nil {
		// the per-field numeric rules already cover this
		return
	}

	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		sl.ReportError(f.BirthDay, "birth date", "BirthDay", "birthdate", "")
	}
}

func validatePrescriptionForm(sl validator.StructLevel) {
	f := sl.Current().Interface().(PrescriptionForm)

	for _, selected := range f.Weekdays {
		if selected {
			return
		}
	}
	sl.ReportError(f.Weekdays, "weekdays", "Weekdays", "weekday", "")
}
