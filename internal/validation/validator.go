// Package validation checks inbound intents before they reach the
// orchestrator: struct tags for the common rules plus a few canvas-specific
// tags.
package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/errors"
)

// SelfValidator is implemented by intents with rules that tags cannot
// express.
type SelfValidator interface {
	Validate() error
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validator wraps a configured validator.Validate.
type Validator struct {
	validate    *validator.Validate
	mu          sync.RWMutex
	customRules map[string]validator.Func
}

var (
	hexColorPattern = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)
	nodeIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.:-]*$`)
)

// NewValidator creates a validator with the canvas rules registered.
func NewValidator() *Validator {
	v := &Validator{
		validate:    validator.New(),
		customRules: make(map[string]validator.Func),
	}
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustom("side", sideValidator)
	v.RegisterCustom("hexcolor_or_empty", hexColorValidator)
	v.RegisterCustom("finite", finiteValidator)
	v.RegisterCustom("nodeid", nodeIDValidator)
	return v
}

// RegisterCustom registers a custom validation tag.
func (v *Validator) RegisterCustom(tag string, fn validator.Func) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.customRules[tag] = fn
	return v.validate.RegisterValidation(tag, fn)
}

// Validate runs the intent's own rules, then its struct tags. Failures are
// returned as a VALIDATION_FAILED error listing every field.
func (v *Validator) Validate(i interface{}) error {
	if sv, ok := i.(SelfValidator); ok {
		if err := sv.Validate(); err != nil {
			return err
		}
	}

	return v.ValidateStruct(i)
}

// ValidateStruct checks struct tags only. Types whose own Validate method
// delegates here use it to avoid recursion.
func (v *Validator) ValidateStruct(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// ValidateVar validates a single value against a tag expression.
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func (v *Validator) formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation(errors.CodeInvalidInput.String(), "invalid input").
			WithCause(err).
			Build()
	}

	fields := make([]FieldError, 0, len(validationErrors))
	parts := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		fe := FieldError{
			Field:   e.Field(),
			Code:    strings.ToUpper(e.Tag()),
			Message: message(e.Tag(), e.Param()),
		}
		fields = append(fields, fe)
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return errors.Validation(errors.CodeValidationFailed.String(), "validation failed").
		WithDetails(strings.Join(parts, "; ")).
		WithCause(&Errors{Fields: fields}).
		Build()
}

// Errors carries the individual field failures.
type Errors struct {
	Fields []FieldError
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Code)
	}
	return strings.Join(parts, ", ")
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "side":
		return "Must be one of top, right, bottom, left"
	case "hexcolor_or_empty":
		return "Must be a hex color (e.g., #FF5733)"
	case "finite":
		return "Must be a finite number"
	case "nodeid":
		return "Must be a valid node ID"
	case "gt":
		return fmt.Sprintf("Must be greater than %s", param)
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", param)
	case "min":
		return fmt.Sprintf("Must have at least %s items", param)
	case "max":
		return fmt.Sprintf("Must be at most %s", param)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	case "dive":
		return "Invalid item in collection"
	default:
		return fmt.Sprintf("Failed %s validation", tag)
	}
}

func sideValidator(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return geometry.Side(s).Valid()
}

func hexColorValidator(fl validator.FieldLevel) bool {
	c := fl.Field().String()
	return c == "" || hexColorPattern.MatchString(c)
}

func finiteValidator(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return true
	}
}

func nodeIDValidator(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" {
		return true
	}
	return nodeIDPattern.MatchString(id) && len(id) <= 100
}
