package flows

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownFlow is returned by Run for a flow name that is not registered
var ErrUnknownFlow = errors.New("unknown flow")

// FieldError is one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError indicates the caller's input was rejected. The model is
// never called when this is returned.
type ValidationError struct {
	Flow   Name
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("invalid %s input: %s", e.Flow, strings.Join(parts, "; "))
}

// GenerationError indicates the model call failed or its output could not
// satisfy the flow's output schema. It is terminal for the request.
type GenerationError struct {
	Flow    Name
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s generation failed: %s: %v", e.Flow, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s generation failed: %s", e.Flow, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// newValidationError converts validator output into a ValidationError
func newValidationError(flow Name, err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Flow: flow, Fields: []FieldError{{Field: "(input)", Message: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: describe(fe),
		})
	}
	return &ValidationError{Flow: flow, Fields: fields}
}

// fieldPath drops the root struct name from a validator namespace
// ("InterviewQuestionInput.history[0].question" -> "history[0].question").
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datauri":
		return "must be a data URI (data:<mime>;base64,<payload>)"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
