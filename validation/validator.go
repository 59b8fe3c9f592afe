package validation

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/estatly/mediasign/errors"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates failed checks for hand-written validation of
// values that do not come from a tagged struct, such as a single fetch
// reference or a client base URL.
//
//	if err := validation.New().Required("url", ref).Validate(); err != nil {
//	    return err
//	}
type Validator struct {
	failed []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) fail(field, message string) *Validator {
	v.failed = append(v.failed, FieldError{Field: field, Message: message})
	return v
}

// Errors returns the failed checks in the order they were made.
func (v *Validator) Errors() []FieldError {
	return v.failed
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.failed) > 0
}

// Validate folds the failed checks into one VALIDATION_ERROR, or returns nil.
func (v *Validator) Validate() *errors.AppError {
	if len(v.failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(v.failed))
	for _, f := range v.failed {
		parts = append(parts, f.Field+" "+f.Message)
	}
	appErr := errors.Validation(strings.Join(parts, "; "))
	appErr.Details = map[string]any{"fields": v.failed}
	return appErr
}

// Required fails on an empty or whitespace-only value.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.fail(field, "is required")
	}
	return v
}

// HTTPURL fails on a non-empty value that is not an absolute http(s) URL.
func (v *Validator) HTTPURL(field, value string) *Validator {
	if value == "" {
		return v
	}
	if u, err := url.Parse(value); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return v.fail(field, "must be an http(s) URL")
	}
	return v
}

// Path fails on a non-empty value that does not start with "/".
func (v *Validator) Path(field, value string) *Validator {
	if value != "" && !strings.HasPrefix(value, "/") {
		return v.fail(field, "must start with /")
	}
	return v
}

// Positive fails when n is not greater than zero.
func (v *Validator) Positive(field string, n int) *Validator {
	if n <= 0 {
		return v.fail(field, fmt.Sprintf("must be positive, got %d", n))
	}
	return v
}

// OneOf fails when value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if !slices.Contains(allowed, value) {
		return v.fail(field, fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
	}
	return v
}
