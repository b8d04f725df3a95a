package validation

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is the error returned by Validate and Checker.Err.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		if e.Field == "" {
			msgs[i] = e.Message
			continue
		}
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// First returns the first field error, if any.
func (fe FieldErrors) First() (FieldError, bool) {
	if len(fe) == 0 {
		return FieldError{}, false
	}
	return fe[0], true
}

// Checker collects programmatic validation errors for rules that struct
// tags cannot express.
type Checker struct {
	errs FieldErrors
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Check records message for field when ok is false.
func (c *Checker) Check(ok bool, field, message string) *Checker {
	if !ok {
		c.errs = append(c.errs, FieldError{Field: field, Message: message})
	}
	return c
}

// Required records an error when value is blank.
func (c *Checker) Required(field, value string) *Checker {
	return c.Check(strings.TrimSpace(value) != "", field, "is required")
}

// Min records an error when value < minVal.
func (c *Checker) Min(field string, value, minVal int64) *Checker {
	return c.Check(value >= minVal, field, fmt.Sprintf("must be at least %d", minVal))
}

// OneOf records an error when a non-empty value is not in allowed.
func (c *Checker) OneOf(field, value string, allowed []string) *Checker {
	if value == "" {
		return c
	}
	for _, a := range allowed {
		if value == a {
			return c
		}
	}
	return c.Check(false, field, "must be one of: "+strings.Join(allowed, ", "))
}

// Merge appends the field errors of err when it came from Validate.
func (c *Checker) Merge(err error) *Checker {
	if err == nil {
		return c
	}
	if fe, ok := err.(FieldErrors); ok {
		c.errs = append(c.errs, fe...)
		return c
	}
	c.errs = append(c.errs, FieldError{Message: err.Error()})
	return c
}

// HasErrors reports whether any check failed.
func (c *Checker) HasErrors() bool {
	return len(c.errs) > 0
}

// Err returns the collected errors, or nil.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	out := make(FieldErrors, len(c.errs))
	copy(out, c.errs)
	return out
}
