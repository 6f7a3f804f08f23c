package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phoneRegex    = regexp.MustCompile(`^\+?[0-9][0-9 \-]{7,17}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Validator collects request-level validation errors keyed by field.
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator
func (v *Validator) AddError(field, message string) {
	v.Errors[field] = message
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Required checks if a string is not empty
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "must not be empty")
}

// Phone validates phone number format
func (v *Validator) Phone(field, phone string) {
	v.Check(phoneRegex.MatchString(phone), field, "must be a valid phone number")
}

// Currency validates an ISO 4217 currency code
func (v *Validator) Currency(field, code string) {
	v.Check(currencyRegex.MatchString(code), field, "must be a 3-letter ISO 4217 code")
}

// Positive checks that an amount in minor units is greater than zero
func (v *Validator) Positive(field string, amount int64) {
	v.Check(amount > 0, field, "must be greater than zero")
}

// OneOf checks membership in an allowed set
func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}
