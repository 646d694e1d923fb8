// Package validator wraps go-playground/validator so modules depend on one
// shared instance instead of the library directly.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates request DTOs by struct tag.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator. Custom rules register through
// RegisterValidation.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates a struct against its validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag expression.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a custom tag.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
