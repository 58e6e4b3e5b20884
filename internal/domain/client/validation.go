package client

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateRequest defines client creation inputs.
type CreateRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Company  string `json:"company,omitempty" validate:"max=200"`
	Industry string `json:"industry,omitempty" validate:"max=100"`
	Status   Status `json:"status,omitempty" validate:"omitempty,oneof=active inactive prospect"`
}

// UpdateRequest holds client fields to change. Nil fields are left as is.
type UpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Company  *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Industry *string `json:"industry,omitempty" validate:"omitempty,max=100"`
	Status   *Status `json:"status,omitempty" validate:"omitempty,oneof=active inactive prospect"`
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
