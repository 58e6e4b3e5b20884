package profile

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// UpdateRequest holds the editable profile fields. Nil fields are left as is.
type UpdateRequest struct {
	FirstName *string  `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string  `json:"last_name,omitempty" validate:"omitempty,max=100"`
	AvatarURL *string  `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio       *string  `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Skills    []string `json:"skills,omitempty" validate:"omitempty,max=30,dive,min=1,max=60"`
}

// EnsureRequest describes a user to provision.
type EnsureRequest struct {
	UserID       string `validate:"required,max=128"`
	Email        string `validate:"required,email"`
	FirstName    string `validate:"max=100"`
	LastName     string `validate:"max=100"`
	Role         Role   `validate:"omitempty,oneof=team_lead team_member client"`
	Organization string `validate:"required,max=200"`
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
