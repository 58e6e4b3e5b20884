package task

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateRequest defines task creation inputs.
type CreateRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=4000"`
	Status      Status     `json:"status,omitempty" validate:"omitempty,oneof=todo in-progress review completed"`
	Priority    Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Platform    Platform   `json:"platform,omitempty" validate:"omitempty,oneof=instagram facebook tiktok linkedin twitter"`
	AssigneeID  string     `json:"assignee_id,omitempty" validate:"max=128"`
	ClientID    string     `json:"client_id,omitempty" validate:"max=128"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateRequest holds task fields to change. Nil fields are left as is; an
// empty AssigneeID, ClientID or Platform clears the value.
type UpdateRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	Status      *Status    `json:"status,omitempty" validate:"omitempty,oneof=todo in-progress review completed"`
	Priority    *Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Platform    *Platform  `json:"platform,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty" validate:"omitempty,max=128"`
	ClientID    *string    `json:"client_id,omitempty" validate:"omitempty,max=128"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// ValidPlatform reports whether p is a known platform.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformInstagram, PlatformFacebook, PlatformTikTok, PlatformLinkedIn, PlatformTwitter:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}
