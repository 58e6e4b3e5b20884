package task

import (
	"time"

	"github.com/ganot/taskdeck/internal/dataservice"
)

// Status is a task's workflow state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
)

// Priority ranks tasks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Platform is the social network a task targets.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
)

// Task is a scheduled unit of marketing work.
type Task struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	Platform       Platform   `json:"platform,omitempty"`
	AssigneeID     string     `json:"assignee_id,omitempty"`
	ClientID       string     `json:"client_id,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FromRow converts a tasks row.
func FromRow(row dataservice.Row) Task {
	t := Task{
		ID:             row.ID(),
		OrganizationID: row.String("organization_id"),
		Title:          row.String("title"),
		Description:    row.String("description"),
		Status:         Status(row.String("status")),
		Priority:       Priority(row.String("priority")),
		Platform:       Platform(row.String("platform")),
		AssigneeID:     row.String("assignee_id"),
		ClientID:       row.String("client_id"),
		CreatedBy:      row.String("created_by"),
		CreatedAt:      row.Time("created_at"),
		UpdatedAt:      row.Time("updated_at"),
	}
	if due := row.Time("due_date"); !due.IsZero() {
		t.DueDate = &due
	}
	return t
}

// Open reports whether the task still needs work.
func (t Task) Open() bool {
	return t.Status != StatusCompleted
}

// Overdue reports whether an open task's due date is before now.
func (t Task) Overdue(now time.Time) bool {
	return t.Open() && t.DueDate != nil && t.DueDate.Before(now)
}
