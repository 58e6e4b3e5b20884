package client

import (
	"time"

	"github.com/ganot/taskdeck/internal/dataservice"
)

// Status is a client's relationship state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusProspect Status = "prospect"
)

// Client is a customer the team runs campaigns for.
type Client struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Company        string    `json:"company,omitempty"`
	Industry       string    `json:"industry,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FromRow converts a clients row.
func FromRow(row dataservice.Row) Client {
	return Client{
		ID:             row.ID(),
		OrganizationID: row.String("organization_id"),
		Name:           row.String("name"),
		Email:          row.String("email"),
		Company:        row.String("company"),
		Industry:       row.String("industry"),
		Status:         Status(row.String("status")),
		CreatedAt:      row.Time("created_at"),
		UpdatedAt:      row.Time("updated_at"),
	}
}
