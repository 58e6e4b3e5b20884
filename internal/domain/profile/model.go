package profile

import (
	"strings"
	"time"

	"github.com/ganot/taskdeck/internal/dataservice"
)

// Role is a user's role within an organization.
type Role string

const (
	RoleTeamLead   Role = "team_lead"
	RoleTeamMember Role = "team_member"
	RoleClient     Role = "client"
)

// Profile is a user record. ID is the user id and doubles as the session
// identifier.
type Profile struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	Role           Role      `json:"role"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Skills         []string  `json:"skills,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FromRow converts a profiles row.
func FromRow(row dataservice.Row) Profile {
	return Profile{
		ID:             row.ID(),
		OrganizationID: row.String("organization_id"),
		Email:          row.String("email"),
		FirstName:      row.String("first_name"),
		LastName:       row.String("last_name"),
		Role:           Role(row.String("role")),
		AvatarURL:      row.String("avatar_url"),
		Bio:            row.String("bio"),
		Skills:         row.Strings("skills"),
		CreatedAt:      row.Time("created_at"),
		UpdatedAt:      row.Time("updated_at"),
	}
}

// FullName joins first and last name, falling back to the email address.
func (p Profile) FullName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// Scope is the row filter for records the profile may see and change: its
// organization's, or only its own when it belongs to none.
func (p Profile) Scope() map[string]any {
	if p.OrganizationID == "" {
		return map[string]any{"organization_id": nil, "created_by": p.ID}
	}
	return map[string]any{"organization_id": p.OrganizationID}
}
