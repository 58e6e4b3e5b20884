package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/dataservice"
)

// Service holds the session user's profile.
type Service struct {
	*collection.Collection[Profile]
	rows   dataservice.Rows
	logger *slog.Logger
}

// NewService creates a profile service. opts.Name defaults to "profile".
func NewService(rows dataservice.Rows, opts collection.Options) *Service {
	if opts.Name == "" {
		opts.Name = "profile"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{rows: rows, logger: logger}
	s.Collection = collection.New(s.fetch, opts)
	return s
}

func (s *Service) fetch(ctx context.Context, sessionID string) ([]Profile, error) {
	rows, err := s.rows.Select(ctx, dataservice.TableProfiles, dataservice.Filter{
		Eq:    map[string]any{"id": sessionID},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("selecting profile: %w", err)
	}
	out := make([]Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out, nil
}

// Profile returns the cached profile of the session user.
func (s *Service) Profile() (Profile, bool) {
	items := s.Items()
	if len(items) == 0 {
		return Profile{}, false
	}
	return items[0], true
}

// Update edits the session user's profile and refetches it.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Profile, error) {
	sessionID := s.Session()
	if sessionID == "" {
		return nil, ErrNoSession
	}
	if err := check(req); err != nil {
		return nil, err
	}

	patch := dataservice.Row{}
	setIf := func(col string, v *string) {
		if v != nil {
			patch[col] = *v
		}
	}
	setIf("first_name", req.FirstName)
	setIf("last_name", req.LastName)
	setIf("avatar_url", req.AvatarURL)
	setIf("bio", req.Bio)
	if req.Skills != nil {
		patch["skills"] = req.Skills
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	row, err := s.rows.Update(ctx, dataservice.TableProfiles, sessionID, patch)
	if err != nil {
		if errors.Is(err, dataservice.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	p := FromRow(row)
	_ = s.Refetch(ctx)
	return &p, nil
}

// EnsureProfile returns the profile for req.UserID, creating it and its
// organization when missing. Organizations are matched by name.
func (s *Service) EnsureProfile(ctx context.Context, req EnsureRequest) (*Profile, error) {
	if err := check(req); err != nil {
		return nil, err
	}

	existing, err := Lookup(ctx, s.rows, req.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	orgID, err := s.ensureOrganization(ctx, req.Organization)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = RoleTeamMember
	}
	row, err := s.rows.Insert(ctx, dataservice.TableProfiles, dataservice.Row{
		"id":              req.UserID,
		"organization_id": orgID,
		"email":           req.Email,
		"first_name":      req.FirstName,
		"last_name":       req.LastName,
		"role":            string(role),
	})
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	s.logger.Info("profile created", "user_id", req.UserID, "organization_id", orgID)
	p := FromRow(row)
	return &p, nil
}

func (s *Service) ensureOrganization(ctx context.Context, name string) (string, error) {
	rows, err := s.rows.Select(ctx, dataservice.TableOrganizations, dataservice.Filter{
		Eq:    map[string]any{"name": name},
		Limit: 1,
	})
	if err != nil {
		return "", fmt.Errorf("selecting organization: %w", err)
	}
	if len(rows) > 0 {
		return rows[0].ID(), nil
	}
	row, err := s.rows.Insert(ctx, dataservice.TableOrganizations, dataservice.Row{"name": name})
	if err != nil {
		return "", fmt.Errorf("creating organization: %w", err)
	}
	s.logger.Info("organization created", "organization_id", row.ID(), "name", name)
	return row.ID(), nil
}

// Lookup loads the profile for userID directly from the data service.
func Lookup(ctx context.Context, rows dataservice.Rows, userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrNoSession
	}
	found, err := rows.Select(ctx, dataservice.TableProfiles, dataservice.Filter{
		Eq:    map[string]any{"id": userID},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("selecting profile: %w", err)
	}
	if len(found) == 0 {
		return nil, ErrProfileNotFound
	}
	p := FromRow(found[0])
	return &p, nil
}
