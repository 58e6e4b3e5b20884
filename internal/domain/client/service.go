package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/domain/profile"
)

// Service holds the session organization's clients ordered by name.
type Service struct {
	*collection.Collection[Client]
	rows   dataservice.Rows
	logger *slog.Logger
}

// NewService creates a client service. opts.Name defaults to "clients".
func NewService(rows dataservice.Rows, opts collection.Options) *Service {
	if opts.Name == "" {
		opts.Name = "clients"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{rows: rows, logger: logger}
	s.Collection = collection.New(s.fetch, opts)
	return s
}

func (s *Service) fetch(ctx context.Context, sessionID string) ([]Client, error) {
	p, err := profile.Lookup(ctx, s.rows, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows.Select(ctx, dataservice.TableClients, dataservice.Filter{
		Eq:      p.Scope(),
		OrderBy: "name",
	})
	if err != nil {
		return nil, fmt.Errorf("selecting clients: %w", err)
	}
	out := make([]Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out, nil
}

// Clients returns the cached clients.
func (s *Service) Clients() []Client {
	return s.Items()
}

// Create adds a client to the session user's organization, then refetches.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Client, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	p, err := profile.Lookup(ctx, s.rows, s.Session())
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}
	created, err := s.rows.Insert(ctx, dataservice.TableClients, dataservice.Row{
		"organization_id": orgValue(p.OrganizationID),
		"name":            req.Name,
		"email":           req.Email,
		"company":         req.Company,
		"industry":        req.Industry,
		"status":          string(status),
		"created_by":      p.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	c := FromRow(created)
	s.logger.Info("client created", "client_id", c.ID)
	_ = s.Refetch(ctx)
	return &c, nil
}

// Update applies the non-nil fields of req, then refetches.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Client, error) {
	if s.Session() == "" {
		return nil, profile.ErrNoSession
	}
	if err := check(req); err != nil {
		return nil, err
	}

	patch := dataservice.Row{}
	for col, v := range map[string]*string{
		"name":     req.Name,
		"email":    req.Email,
		"company":  req.Company,
		"industry": req.Industry,
	} {
		if v != nil {
			patch[col] = *v
		}
	}
	if req.Status != nil {
		patch["status"] = string(*req.Status)
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if err := s.visible(ctx, id); err != nil {
		return nil, err
	}

	updated, err := s.rows.Update(ctx, dataservice.TableClients, id, patch)
	if err != nil {
		if errors.Is(err, dataservice.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("updating client: %w", err)
	}
	c := FromRow(updated)
	_ = s.Refetch(ctx)
	return &c, nil
}

// Delete removes a client, then refetches. Tasks referencing it keep running
// with no client.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.Session() == "" {
		return profile.ErrNoSession
	}
	if err := s.visible(ctx, id); err != nil {
		return err
	}
	if err := s.rows.Delete(ctx, dataservice.TableClients, id); err != nil {
		if errors.Is(err, dataservice.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("deleting client: %w", err)
	}
	s.logger.Info("client deleted", "client_id", id)
	_ = s.Refetch(ctx)
	return nil
}

// visible returns ErrClientNotFound unless the client is in the session
// user's scope.
func (s *Service) visible(ctx context.Context, id string) error {
	p, err := profile.Lookup(ctx, s.rows, s.Session())
	if err != nil {
		return err
	}
	scope := p.Scope()
	scope["id"] = id
	found, err := s.rows.Select(ctx, dataservice.TableClients, dataservice.Filter{Eq: scope, Limit: 1})
	if err != nil {
		return fmt.Errorf("looking up client: %w", err)
	}
	if len(found) == 0 {
		return ErrClientNotFound
	}
	return nil
}

func orgValue(id string) any {
	if id == "" {
		return nil
	}
	return id
}
