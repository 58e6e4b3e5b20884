package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/domain/profile"
)

// Service holds the session organization's tasks ordered by due date and
// writes task changes through to the data service.
type Service struct {
	*collection.Collection[Task]
	rows   dataservice.Rows
	logger *slog.Logger
}

// NewService creates a task service. opts.Name defaults to "tasks".
func NewService(rows dataservice.Rows, opts collection.Options) *Service {
	if opts.Name == "" {
		opts.Name = "tasks"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{rows: rows, logger: logger}
	s.Collection = collection.New(s.fetch, opts)
	return s
}

func (s *Service) fetch(ctx context.Context, sessionID string) ([]Task, error) {
	p, err := profile.Lookup(ctx, s.rows, sessionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows.Select(ctx, dataservice.TableTasks, dataservice.Filter{
		Eq:      p.Scope(),
		OrderBy: "due_date",
	})
	if err != nil {
		return nil, fmt.Errorf("selecting tasks: %w", err)
	}
	out := make([]Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out, nil
}

// Tasks returns the cached tasks.
func (s *Service) Tasks() []Task {
	return s.Items()
}

// Create schedules a new task in the session user's organization, then
// refetches.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	p, err := profile.Lookup(ctx, s.rows, s.Session())
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	row := dataservice.Row{
		"organization_id": nullable(p.OrganizationID),
		"title":           req.Title,
		"description":     req.Description,
		"status":          string(status),
		"priority":        string(priority),
		"platform":        nullable(string(req.Platform)),
		"assignee_id":     nullable(req.AssigneeID),
		"client_id":       nullable(req.ClientID),
		"created_by":      p.ID,
	}
	if req.DueDate != nil {
		row["due_date"] = *req.DueDate
	}

	created, err := s.rows.Insert(ctx, dataservice.TableTasks, row)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	t := FromRow(created)
	s.logger.Info("task created", "task_id", t.ID, "session_id", p.ID)
	_ = s.Refetch(ctx)
	return &t, nil
}

// Update applies the non-nil fields of req to the task, then refetches.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Task, error) {
	if s.Session() == "" {
		return nil, profile.ErrNoSession
	}
	if err := check(req); err != nil {
		return nil, err
	}
	if req.Platform != nil && *req.Platform != "" && !ValidPlatform(*req.Platform) {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, *req.Platform)
	}

	patch := dataservice.Row{}
	if req.Title != nil {
		patch["title"] = *req.Title
	}
	if req.Description != nil {
		patch["description"] = *req.Description
	}
	if req.Status != nil {
		patch["status"] = string(*req.Status)
	}
	if req.Priority != nil {
		patch["priority"] = string(*req.Priority)
	}
	if req.Platform != nil {
		patch["platform"] = nullable(string(*req.Platform))
	}
	if req.AssigneeID != nil {
		patch["assignee_id"] = nullable(*req.AssigneeID)
	}
	if req.ClientID != nil {
		patch["client_id"] = nullable(*req.ClientID)
	}
	if req.DueDate != nil {
		patch["due_date"] = *req.DueDate
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return s.apply(ctx, id, patch)
}

// UpdateStatus moves a task to status, then refetches.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Task, error) {
	if s.Session() == "" {
		return nil, profile.ErrNoSession
	}
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.apply(ctx, id, dataservice.Row{"status": string(status)})
}

func (s *Service) apply(ctx context.Context, id string, patch dataservice.Row) (*Task, error) {
	if err := s.visible(ctx, id); err != nil {
		return nil, err
	}
	updated, err := s.rows.Update(ctx, dataservice.TableTasks, id, patch)
	if err != nil {
		if errors.Is(err, dataservice.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}
	t := FromRow(updated)
	_ = s.Refetch(ctx)
	return &t, nil
}

// Delete removes a task, then refetches.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.Session() == "" {
		return profile.ErrNoSession
	}
	if err := s.visible(ctx, id); err != nil {
		return err
	}
	if err := s.rows.Delete(ctx, dataservice.TableTasks, id); err != nil {
		if errors.Is(err, dataservice.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("deleting task: %w", err)
	}
	s.logger.Info("task deleted", "task_id", id)
	_ = s.Refetch(ctx)
	return nil
}

// visible returns ErrTaskNotFound unless the task is in the session user's
// scope.
func (s *Service) visible(ctx context.Context, id string) error {
	p, err := profile.Lookup(ctx, s.rows, s.Session())
	if err != nil {
		return err
	}
	scope := p.Scope()
	scope["id"] = id
	found, err := s.rows.Select(ctx, dataservice.TableTasks, dataservice.Filter{Eq: scope, Limit: 1})
	if err != nil {
		return fmt.Errorf("looking up task: %w", err)
	}
	if len(found) == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
