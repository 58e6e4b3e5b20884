package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/taskdeck/internal/dashboard"
	"github.com/ganot/taskdeck/internal/domain/client"
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/ganot/taskdeck/internal/domain/task"
)

// Dashboards hands out per-session dashboards. *dashboard.Manager implements
// it.
type Dashboards interface {
	Acquire(ctx context.Context, sessionID string) (*dashboard.Dashboard, func(), error)
}

type methodFunc func(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error)

// Handler dispatches JSON-RPC methods to the session's dashboard.
type Handler struct {
	dashboards Dashboards
	methods    map[string]methodFunc
}

// NewHandler creates a new handler.
func NewHandler(dashboards Dashboards) *Handler {
	h := &Handler{dashboards: dashboards}
	h.methods = map[string]methodFunc{
		"tasks.list":          listTasks,
		"tasks.create":        createTask,
		"tasks.update":        updateTask,
		"tasks.update_status": updateTaskStatus,
		"tasks.delete":        deleteTask,
		"clients.list":        listClients,
		"clients.create":      createClient,
		"clients.update":      updateClient,
		"clients.delete":      deleteClient,
		"team.list":           listTeam,
		"profile.get":         getProfile,
		"profile.update":      updateProfile,
		"analytics.get":       getAnalytics,
		"dashboard.state":     getState,
		"dashboard.refetch":   refetchAll,
	}
	return h
}

// HasMethod reports whether method is served.
func (h *Handler) HasMethod(method string) bool {
	_, ok := h.methods[method]
	return ok
}

// Handle runs method against the dashboard of sessionID.
func (h *Handler) Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error) {
	fn, ok := h.methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}

	d, release, err := h.dashboards.Acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquiring dashboard: %w", err)
	}
	defer release()

	result, err := fn(ctx, d, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func requireID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidParams)
	}
	return nil
}

func listTasks(_ context.Context, d *dashboard.Dashboard, _ json.RawMessage) (any, error) {
	return d.Tasks.Tasks(), nil
}

func createTask(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error) {
	var req task.CreateRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	return d.Tasks.Create(ctx, req)
}

func updateTask(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error) {
	var req TaskUpdateParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := requireID(req.ID); err != nil {
		return nil, err
	}
	return d.Tasks.Update(ctx, req.ID, req.UpdateRequest)
}

func updateTaskStatus(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error) {
	var req TaskStatusParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := requireID(req.ID); err != nil {
		return nil, err
	}
	return d.Tasks.UpdateStatus(ctx, req.ID, req.Status)
}

func deleteTask(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error) {
	var req IDParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := requireID(req.ID); err != nil {
		return nil, err
	}
	if err := d.Tasks.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	return StatusResponse{Status: "deleted"}, nil
}

func listClients(_ context.Context, d *dashboard.Dashboard, _ json.RawMessage) (any, error) {
	return d.Clients.Clients(), nil
}

func createClient(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error) {
	var req client.CreateRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	return d.Clients.Create(ctx, req)
}

func updateClient(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error) {
	var req ClientUpdateParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := requireID(req.ID); err != nil {
		return nil, err
	}
	return d.Clients.Update(ctx, req.ID, req.UpdateRequest)
}

func deleteClient(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error) {
	var req IDParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := requireID(req.ID); err != nil {
		return nil, err
	}
	if err := d.Clients.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	return StatusResponse{Status: "deleted"}, nil
}

func listTeam(_ context.Context, d *dashboard.Dashboard, _ json.RawMessage) (any, error) {
	return d.Team.Members(), nil
}

func getProfile(_ context.Context, d *dashboard.Dashboard, _ json.RawMessage) (any, error) {
	if d.Session() == "" {
		return nil, profile.ErrNoSession
	}
	p, ok := d.Profile.Profile()
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

func updateProfile(ctx context.Context, d *dashboard.Dashboard, params json.RawMessage) (any, error) {
	var req profile.UpdateRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	return d.Profile.Update(ctx, req)
}

func getAnalytics(_ context.Context, d *dashboard.Dashboard, _ json.RawMessage) (any, error) {
	return d.Analytics(), nil
}

func getState(_ context.Context, d *dashboard.Dashboard, _ json.RawMessage) (any, error) {
	return d.State(), nil
}

func refetchAll(ctx context.Context, d *dashboard.Dashboard, _ json.RawMessage) (any, error) {
	if err := d.Refetch(ctx); err != nil {
		return nil, err
	}
	return d.State(), nil
}
