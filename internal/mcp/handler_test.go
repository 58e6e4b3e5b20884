package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ganot/taskdeck/internal/analytics"
	"github.com/ganot/taskdeck/internal/dashboard"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/domain/client"
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/ganot/taskdeck/internal/domain/task"
	"github.com/ganot/taskdeck/internal/domain/team"
	"github.com/ganot/taskdeck/internal/realtime"
	"github.com/ganot/taskdeck/internal/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*dashboard.Manager, *sqlite.Store) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.NewStore(db)
	registry := realtime.NewRegistry(store, realtime.NewBus(), realtime.Options{GraceDelay: 20 * time.Millisecond},
		dataservice.TableTasks, dataservice.TableClients, dataservice.TableProfiles)
	t.Cleanup(registry.Close)

	ctx := context.Background()
	seed := []struct {
		table string
		row   dataservice.Row
	}{
		{dataservice.TableOrganizations, dataservice.Row{"id": "org-1", "name": "Studio"}},
		{dataservice.TableProfiles, dataservice.Row{"id": "lead", "organization_id": "org-1", "email": "lead@example.com", "first_name": "Ana", "role": "team_lead"}},
		{dataservice.TableProfiles, dataservice.Row{"id": "member", "organization_id": "org-1", "email": "member@example.com", "first_name": "Ben"}},
		{dataservice.TableClients, dataservice.Row{"id": "c1", "organization_id": "org-1", "name": "Acme"}},
		{dataservice.TableTasks, dataservice.Row{"id": "t1", "organization_id": "org-1", "title": "Reel", "status": "in-progress", "priority": "high", "assignee_id": "member", "client_id": "c1"}},
	}
	for _, s := range seed {
		_, err := store.Insert(ctx, s.table, s.row)
		require.NoError(t, err)
	}

	m := dashboard.NewManager(dashboard.Deps{Rows: store, Registry: registry})
	t.Cleanup(m.Close)
	return m, store
}

func TestHandler_TaskMethods(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewHandler(m)
	ctx := context.Background()

	result, err := h.Handle(ctx, "lead", "tasks.list", nil)
	require.NoError(t, err)
	require.Len(t, result.([]task.Task), 1)

	result, err = h.Handle(ctx, "lead", "tasks.create", mustJSON(t, task.CreateRequest{Title: "Carousel", ClientID: "c1"}))
	require.NoError(t, err)
	created := result.(*task.Task)
	require.Equal(t, task.StatusTodo, created.Status)
	require.Equal(t, "lead", created.CreatedBy)

	title := "Carousel v2"
	result, err = h.Handle(ctx, "lead", "tasks.update", mustJSON(t, TaskUpdateParams{ID: created.ID, UpdateRequest: task.UpdateRequest{Title: &title}}))
	require.NoError(t, err)
	require.Equal(t, title, result.(*task.Task).Title)

	result, err = h.Handle(ctx, "lead", "tasks.update_status", mustJSON(t, TaskStatusParams{ID: created.ID, Status: task.StatusReview}))
	require.NoError(t, err)
	require.Equal(t, task.StatusReview, result.(*task.Task).Status)

	result, err = h.Handle(ctx, "lead", "tasks.list", nil)
	require.NoError(t, err)
	require.Len(t, result.([]task.Task), 2)

	result, err = h.Handle(ctx, "lead", "tasks.delete", mustJSON(t, IDParams{ID: created.ID}))
	require.NoError(t, err)
	require.Equal(t, StatusResponse{Status: "deleted"}, result)
}

func TestHandler_ClientTeamProfileMethods(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewHandler(m)
	ctx := context.Background()

	result, err := h.Handle(ctx, "lead", "clients.create", mustJSON(t, client.CreateRequest{Name: "Bloom", Status: client.StatusProspect}))
	require.NoError(t, err)
	created := result.(*client.Client)

	status := client.StatusActive
	_, err = h.Handle(ctx, "lead", "clients.update", mustJSON(t, ClientUpdateParams{ID: created.ID, UpdateRequest: client.UpdateRequest{Status: &status}}))
	require.NoError(t, err)

	result, err = h.Handle(ctx, "lead", "clients.list", nil)
	require.NoError(t, err)
	clients := result.([]client.Client)
	require.Len(t, clients, 2)
	require.Equal(t, "Acme", clients[0].Name)

	_, err = h.Handle(ctx, "lead", "clients.delete", mustJSON(t, IDParams{ID: created.ID}))
	require.NoError(t, err)

	result, err = h.Handle(ctx, "lead", "team.list", nil)
	require.NoError(t, err)
	members := result.([]team.Member)
	require.Len(t, members, 2)

	result, err = h.Handle(ctx, "lead", "profile.get", nil)
	require.NoError(t, err)
	require.Equal(t, "Ana", result.(profile.Profile).FirstName)

	bio := "Runs the studio"
	result, err = h.Handle(ctx, "lead", "profile.update", mustJSON(t, profile.UpdateRequest{Bio: &bio}))
	require.NoError(t, err)
	require.Equal(t, bio, result.(*profile.Profile).Bio)

	result, err = h.Handle(ctx, "lead", "analytics.get", nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.(analytics.Summary).TotalTasks)

	result, err = h.Handle(ctx, "lead", "dashboard.refetch", nil)
	require.NoError(t, err)
	require.Equal(t, "lead", result.(dashboard.State).Session)
}

func TestHandler_ErrorMapping(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewHandler(m)
	ctx := context.Background()

	_, err := h.Handle(ctx, "lead", "tasks.explode", nil)
	require.ErrorIs(t, err, ErrMethodNotFound)

	_, err = h.Handle(ctx, "lead", "tasks.delete", json.RawMessage(`{"id":`))
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = h.Handle(ctx, "lead", "tasks.delete", mustJSON(t, IDParams{}))
	require.ErrorIs(t, err, ErrInvalidParams)

	tests := []struct {
		name    string
		session string
		method  string
		params  any
		code    string
	}{
		{"missing task", "lead", "tasks.update_status", TaskStatusParams{ID: "nope", Status: task.StatusCompleted}, "NOT_FOUND"},
		{"bad status", "lead", "tasks.update_status", TaskStatusParams{ID: "t1", Status: "done"}, "INVALID_INPUT"},
		{"missing title", "lead", "tasks.create", task.CreateRequest{}, "INVALID_INPUT"},
		{"unknown client", "lead", "tasks.create", task.CreateRequest{Title: "x", ClientID: "ghost"}, "CONSTRAINT_VIOLATION"},
		{"no session", "", "tasks.create", task.CreateRequest{Title: "x"}, "NO_SESSION"},
		{"no profile", "", "profile.get", nil, "NO_SESSION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var params json.RawMessage
			if tt.params != nil {
				params = mustJSON(t, tt.params)
			}
			_, err := h.Handle(ctx, tt.session, tt.method, params)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			require.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestHandler_HasMethod(t *testing.T) {
	h := NewHandler(nil)
	require.True(t, h.HasMethod("dashboard.state"))
	require.False(t, h.HasMethod("record.create"))
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("boom")))
	require.Equal(t, "UNAVAILABLE", MapError(dataservice.ErrUnavailable).Code)

	wrapped := MapError(errors.Join(errors.New("ctx"), &APIError{Code: "X"}))
	require.Equal(t, "X", wrapped.Code)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
