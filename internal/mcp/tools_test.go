package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTools_ScheduleAndList(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := WithSessionID(context.Background(), "lead")

	_, created, err := ScheduleTaskHandler(m)(ctx, nil, ScheduleTaskInput{
		Title:      "Launch teaser",
		Priority:   "high",
		Platform:   "tiktok",
		ClientID:   "c1",
		AssigneeID: "member",
		DueDate:    "2026-03-10",
	})
	require.NoError(t, err)
	require.Equal(t, "todo", created.Status)
	require.Equal(t, "2026-03-10T00:00:00Z", created.DueDate)

	_, list, err := ListTasksHandler(m)(ctx, nil, ListTasksInput{Status: "todo"})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 1)
	require.Equal(t, created.ID, list.Tasks[0].ID)

	_, moved, err := UpdateTaskStatusHandler(m)(ctx, nil, UpdateTaskStatusInput{ID: created.ID, Status: "completed"})
	require.NoError(t, err)
	require.Equal(t, "completed", moved.Status)

	_, all, err := ListTasksHandler(m)(ctx, nil, ListTasksInput{ClientID: "c1"})
	require.NoError(t, err)
	require.Len(t, all.Tasks, 2)
}

func TestTools_ClientsTeamAnalytics(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := WithSessionID(context.Background(), "lead")

	_, clients, err := ListClientsHandler(m)(ctx, nil, ListClientsInput{})
	require.NoError(t, err)
	require.Len(t, clients.Clients, 1)
	require.Equal(t, "active", clients.Clients[0].Status)

	_, roster, err := ListTeamHandler(m)(ctx, nil, ListTeamInput{})
	require.NoError(t, err)
	require.Len(t, roster.Members, 2)
	for _, member := range roster.Members {
		if member.ID == "member" {
			require.Equal(t, 1, member.TasksInProgress)
			require.Equal(t, 25, member.Workload)
		}
	}

	_, summary, err := GetAnalyticsHandler(m)(ctx, nil, GetAnalyticsInput{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.TotalTasks)
	require.Equal(t, 1, summary.ByStatus["in-progress"])
	require.Equal(t, 2, summary.TeamSize)
	require.Len(t, summary.ClientTasks, 1)
	require.NotEmpty(t, summary.GeneratedAt)
}

func TestTools_Errors(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := WithSessionID(context.Background(), "lead")

	_, _, err := ScheduleTaskHandler(m)(ctx, nil, ScheduleTaskInput{Title: "x", DueDate: "next tuesday"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "INVALID_INPUT", apiErr.Code)

	_, _, err = UpdateTaskStatusHandler(m)(ctx, nil, UpdateTaskStatusInput{ID: "missing", Status: "review"})
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "NOT_FOUND", apiErr.Code)

	_, _, err = ScheduleTaskHandler(m)(context.Background(), nil, ScheduleTaskInput{Title: "x"})
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "NO_SESSION", apiErr.Code)
}

func TestNewServer(t *testing.T) {
	m, _ := newTestManager(t)
	require.NotNil(t, NewServer(Config{Dashboards: m, TransportMode: "stdio", DefaultSession: "lead"}))
}
