package mcp

import (
	"github.com/ganot/taskdeck/internal/domain/client"
	"github.com/ganot/taskdeck/internal/domain/task"
)

// IDParams addresses one row.
type IDParams struct {
	ID string `json:"id"`
}

// TaskUpdateParams carries the task id and the fields to change.
type TaskUpdateParams struct {
	ID string `json:"id"`
	task.UpdateRequest
}

// TaskStatusParams moves a task to a new status.
type TaskStatusParams struct {
	ID     string      `json:"id"`
	Status task.Status `json:"status"`
}

// ClientUpdateParams carries the client id and the fields to change.
type ClientUpdateParams struct {
	ID string `json:"id"`
	client.UpdateRequest
}

// StatusResponse acknowledges writes that return no row.
type StatusResponse struct {
	Status string `json:"status"`
}
