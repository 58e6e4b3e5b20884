package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `taskdeck is a marketing team dashboard: tasks scheduled per client and platform, the client roster, the team and workload, and derived analytics.

Every tool runs as the authenticated user. Data is scoped to that user's organization.

Default workflow:
1) Orient: call get_analytics for totals, overdue work and team workload.
2) Browse: list_tasks, list_clients and list_team return the current collections.
3) Plan: schedule_task creates a task. Pass client_id and assignee_id from the lists above.
4) Progress: update_task_status moves a task through todo, in-progress, review and completed.

Docs:
- taskdeck://docs/index
- taskdeck://docs/workflows/scheduling
- taskdeck://docs/analytics
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "taskdeck://docs/index",
		Name:        "docs_index",
		Title:       "taskdeck docs index",
		Description: "Entry point for agent-facing docs.",
		Content: `# taskdeck: Agent Docs Index

## Quick start

1. ` + "`get_analytics`" + ` to see where the team stands.
2. ` + "`list_tasks`" + ` / ` + "`list_clients`" + ` / ` + "`list_team`" + ` to find ids.
3. ` + "`schedule_task`" + ` to add work, ` + "`update_task_status`" + ` to move it.

## Docs

- ` + "`taskdeck://docs/workflows/scheduling`" + ` covers task fields and statuses.
- ` + "`taskdeck://docs/analytics`" + ` defines each figure in the summary.
`,
	},
	{
		URI:         "taskdeck://docs/workflows/scheduling",
		Name:        "docs_scheduling",
		Title:       "Scheduling tasks",
		Description: "Task fields, enum values and the status workflow.",
		Content: `# Scheduling tasks

## Fields

- title (required, up to 200 characters)
- priority: low, medium (default), high
- platform: instagram, facebook, tiktok, linkedin, twitter
- client_id: a client from ` + "`list_clients`" + `
- assignee_id: a member from ` + "`list_team`" + `
- due_date: RFC3339 or YYYY-MM-DD

## Statuses

todo -> in-progress -> review -> completed

Any status may be set directly. Completed tasks count toward velocity for seven days.

## Errors

- NOT_FOUND: the id does not exist in your organization.
- CONSTRAINT_VIOLATION: a referenced client or assignee does not exist.
- INVALID_INPUT: an enum value or field length is wrong.
`,
	},
	{
		URI:         "taskdeck://docs/analytics",
		Name:        "docs_analytics",
		Title:       "Analytics figures",
		Description: "How each analytics figure is computed.",
		Content: `# Analytics figures

- completion_rate: completed tasks over all tasks, as a percentage.
- overdue: open tasks whose due date has passed.
- due_this_week: open tasks due within the next seven days.
- velocity: tasks completed in the last seven days.
- efficiency: completed over completed plus overdue, as a percentage.
- avg_workload: mean member workload. Workload is 15 per in-progress task plus 10 per open high priority task, capped at 100.
- client_tasks: task counts per client, busiest first.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
