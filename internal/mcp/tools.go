package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/ganot/taskdeck/internal/analytics"
	"github.com/ganot/taskdeck/internal/dashboard"
	"github.com/ganot/taskdeck/internal/domain/client"
	"github.com/ganot/taskdeck/internal/domain/task"
	"github.com/ganot/taskdeck/internal/domain/team"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, dashboards Dashboards) {
	sdkmcp.AddTool(server, ListTasksTool(), ListTasksHandler(dashboards))
	sdkmcp.AddTool(server, ScheduleTaskTool(), ScheduleTaskHandler(dashboards))
	sdkmcp.AddTool(server, UpdateTaskStatusTool(), UpdateTaskStatusHandler(dashboards))
	sdkmcp.AddTool(server, ListClientsTool(), ListClientsHandler(dashboards))
	sdkmcp.AddTool(server, ListTeamTool(), ListTeamHandler(dashboards))
	sdkmcp.AddTool(server, GetAnalyticsTool(), GetAnalyticsHandler(dashboards))
}

// withDashboard runs fn against the dashboard of the calling session.
func withDashboard(ctx context.Context, dashboards Dashboards, fn func(d *dashboard.Dashboard) error) error {
	d, release, err := dashboards.Acquire(ctx, getSessionID(ctx))
	if err != nil {
		return fmt.Errorf("acquiring dashboard: %w", err)
	}
	defer release()
	return mapError(fn(d))
}

// TaskResult is the MCP view of a task.
type TaskResult struct {
	ID          string `json:"id" jsonschema:"task identifier"`
	Title       string `json:"title" jsonschema:"task title"`
	Description string `json:"description,omitempty" jsonschema:"task description"`
	Status      string `json:"status" jsonschema:"task status (todo, in-progress, review, completed)"`
	Priority    string `json:"priority" jsonschema:"task priority (low, medium, high)"`
	Platform    string `json:"platform,omitempty" jsonschema:"target platform"`
	AssigneeID  string `json:"assignee_id,omitempty" jsonschema:"assigned team member"`
	ClientID    string `json:"client_id,omitempty" jsonschema:"client the task is for"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"RFC3339 due date"`
	UpdatedAt   string `json:"updated_at" jsonschema:"RFC3339 timestamp of the last change"`
}

func taskResult(t task.Task) TaskResult {
	r := TaskResult{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Platform:    string(t.Platform),
		AssigneeID:  t.AssigneeID,
		ClientID:    t.ClientID,
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
	if t.DueDate != nil {
		r.DueDate = formatTime(*t.DueDate)
	}
	return r
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: due_date %q is not RFC3339 or YYYY-MM-DD", task.ErrInvalidInput, s)
}

// ListTasksInput filters the task list.
type ListTasksInput struct {
	Status     string `json:"status,omitempty" jsonschema:"only tasks with this status"`
	ClientID   string `json:"client_id,omitempty" jsonschema:"only tasks for this client"`
	AssigneeID string `json:"assignee_id,omitempty" jsonschema:"only tasks assigned to this member"`
}

// ListTasksResult is the task list.
type ListTasksResult struct {
	Tasks []TaskResult `json:"tasks" jsonschema:"tasks ordered by due date"`
}

// ListTasksTool defines the list_tasks tool.
func ListTasksTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "list_tasks",
		Description: "Lists the organization's tasks ordered by due date, optionally filtered by status, client or assignee.",
	}
}

// ListTasksHandler serves list_tasks.
func ListTasksHandler(dashboards Dashboards) sdkmcp.ToolHandlerFor[ListTasksInput, ListTasksResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input ListTasksInput) (*sdkmcp.CallToolResult, ListTasksResult, error) {
		result := ListTasksResult{Tasks: []TaskResult{}}
		err := withDashboard(ctx, dashboards, func(d *dashboard.Dashboard) error {
			for _, t := range d.Tasks.Tasks() {
				if input.Status != "" && string(t.Status) != input.Status {
					continue
				}
				if input.ClientID != "" && t.ClientID != input.ClientID {
					continue
				}
				if input.AssigneeID != "" && t.AssigneeID != input.AssigneeID {
					continue
				}
				result.Tasks = append(result.Tasks, taskResult(t))
			}
			return nil
		})
		if err != nil {
			return nil, ListTasksResult{}, err
		}
		return nil, result, nil
	}
}

// ScheduleTaskInput creates a task.
type ScheduleTaskInput struct {
	Title       string `json:"title" jsonschema:"task title"`
	Description string `json:"description,omitempty" jsonschema:"task description"`
	Priority    string `json:"priority,omitempty" jsonschema:"low, medium or high (default medium)"`
	Platform    string `json:"platform,omitempty" jsonschema:"instagram, facebook, tiktok, linkedin or twitter"`
	ClientID    string `json:"client_id,omitempty" jsonschema:"client identifier"`
	AssigneeID  string `json:"assignee_id,omitempty" jsonschema:"team member identifier"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"due date as RFC3339 or YYYY-MM-DD"`
}

// ScheduleTaskTool defines the schedule_task tool.
func ScheduleTaskTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "schedule_task",
		Description: "Creates a task in the caller's organization. New tasks start in todo.",
	}
}

// ScheduleTaskHandler serves schedule_task.
func ScheduleTaskHandler(dashboards Dashboards) sdkmcp.ToolHandlerFor[ScheduleTaskInput, TaskResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input ScheduleTaskInput) (*sdkmcp.CallToolResult, TaskResult, error) {
		due, err := parseDate(input.DueDate)
		if err != nil {
			return nil, TaskResult{}, mapError(err)
		}
		var result TaskResult
		err = withDashboard(ctx, dashboards, func(d *dashboard.Dashboard) error {
			created, err := d.Tasks.Create(ctx, task.CreateRequest{
				Title:       input.Title,
				Description: input.Description,
				Priority:    task.Priority(input.Priority),
				Platform:    task.Platform(input.Platform),
				ClientID:    input.ClientID,
				AssigneeID:  input.AssigneeID,
				DueDate:     due,
			})
			if err != nil {
				return err
			}
			result = taskResult(*created)
			return nil
		})
		if err != nil {
			return nil, TaskResult{}, err
		}
		return nil, result, nil
	}
}

// UpdateTaskStatusInput moves a task.
type UpdateTaskStatusInput struct {
	ID     string `json:"id" jsonschema:"task identifier"`
	Status string `json:"status" jsonschema:"todo, in-progress, review or completed"`
}

// UpdateTaskStatusTool defines the update_task_status tool.
func UpdateTaskStatusTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "update_task_status",
		Description: "Sets a task's status.",
	}
}

// UpdateTaskStatusHandler serves update_task_status.
func UpdateTaskStatusHandler(dashboards Dashboards) sdkmcp.ToolHandlerFor[UpdateTaskStatusInput, TaskResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, input UpdateTaskStatusInput) (*sdkmcp.CallToolResult, TaskResult, error) {
		if input.ID == "" {
			return nil, TaskResult{}, fmt.Errorf("id is required")
		}
		var result TaskResult
		err := withDashboard(ctx, dashboards, func(d *dashboard.Dashboard) error {
			updated, err := d.Tasks.UpdateStatus(ctx, input.ID, task.Status(input.Status))
			if err != nil {
				return err
			}
			result = taskResult(*updated)
			return nil
		})
		if err != nil {
			return nil, TaskResult{}, err
		}
		return nil, result, nil
	}
}

// ClientResult is the MCP view of a client.
type ClientResult struct {
	ID       string `json:"id" jsonschema:"client identifier"`
	Name     string `json:"name" jsonschema:"client name"`
	Email    string `json:"email,omitempty" jsonschema:"contact email"`
	Company  string `json:"company,omitempty" jsonschema:"company name"`
	Industry string `json:"industry,omitempty" jsonschema:"industry"`
	Status   string `json:"status" jsonschema:"active, inactive or prospect"`
}

// ListClientsInput takes no arguments.
type ListClientsInput struct{}

// ListClientsResult is the client list.
type ListClientsResult struct {
	Clients []ClientResult `json:"clients" jsonschema:"clients ordered by name"`
}

// ListClientsTool defines the list_clients tool.
func ListClientsTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "list_clients",
		Description: "Lists the organization's clients ordered by name.",
	}
}

// ListClientsHandler serves list_clients.
func ListClientsHandler(dashboards Dashboards) sdkmcp.ToolHandlerFor[ListClientsInput, ListClientsResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListClientsInput) (*sdkmcp.CallToolResult, ListClientsResult, error) {
		result := ListClientsResult{Clients: []ClientResult{}}
		err := withDashboard(ctx, dashboards, func(d *dashboard.Dashboard) error {
			for _, c := range d.Clients.Clients() {
				result.Clients = append(result.Clients, clientResult(c))
			}
			return nil
		})
		if err != nil {
			return nil, ListClientsResult{}, err
		}
		return nil, result, nil
	}
}

func clientResult(c client.Client) ClientResult {
	return ClientResult{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Company:  c.Company,
		Industry: c.Industry,
		Status:   string(c.Status),
	}
}

// MemberResult is the MCP view of a team member.
type MemberResult struct {
	ID              string `json:"id" jsonschema:"member identifier"`
	Name            string `json:"name" jsonschema:"display name"`
	Email           string `json:"email" jsonschema:"email address"`
	Role            string `json:"role" jsonschema:"team_lead, team_member or client"`
	TasksCompleted  int    `json:"tasks_completed" jsonschema:"completed tasks assigned to the member"`
	TasksInProgress int    `json:"tasks_in_progress" jsonschema:"in-progress tasks assigned to the member"`
	OpenTasks       int    `json:"open_tasks" jsonschema:"tasks not yet completed"`
	Workload        int    `json:"workload" jsonschema:"workload score from 0 to 100"`
}

// ListTeamInput takes no arguments.
type ListTeamInput struct{}

// ListTeamResult is the team roster.
type ListTeamResult struct {
	Members []MemberResult `json:"members" jsonschema:"team members with task statistics"`
}

// ListTeamTool defines the list_team tool.
func ListTeamTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "list_team",
		Description: "Lists the caller's team with per-member task counts and workload.",
	}
}

// ListTeamHandler serves list_team.
func ListTeamHandler(dashboards Dashboards) sdkmcp.ToolHandlerFor[ListTeamInput, ListTeamResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListTeamInput) (*sdkmcp.CallToolResult, ListTeamResult, error) {
		result := ListTeamResult{Members: []MemberResult{}}
		err := withDashboard(ctx, dashboards, func(d *dashboard.Dashboard) error {
			for _, m := range d.Team.Members() {
				result.Members = append(result.Members, memberResult(m))
			}
			return nil
		})
		if err != nil {
			return nil, ListTeamResult{}, err
		}
		return nil, result, nil
	}
}

func memberResult(m team.Member) MemberResult {
	return MemberResult{
		ID:              m.ID,
		Name:            m.FullName(),
		Email:           m.Email,
		Role:            string(m.Role),
		TasksCompleted:  m.TasksCompleted,
		TasksInProgress: m.TasksInProgress,
		OpenTasks:       m.OpenTasks,
		Workload:        m.Workload,
	}
}

// ClientTasksResult counts tasks for one client.
type ClientTasksResult struct {
	ClientID  string `json:"client_id" jsonschema:"client identifier"`
	Name      string `json:"name" jsonschema:"client name"`
	Total     int    `json:"total" jsonschema:"tasks for the client"`
	Completed int    `json:"completed" jsonschema:"completed tasks for the client"`
}

// GetAnalyticsInput takes no arguments.
type GetAnalyticsInput struct{}

// GetAnalyticsResult is the analytics summary.
type GetAnalyticsResult struct {
	TotalTasks     int                 `json:"total_tasks" jsonschema:"tasks in the organization"`
	ByStatus       map[string]int      `json:"by_status" jsonschema:"task counts per status"`
	ByPriority     map[string]int      `json:"by_priority" jsonschema:"task counts per priority"`
	ByPlatform     map[string]int      `json:"by_platform" jsonschema:"task counts per platform"`
	CompletionRate float64             `json:"completion_rate" jsonschema:"percent of tasks completed"`
	Overdue        int                 `json:"overdue" jsonschema:"open tasks past their due date"`
	DueThisWeek    int                 `json:"due_this_week" jsonschema:"open tasks due in the next seven days"`
	Velocity       int                 `json:"velocity" jsonschema:"tasks completed in the last seven days"`
	Efficiency     float64             `json:"efficiency" jsonschema:"completed over completed plus overdue, in percent"`
	TotalClients   int                 `json:"total_clients" jsonschema:"clients in the organization"`
	ActiveClients  int                 `json:"active_clients" jsonschema:"clients with active status"`
	TeamSize       int                 `json:"team_size" jsonschema:"members on the team"`
	AvgWorkload    float64             `json:"avg_workload" jsonschema:"mean member workload"`
	ClientTasks    []ClientTasksResult `json:"client_tasks" jsonschema:"task counts per client, busiest first"`
	GeneratedAt    string              `json:"generated_at" jsonschema:"RFC3339 timestamp of the computation"`
}

// GetAnalyticsTool defines the get_analytics tool.
func GetAnalyticsTool() *sdkmcp.Tool {
	return &sdkmcp.Tool{
		Name:        "get_analytics",
		Description: "Returns completion, overdue, velocity, workload and per-client figures for the caller's organization.",
	}
}

// GetAnalyticsHandler serves get_analytics.
func GetAnalyticsHandler(dashboards Dashboards) sdkmcp.ToolHandlerFor[GetAnalyticsInput, GetAnalyticsResult] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ GetAnalyticsInput) (*sdkmcp.CallToolResult, GetAnalyticsResult, error) {
		var result GetAnalyticsResult
		err := withDashboard(ctx, dashboards, func(d *dashboard.Dashboard) error {
			result = analyticsResult(d.Analytics())
			return nil
		})
		if err != nil {
			return nil, GetAnalyticsResult{}, err
		}
		return nil, result, nil
	}
}

func analyticsResult(s analytics.Summary) GetAnalyticsResult {
	r := GetAnalyticsResult{
		TotalTasks:     s.TotalTasks,
		ByStatus:       make(map[string]int, len(s.ByStatus)),
		ByPriority:     make(map[string]int, len(s.ByPriority)),
		ByPlatform:     make(map[string]int, len(s.ByPlatform)),
		CompletionRate: s.CompletionRate,
		Overdue:        s.Overdue,
		DueThisWeek:    s.DueThisWeek,
		Velocity:       s.Velocity,
		Efficiency:     s.Efficiency,
		TotalClients:   s.TotalClients,
		ActiveClients:  s.ActiveClients,
		TeamSize:       s.TeamSize,
		AvgWorkload:    s.AvgWorkload,
		ClientTasks:    make([]ClientTasksResult, 0, len(s.ClientTasks)),
		GeneratedAt:    formatTime(s.GeneratedAt),
	}
	for k, v := range s.ByStatus {
		r.ByStatus[string(k)] = v
	}
	for k, v := range s.ByPriority {
		r.ByPriority[string(k)] = v
	}
	for k, v := range s.ByPlatform {
		r.ByPlatform[string(k)] = v
	}
	for _, ct := range s.ClientTasks {
		r.ClientTasks = append(r.ClientTasks, ClientTasksResult(ct))
	}
	return r
}
