// Package analytics derives dashboard summary figures from the task, client
// and team collections.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/ganot/taskdeck/internal/domain/client"
	"github.com/ganot/taskdeck/internal/domain/task"
	"github.com/ganot/taskdeck/internal/domain/team"
)

// Window is the look-back and look-ahead span for weekly figures.
const Window = 7 * 24 * time.Hour

// Summary is the analytics snapshot. Rates are percentages rounded to one
// decimal place.
type Summary struct {
	TotalTasks     int                   `json:"total_tasks"`
	ByStatus       map[task.Status]int   `json:"by_status"`
	ByPriority     map[task.Priority]int `json:"by_priority"`
	ByPlatform     map[task.Platform]int `json:"by_platform"`
	CompletionRate float64               `json:"completion_rate"`
	Overdue        int                   `json:"overdue"`
	DueThisWeek    int                   `json:"due_this_week"`
	Velocity       int                   `json:"velocity"`
	Efficiency     float64               `json:"efficiency"`
	TotalClients   int                   `json:"total_clients"`
	ActiveClients  int                   `json:"active_clients"`
	TeamSize       int                   `json:"team_size"`
	AvgWorkload    float64               `json:"avg_workload"`
	ClientTasks    []ClientTasks         `json:"client_tasks"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// ClientTasks counts the tasks scheduled for one client.
type ClientTasks struct {
	ClientID  string `json:"client_id"`
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// Compute builds a Summary. It is a pure function of its arguments.
//
// Velocity counts tasks completed within the last Window, using the last
// update time as the completion time. Efficiency is completed over completed
// plus overdue.
func Compute(tasks []task.Task, clients []client.Client, members []team.Member, now time.Time) Summary {
	s := Summary{
		TotalTasks:  len(tasks),
		ByStatus:    make(map[task.Status]int),
		ByPriority:  make(map[task.Priority]int),
		ByPlatform:  make(map[task.Platform]int),
		ClientTasks: []ClientTasks{},
		GeneratedAt: now,
	}

	perClient := make(map[string]*ClientTasks, len(clients))
	for _, c := range clients {
		s.TotalClients++
		if c.Status == client.StatusActive {
			s.ActiveClients++
		}
		perClient[c.ID] = &ClientTasks{ClientID: c.ID, Name: c.Name}
	}

	completed := 0
	weekAhead := now.Add(Window)
	weekAgo := now.Add(-Window)
	for _, t := range tasks {
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
		if t.Platform != "" {
			s.ByPlatform[t.Platform]++
		}

		done := t.Status == task.StatusCompleted
		if done {
			completed++
			if t.UpdatedAt.After(weekAgo) && !t.UpdatedAt.After(now) {
				s.Velocity++
			}
		}
		if t.Overdue(now) {
			s.Overdue++
		} else if t.Open() && t.DueDate != nil && t.DueDate.Before(weekAhead) {
			s.DueThisWeek++
		}

		if ct, ok := perClient[t.ClientID]; ok {
			ct.Total++
			if done {
				ct.Completed++
			}
		}
	}

	s.CompletionRate = percent(completed, len(tasks))
	s.Efficiency = percent(completed, completed+s.Overdue)

	s.TeamSize = len(members)
	if len(members) > 0 {
		total := 0
		for _, m := range members {
			total += m.Workload
		}
		s.AvgWorkload = round1(float64(total) / float64(len(members)))
	}

	for _, ct := range perClient {
		if ct.Total > 0 {
			s.ClientTasks = append(s.ClientTasks, *ct)
		}
	}
	sort.Slice(s.ClientTasks, func(i, j int) bool {
		a, b := s.ClientTasks[i], s.ClientTasks[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Name < b.Name
	})
	return s
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(100 * float64(part) / float64(whole))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
