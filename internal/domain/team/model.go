package team

import (
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/ganot/taskdeck/internal/domain/task"
)

// Member is an organization member with task statistics.
type Member struct {
	profile.Profile
	TasksCompleted  int `json:"tasks_completed"`
	TasksInProgress int `json:"tasks_in_progress"`
	OpenTasks       int `json:"open_tasks"`
	// Workload is 0-100.
	Workload int `json:"workload"`
}

// Workload weights in-progress work and open high-priority work, capped at
// 100.
func Workload(inProgress, openHighPriority int) int {
	w := 15*inProgress + 10*openHighPriority
	if w > 100 {
		return 100
	}
	return w
}

func memberStats(p profile.Profile, assigned []task.Task) Member {
	m := Member{Profile: p}
	highOpen := 0
	for _, t := range assigned {
		switch t.Status {
		case task.StatusCompleted:
			m.TasksCompleted++
		case task.StatusInProgress:
			m.TasksInProgress++
		}
		if t.Open() {
			m.OpenTasks++
			if t.Priority == task.PriorityHigh {
				highOpen++
			}
		}
	}
	m.Workload = Workload(m.TasksInProgress, highOpen)
	return m
}
