// Package team lists the members of the session user's organization with
// per-member task statistics.
package team

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/ganot/taskdeck/internal/domain/task"
)

// DefaultStatsConcurrency bounds concurrent per-member task queries.
const DefaultStatsConcurrency = 4

// Service holds the team roster. It is read-only; membership changes arrive
// through profile writes.
type Service struct {
	*collection.Collection[Member]
	rows        dataservice.Rows
	concurrency int
	logger      *slog.Logger
}

// NewService creates a team service. opts.Name defaults to "team".
func NewService(rows dataservice.Rows, opts collection.Options) *Service {
	if opts.Name == "" {
		opts.Name = "team"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{rows: rows, concurrency: DefaultStatsConcurrency, logger: logger}
	s.Collection = collection.New(s.fetch, opts)
	return s
}

func (s *Service) fetch(ctx context.Context, sessionID string) ([]Member, error) {
	self, err := profile.Lookup(ctx, s.rows, sessionID)
	if err != nil {
		return nil, err
	}

	// A user outside any organization is a team of one.
	profiles := []profile.Profile{*self}
	if self.OrganizationID != "" {
		rows, err := s.rows.Select(ctx, dataservice.TableProfiles, dataservice.Filter{
			Eq:      map[string]any{"organization_id": self.OrganizationID},
			OrderBy: "first_name",
		})
		if err != nil {
			return nil, fmt.Errorf("selecting team profiles: %w", err)
		}
		profiles = profiles[:0]
		for _, row := range rows {
			profiles = append(profiles, profile.FromRow(row))
		}
	}

	members := make([]Member, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range profiles {
		g.Go(func() error {
			scope := self.Scope()
			scope["assignee_id"] = p.ID
			rows, err := s.rows.Select(gctx, dataservice.TableTasks, dataservice.Filter{Eq: scope})
			if err != nil {
				return fmt.Errorf("selecting tasks for %s: %w", p.ID, err)
			}
			assigned := make([]task.Task, 0, len(rows))
			for _, row := range rows {
				assigned = append(assigned, task.FromRow(row))
			}
			members[i] = memberStats(p, assigned)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return members, nil
}

// Members returns the cached roster.
func (s *Service) Members() []Member {
	return s.Items()
}

// Member returns the cached member with the given id.
func (s *Service) Member(id string) (Member, bool) {
	for _, m := range s.Items() {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}
