// Package dataservice defines the contract between taskdeck and the row store
// that backs it: row-level CRUD over named tables plus a per-table change feed.
package dataservice

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no row matches the given id.
	ErrNotFound = errors.New("row not found")
	// ErrConstraint is returned when a write violates a schema constraint.
	ErrConstraint = errors.New("constraint violation")
	// ErrUnknownTable is returned for tables the service does not expose.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownColumn is returned when a row or filter names a missing column.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnavailable is returned when the service cannot be reached.
	ErrUnavailable = errors.New("data service unavailable")
)

// Resource tables exposed by the data service.
const (
	TableTasks         = "tasks"
	TableClients       = "clients"
	TableProfiles      = "profiles"
	TableOrganizations = "organizations"
)

// Row is one record: column name to scalar or array value. Every row has a
// string primary key under "id".
type Row map[string]any

// ID returns the row's primary key.
func (r Row) ID() string {
	return r.String("id")
}

// String returns the column as a string, or "" when absent or not a string.
func (r Row) String(col string) string {
	v, _ := r[col].(string)
	return v
}

// Time parses the column as an RFC 3339 timestamp or a plain date. It returns
// the zero time when the column is absent or unparseable.
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// Strings returns an array column as strings, skipping non-string elements.
func (r Row) Strings(col string) []string {
	switch v := r[col].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Filter narrows a Select.
type Filter struct {
	Eq      map[string]any
	In      map[string][]any
	OrderBy string
	Desc    bool
	Limit   int
}

// Op identifies the kind of write behind a Change.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Change is the payload delivered to change-feed subscribers. Scope is the
// table, not the row; ID is informational.
type Change struct {
	Table string `json:"table"`
	Op    Op     `json:"op"`
	ID    string `json:"id"`
}

// Subscription identifies one live change-feed registration.
type Subscription struct {
	ID    string
	Table string
}

// Rows performs row-level CRUD.
type Rows interface {
	Select(ctx context.Context, table string, filter Filter) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table, id string, patch Row) (Row, error)
	Delete(ctx context.Context, table, id string) error
}

// Feed delivers per-table change notifications.
type Feed interface {
	Subscribe(ctx context.Context, table string, onChange func(Change)) (Subscription, error)
	Unsubscribe(sub Subscription) error
}

// Client is the full data service contract.
type Client interface {
	Rows
	Feed
}
