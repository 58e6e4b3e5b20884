package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/google/uuid"
)

// TimeLayout is the fixed-width UTC layout used for every timestamp column so
// that lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Store implements dataservice.Client on top of SQLite. Writes publish a
// dataservice.Change to the embedded broker after they commit.
type Store struct {
	db *DB
	*dataservice.Broker
	now func() time.Time
}

var _ dataservice.Client = (*Store)(nil)

// NewStore creates a Store over db.
func NewStore(db *DB) *Store {
	return &Store{
		db:     db,
		Broker: dataservice.NewBroker(Tables()...),
		now:    time.Now,
	}
}

// Select returns the rows of table matching filter.
func (s *Store) Select(ctx context.Context, table string, filter dataservice.Filter) ([]dataservice.Row, error) {
	schema, err := lookupTable(table)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	query := "SELECT " + strings.Join(schema.names(), ", ") + " FROM " + schema.name
	var conditions []string
	var args []any

	for _, col := range sortedKeys(filter.Eq) {
		c, ok := schema.column(col)
		if !ok {
			return nil, fmt.Errorf("select %s: %q: %w", table, col, dataservice.ErrUnknownColumn)
		}
		value := filter.Eq[col]
		if value == nil {
			conditions = append(conditions, col+" IS NULL")
			continue
		}
		v, err := s.encode(c, value)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}
		conditions = append(conditions, col+" = ?")
		args = append(args, v)
	}

	for _, col := range sortedKeys(filter.In) {
		c, ok := schema.column(col)
		if !ok {
			return nil, fmt.Errorf("select %s: %q: %w", table, col, dataservice.ErrUnknownColumn)
		}
		values := filter.In[col]
		if len(values) == 0 {
			conditions = append(conditions, "1 = 0")
			continue
		}
		for _, value := range values {
			v, err := s.encode(c, value)
			if err != nil {
				return nil, fmt.Errorf("select %s: %w", table, err)
			}
			args = append(args, v)
		}
		conditions = append(conditions, col+" IN ("+placeholders(len(values))+")")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if filter.OrderBy != "" {
		if !schema.has(filter.OrderBy) {
			return nil, fmt.Errorf("select %s: order by %q: %w", table, filter.OrderBy, dataservice.ErrUnknownColumn)
		}
		query += " ORDER BY " + filter.OrderBy
		if filter.Desc {
			query += " DESC"
		}
		query += ", rowid"
	} else {
		query += " ORDER BY rowid"
	}

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("select", table, err)
	}
	defer rows.Close()

	var out []dataservice.Row
	for rows.Next() {
		values := make([]any, len(schema.columns))
		dest := make([]any, len(schema.columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("select %s: failed to scan row: %w", table, err)
		}
		row, err := decodeRow(schema, values)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("select", table, err)
	}

	return out, nil
}

// Insert writes row and returns it as stored. A missing id is generated.
func (s *Store) Insert(ctx context.Context, table string, row dataservice.Row) (dataservice.Row, error) {
	schema, err := lookupTable(table)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	values := make(dataservice.Row, len(row)+3)
	for k, v := range row {
		values[k] = v
	}
	if values.ID() == "" {
		values["id"] = uuid.NewString()
	}
	now := s.now().UTC().Format(TimeLayout)
	for _, col := range []string{"created_at", "updated_at"} {
		if schema.has(col) && values[col] == nil {
			values[col] = now
		}
	}

	cols := sortedKeys(values)
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		c, ok := schema.column(col)
		if !ok {
			return nil, fmt.Errorf("insert %s: %q: %w", table, col, dataservice.ErrUnknownColumn)
		}
		v, err := s.encode(c, values[col])
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", table, err)
		}
		args = append(args, v)
	}

	query := "INSERT INTO " + schema.name + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(len(cols)) + ")"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, mapError("insert", table, err)
	}

	stored, err := s.get(ctx, schema, values.ID())
	if err != nil {
		return nil, err
	}
	s.Publish(dataservice.Change{Table: table, Op: dataservice.OpInsert, ID: stored.ID()})
	return stored, nil
}

// Update applies patch to the row with the given id and returns the result.
func (s *Store) Update(ctx context.Context, table, id string, patch dataservice.Row) (dataservice.Row, error) {
	schema, err := lookupTable(table)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	if _, ok := patch["id"]; ok {
		return nil, fmt.Errorf("update %s: id is immutable: %w", table, dataservice.ErrConstraint)
	}

	values := make(dataservice.Row, len(patch)+1)
	for k, v := range patch {
		values[k] = v
	}
	if schema.has("updated_at") && values["updated_at"] == nil {
		values["updated_at"] = s.now().UTC().Format(TimeLayout)
	}
	if len(values) == 0 {
		return s.get(ctx, schema, id)
	}

	cols := sortedKeys(values)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		c, ok := schema.column(col)
		if !ok {
			return nil, fmt.Errorf("update %s: %q: %w", table, col, dataservice.ErrUnknownColumn)
		}
		v, err := s.encode(c, values[col])
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", table, err)
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	args = append(args, id)

	query := "UPDATE " + schema.name + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("update", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update %s: failed to get rows affected: %w", table, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("update %s %s: %w", table, id, dataservice.ErrNotFound)
	}

	stored, err := s.get(ctx, schema, id)
	if err != nil {
		return nil, err
	}
	s.Publish(dataservice.Change{Table: table, Op: dataservice.OpUpdate, ID: id})
	return stored, nil
}

// Delete removes the row with the given id.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	schema, err := lookupTable(table)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM "+schema.name+" WHERE id = ?", id)
	if err != nil {
		return mapError("delete", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: failed to get rows affected: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s %s: %w", table, id, dataservice.ErrNotFound)
	}

	s.Publish(dataservice.Change{Table: table, Op: dataservice.OpDelete, ID: id})
	return nil
}

func (s *Store) get(ctx context.Context, schema tableSchema, id string) (dataservice.Row, error) {
	rows, err := s.Select(ctx, schema.name, dataservice.Filter{Eq: map[string]any{"id": id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("get %s %s: %w", schema.name, id, dataservice.ErrNotFound)
	}
	return rows[0], nil
}

// encode converts a Row value into a driver argument for column c.
func (s *Store) encode(c column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if c.kind == kindJSON {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("column %q: encode json: %w", c.name, err)
		}
		return string(data), nil
	}
	switch v := value.(type) {
	case string, int64, float64, bool:
		return v, nil
	case int:
		return int64(v), nil
	case time.Time:
		return v.UTC().Format(TimeLayout), nil
	case *string:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.UTC().Format(TimeLayout), nil
	default:
		return nil, fmt.Errorf("column %q: unsupported value type %T", c.name, value)
	}
}

func decodeRow(schema tableSchema, values []any) (dataservice.Row, error) {
	row := make(dataservice.Row, len(schema.columns))
	for i, c := range schema.columns {
		v := values[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if c.kind == kindJSON && v != nil {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %q: expected json text, got %T", c.name, v)
			}
			var decoded []any
			if s != "" {
				if err := json.Unmarshal([]byte(s), &decoded); err != nil {
					return nil, fmt.Errorf("column %q: decode json: %w", c.name, err)
				}
			}
			v = decoded
		}
		row[c.name] = v
	}
	return row, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
