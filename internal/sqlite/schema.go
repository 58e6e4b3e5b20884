package sqlite

import (
	"fmt"

	"github.com/ganot/taskdeck/internal/dataservice"
)

type columnKind int

const (
	kindText columnKind = iota
	// kindJSON columns hold arrays, stored as JSON text.
	kindJSON
)

type column struct {
	name string
	kind columnKind
}

type tableSchema struct {
	name    string
	columns []column
}

func (t tableSchema) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func (t tableSchema) has(name string) bool {
	_, ok := t.column(name)
	return ok
}

func (t tableSchema) names() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.name
	}
	return out
}

func text(name string) column { return column{name: name, kind: kindText} }
func jsonCol(name string) column { return column{name: name, kind: kindJSON} }

// schemas mirrors RunMigrations; only these tables are reachable through Store.
var schemas = map[string]tableSchema{
	dataservice.TableOrganizations: {
		name:    dataservice.TableOrganizations,
		columns: []column{text("id"), text("name"), text("created_at")},
	},
	dataservice.TableProfiles: {
		name: dataservice.TableProfiles,
		columns: []column{
			text("id"), text("organization_id"), text("email"), text("first_name"),
			text("last_name"), text("role"), text("avatar_url"), text("bio"),
			jsonCol("skills"), text("created_at"), text("updated_at"),
		},
	},
	dataservice.TableClients: {
		name: dataservice.TableClients,
		columns: []column{
			text("id"), text("organization_id"), text("name"), text("email"),
			text("company"), text("industry"), text("status"), text("created_by"),
			text("created_at"), text("updated_at"),
		},
	},
	dataservice.TableTasks: {
		name: dataservice.TableTasks,
		columns: []column{
			text("id"), text("organization_id"), text("title"), text("description"),
			text("status"), text("priority"), text("platform"), text("assignee_id"),
			text("client_id"), text("created_by"), text("due_date"),
			text("created_at"), text("updated_at"),
		},
	},
}

// Tables lists the resource tables Store serves.
func Tables() []string {
	return []string{
		dataservice.TableOrganizations,
		dataservice.TableProfiles,
		dataservice.TableClients,
		dataservice.TableTasks,
	}
}

func lookupTable(name string) (tableSchema, error) {
	t, ok := schemas[name]
	if !ok {
		return tableSchema{}, fmt.Errorf("%q: %w", name, dataservice.ErrUnknownTable)
	}
	return t, nil
}
