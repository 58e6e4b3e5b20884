package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/dashboard"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/ganot/taskdeck/internal/mcp"
	"github.com/ganot/taskdeck/internal/realtime"
	"github.com/ganot/taskdeck/internal/sqlite"
	"github.com/ganot/taskdeck/internal/transport"
	"github.com/stretchr/testify/require"
)

// GraceDelay is the multiplexer grace delay used by test servers.
const GraceDelay = 50 * time.Millisecond

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Store    *sqlite.Store
	Registry *realtime.Registry
	Manager  *dashboard.Manager
	Keys     *sqlite.APIKeyStore
}

// User describes an account to provision with AddUser.
type User struct {
	Token        string
	ID           string
	Email        string
	FirstName    string
	Role         profile.Role
	Organization string
}

func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store := sqlite.NewStore(db)
	registry := realtime.NewRegistry(store, realtime.NewBus(), realtime.Options{GraceDelay: GraceDelay},
		dataservice.TableTasks, dataservice.TableClients, dataservice.TableProfiles)
	manager := dashboard.NewManager(dashboard.Deps{Rows: store, Registry: registry})
	keys := sqlite.NewAPIKeyStore(db)

	server := httptest.NewServer(transport.NewServer(mcp.NewHandler(manager), transport.Options{
		Auth:       transport.AuthMiddleware(keys),
		Dashboards: manager,
		Health:     registry,
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Store:    store,
		Registry: registry,
		Manager:  manager,
		Keys:     keys,
	}

	t.Cleanup(func() {
		server.Close()
		manager.Close()
		registry.Close()
		_ = db.Close()
	})

	return ts
}

// AddUser provisions the user's organization, profile and API key.
func (ts *TestServer) AddUser(t *testing.T, u User) {
	t.Helper()
	ctx := context.Background()

	profiles := profile.NewService(ts.Store, collection.Options{})
	_, err := profiles.EnsureProfile(ctx, profile.EnsureRequest{
		UserID:       u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		Role:         u.Role,
		Organization: u.Organization,
	})
	require.NoError(t, err)
	require.NoError(t, ts.Keys.Add(ctx, u.Token, u.ID, "test"))
}
