package client_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/dataservice/mocks"
	"github.com/ganot/taskdeck/internal/domain/client"
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var clientsFilter = dataservice.Filter{
	Eq:      map[string]any{"organization_id": "org-1"},
	OrderBy: "name",
}

func mountedService(t *testing.T, ctx context.Context, ds *mocks.Client, rows ...dataservice.Row) *client.Service {
	t.Helper()
	ds.On("Select", ctx, dataservice.TableProfiles, dataservice.Filter{Eq: map[string]any{"id": "user-1"}, Limit: 1}).
		Return([]dataservice.Row{{"id": "user-1", "organization_id": "org-1"}}, nil)
	ds.On("Select", ctx, dataservice.TableClients, clientsFilter).Return(rows, nil).Once()

	svc := client.NewService(ds, collection.Options{})
	svc.Mount(ctx, "user-1")
	t.Cleanup(svc.Unmount)
	return svc
}

func expectVisible(ds *mocks.Client, ctx context.Context, id string, rows ...dataservice.Row) {
	ds.On("Select", ctx, dataservice.TableClients, dataservice.Filter{
		Eq:    map[string]any{"organization_id": "org-1", "id": id},
		Limit: 1,
	}).Return(rows, nil)
}

func TestClientService_Mount(t *testing.T) {
	ctx := context.Background()
	ds := &mocks.Client{}
	svc := mountedService(t, ctx, ds,
		dataservice.Row{"id": "c1", "name": "Acme", "status": "active"},
		dataservice.Row{"id": "c2", "name": "Globex", "status": "prospect"},
	)

	clients := svc.Clients()
	require.Len(t, clients, 2)
	require.Equal(t, client.StatusProspect, clients[1].Status)
}

func TestClientService_Create(t *testing.T) {
	ctx := context.Background()
	ds := &mocks.Client{}
	svc := mountedService(t, ctx, ds)

	ds.On("Insert", ctx, dataservice.TableClients, dataservice.Row{
		"organization_id": "org-1",
		"name":            "Initech",
		"email":           "hello@initech.example",
		"company":         "",
		"industry":        "Software",
		"status":          "active",
		"created_by":      "user-1",
	}).Return(dataservice.Row{"id": "c9", "name": "Initech", "status": "active"}, nil)
	ds.On("Select", ctx, dataservice.TableClients, clientsFilter).
		Return([]dataservice.Row{{"id": "c9", "name": "Initech"}}, nil).Once()

	c, err := svc.Create(ctx, client.CreateRequest{Name: "Initech", Email: "hello@initech.example", Industry: "Software"})
	require.NoError(t, err)
	require.Equal(t, "c9", c.ID)
	require.Len(t, svc.Clients(), 1)
	ds.AssertExpectations(t)
}

func TestClientService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	ds := &mocks.Client{}
	svc := mountedService(t, ctx, ds)

	_, err := svc.Create(ctx, client.CreateRequest{Name: "x", Email: "not-an-email"})
	require.ErrorIs(t, err, client.ErrInvalidInput)

	_, err = svc.Create(ctx, client.CreateRequest{Name: "x", Status: "vip"})
	require.ErrorIs(t, err, client.ErrInvalidInput)
	ds.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestClientService_Update(t *testing.T) {
	ctx := context.Background()
	ds := &mocks.Client{}
	svc := mountedService(t, ctx, ds)

	status := client.StatusInactive
	expectVisible(ds, ctx, "c1", dataservice.Row{"id": "c1"})
	ds.On("Update", ctx, dataservice.TableClients, "c1", dataservice.Row{"status": "inactive"}).
		Return(dataservice.Row{"id": "c1", "status": "inactive"}, nil)
	ds.On("Select", ctx, dataservice.TableClients, clientsFilter).Return([]dataservice.Row{}, nil).Once()

	c, err := svc.Update(ctx, "c1", client.UpdateRequest{Status: &status})
	require.NoError(t, err)
	require.Equal(t, client.StatusInactive, c.Status)

	_, err = svc.Update(ctx, "c1", client.UpdateRequest{})
	require.ErrorIs(t, err, client.ErrInvalidInput)
}

func TestClientService_DeleteNotFound(t *testing.T) {
	ctx := context.Background()
	ds := &mocks.Client{}
	svc := mountedService(t, ctx, ds)

	expectVisible(ds, ctx, "gone", dataservice.Row{"id": "gone"})
	ds.On("Delete", ctx, dataservice.TableClients, "gone").
		Return(fmt.Errorf("delete clients: %w", dataservice.ErrNotFound))

	require.ErrorIs(t, svc.Delete(ctx, "gone"), client.ErrClientNotFound)
}

func TestClientService_WritesOutsideOrganizationRejected(t *testing.T) {
	ctx := context.Background()
	ds := &mocks.Client{}
	svc := mountedService(t, ctx, ds)

	expectVisible(ds, ctx, "c9")

	name := "Renamed"
	_, err := svc.Update(ctx, "c9", client.UpdateRequest{Name: &name})
	require.ErrorIs(t, err, client.ErrClientNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "c9"), client.ErrClientNotFound)

	ds.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ds.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestClientService_NoOrganizationSeesOwnClients(t *testing.T) {
	ctx := context.Background()
	ds := &mocks.Client{}
	ds.On("Select", ctx, dataservice.TableProfiles, dataservice.Filter{Eq: map[string]any{"id": "solo"}, Limit: 1}).
		Return([]dataservice.Row{{"id": "solo"}}, nil)
	ds.On("Select", ctx, dataservice.TableClients, dataservice.Filter{
		Eq:      map[string]any{"organization_id": nil, "created_by": "solo"},
		OrderBy: "name",
	}).Return([]dataservice.Row{{"id": "c1", "name": "Mine"}}, nil).Once()

	svc := client.NewService(ds, collection.Options{})
	svc.Mount(ctx, "solo")
	t.Cleanup(svc.Unmount)

	require.Len(t, svc.Clients(), 1)
	ds.AssertExpectations(t)
}

func TestClientService_NoSession(t *testing.T) {
	ctx := context.Background()
	svc := client.NewService(&mocks.Client{}, collection.Options{})
	svc.Mount(ctx, "")
	defer svc.Unmount()

	require.Empty(t, svc.Clients())
	name := "x"
	_, err := svc.Update(ctx, "c1", client.UpdateRequest{Name: &name})
	require.ErrorIs(t, err, profile.ErrNoSession)
}
