package mocks

import (
	"context"

	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/stretchr/testify/mock"
)

// Client is a mock for dataservice.Client.
type Client struct {
	mock.Mock
}

func (m *Client) Select(ctx context.Context, table string, filter dataservice.Filter) ([]dataservice.Row, error) {
	args := m.Called(ctx, table, filter)
	if rows, ok := args.Get(0).([]dataservice.Row); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Insert(ctx context.Context, table string, row dataservice.Row) (dataservice.Row, error) {
	args := m.Called(ctx, table, row)
	if out, ok := args.Get(0).(dataservice.Row); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Update(ctx context.Context, table, id string, patch dataservice.Row) (dataservice.Row, error) {
	args := m.Called(ctx, table, id, patch)
	if out, ok := args.Get(0).(dataservice.Row); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Delete(ctx context.Context, table, id string) error {
	args := m.Called(ctx, table, id)
	return args.Error(0)
}

func (m *Client) Subscribe(ctx context.Context, table string, onChange func(dataservice.Change)) (dataservice.Subscription, error) {
	args := m.Called(ctx, table, onChange)
	if sub, ok := args.Get(0).(dataservice.Subscription); ok {
		return sub, args.Error(1)
	}
	return dataservice.Subscription{}, args.Error(1)
}

func (m *Client) Unsubscribe(sub dataservice.Subscription) error {
	args := m.Called(sub)
	return args.Error(0)
}
