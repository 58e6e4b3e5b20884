package dataservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Broker is an in-process change feed. Row stores embed it and call Publish
// after each committed write.
type Broker struct {
	mu     sync.RWMutex
	tables map[string]bool
	subs   map[string]map[string]func(Change)
}

// NewBroker creates a broker that accepts subscriptions for the given tables.
func NewBroker(tables ...string) *Broker {
	b := &Broker{
		tables: make(map[string]bool, len(tables)),
		subs:   make(map[string]map[string]func(Change)),
	}
	for _, t := range tables {
		b.tables[t] = true
	}
	return b
}

// Subscribe registers onChange for every write to table.
func (b *Broker) Subscribe(ctx context.Context, table string, onChange func(Change)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, fmt.Errorf("subscribe %s: %w", table, err)
	}
	if onChange == nil {
		return Subscription{}, fmt.Errorf("subscribe %s: nil callback", table)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.tables[table] {
		return Subscription{}, fmt.Errorf("subscribe %s: %w", table, ErrUnknownTable)
	}
	sub := Subscription{ID: uuid.NewString(), Table: table}
	if b.subs[table] == nil {
		b.subs[table] = make(map[string]func(Change))
	}
	b.subs[table][sub.ID] = onChange
	return sub, nil
}

// Unsubscribe stops delivery to sub. Unknown subscriptions are ignored.
func (b *Broker) Unsubscribe(sub Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subs[sub.Table]; ok {
		delete(subs, sub.ID)
		if len(subs) == 0 {
			delete(b.subs, sub.Table)
		}
	}
	return nil
}

// Publish delivers change to every subscriber of its table. Callbacks run on
// the caller's goroutine, outside the broker lock.
func (b *Broker) Publish(change Change) {
	b.mu.RLock()
	callbacks := make([]func(Change), 0, len(b.subs[change.Table]))
	for _, fn := range b.subs[change.Table] {
		callbacks = append(callbacks, fn)
	}
	b.mu.RUnlock()

	for _, fn := range callbacks {
		fn(change)
	}
}

// Subscribers returns the number of live subscriptions on table.
func (b *Broker) Subscribers(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[table])
}
