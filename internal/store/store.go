// Package store defines the contract the core consumes from the hosted
// relational store: row-level CRUD on named collections plus a per-collection
// change-notification subscription. The store itself (persistence, auth row
// security, referential integrity) is an external collaborator.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Collections used by this application.
const (
	CollectionAccounts = "accounts"
	CollectionExpenses = "expenses"
)

var (
	ErrRowNotFound       = errors.New("row not found")
	ErrUniqueViolation   = errors.New("unique constraint violation")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Row is a single stored record in wire form. Field values are scalars as the
// driver returns them; repositories own the mapping to domain types.
type Row map[string]any

// Filter is an equality predicate on a single field.
type Filter struct {
	Field string
	Value any
}

// Order names the field and direction result rows are sorted by.
type Order struct {
	Field string
	Desc  bool
}

// EventType classifies a change notification.
type EventType int

const (
	EventInsert EventType = iota
	EventUpdate
	EventDelete
)

func (t EventType) String() string {
	switch t {
	case EventInsert:
		return "insert"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event describes one row change in a collection. RowID identifies the
// changed row; consumers are free to ignore it and treat the event as a
// whole-collection invalidation.
type Event struct {
	Collection string
	Type       EventType
	RowID      uuid.UUID
}

// Handler receives change events for a subscribed collection.
type Handler func(Event)

// Subscription is a live change-notification registration.
type Subscription interface {
	Unsubscribe()
}

// Client is the row-level store contract.
type Client interface {
	// Select reads rows matching all filters, ordered as requested. A nil
	// order leaves ordering to the store.
	Select(ctx context.Context, collection string, filters []Filter, order *Order) ([]Row, error)

	// Insert stores a row and returns it as stored, including the generated id.
	Insert(ctx context.Context, collection string, row Row) (Row, error)

	// Update applies a partial patch to the identified row and returns the
	// updated row. Returns ErrRowNotFound if no row matches.
	Update(ctx context.Context, collection string, id uuid.UUID, patch Row) (Row, error)

	// Delete removes the identified row. Returns ErrRowNotFound if no row
	// matches.
	Delete(ctx context.Context, collection string, id uuid.UUID) error

	// Subscribe registers a handler for change events on the collection.
	Subscribe(collection string, h Handler) Subscription
}
