package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tableNames maps known collections to their table names. Collections are an
// allowlist; names are never interpolated from caller input.
var tableNames = map[string]string{
	CollectionAccounts: "accounts",
	CollectionExpenses: "expenses",
}

// GormClient implements Client against a relational database through GORM.
// The hosted store is Postgres; tests run the same client against sqlite.
// Change events are published in-process after each successful mutation,
// standing in for the hosted store's change feed.
type GormClient struct {
	db       *gorm.DB
	notifier *notifier
}

// NewGormClient creates a store client over an open GORM connection. The
// connection must be configured with error translation so unique violations
// surface as gorm.ErrDuplicatedKey.
func NewGormClient(db *gorm.DB) *GormClient {
	return &GormClient{
		db:       db,
		notifier: newNotifier(),
	}
}

func (c *GormClient) table(collection string) (string, error) {
	name, ok := tableNames[collection]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return name, nil
}

// Select reads rows matching all filters, ordered as requested.
func (c *GormClient) Select(ctx context.Context, collection string, filters []Filter, order *Order) ([]Row, error) {
	table, err := c.table(collection)
	if err != nil {
		return nil, err
	}

	q := c.db.WithContext(ctx).Table(table)
	for _, f := range filters {
		q = q.Where(fmt.Sprintf("%s = ?", f.Field), f.Value)
	}
	if order != nil {
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		q = q.Order(fmt.Sprintf("%s %s", order.Field, dir))
	}

	var rows []map[string]any
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", collection, err)
	}

	result := make([]Row, len(rows))
	for i, r := range rows {
		result[i] = Row(r)
	}
	return result, nil
}

// Insert stores a row, generating the id and timestamps the hosted store
// would assign.
func (c *GormClient) Insert(ctx context.Context, collection string, row Row) (Row, error) {
	table, err := c.table(collection)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]any, len(row)+3)
	for k, v := range row {
		stored[k] = v
	}

	id, ok := stored["id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored["id"] = id
	}
	now := time.Now().UTC()
	if _, ok := stored["created_at"]; !ok {
		stored["created_at"] = now
	}
	if _, ok := stored["updated_at"]; !ok {
		stored["updated_at"] = now
	}

	if err := c.db.WithContext(ctx).Table(table).Create(stored).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("insert into %s: %w", collection, ErrUniqueViolation)
		}
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	c.publish(Event{Collection: collection, Type: EventInsert, RowID: parseRowID(id)})

	return Row(stored), nil
}

// Update applies a partial patch and returns the updated row.
func (c *GormClient) Update(ctx context.Context, collection string, id uuid.UUID, patch Row) (Row, error) {
	table, err := c.table(collection)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	res := c.db.WithContext(ctx).Table(table).Where("id = ?", id.String()).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("update %s: %w", collection, ErrUniqueViolation)
		}
		return nil, fmt.Errorf("failed to update %s: %w", collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update %s %s: %w", collection, id, ErrRowNotFound)
	}

	var updated map[string]any
	if err := c.db.WithContext(ctx).Table(table).Where("id = ?", id.String()).Take(&updated).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("update %s %s: %w", collection, id, ErrRowNotFound)
		}
		return nil, fmt.Errorf("failed to read back updated row from %s: %w", collection, err)
	}

	c.publish(Event{Collection: collection, Type: EventUpdate, RowID: id})

	return Row(updated), nil
}

// Delete removes the identified row.
func (c *GormClient) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	table, err := c.table(collection)
	if err != nil {
		return err
	}

	res := c.db.WithContext(ctx).Table(table).Where("id = ?", id.String()).Delete(nil)
	if res.Error != nil {
		return fmt.Errorf("failed to delete from %s: %w", collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s %s: %w", collection, id, ErrRowNotFound)
	}

	c.publish(Event{Collection: collection, Type: EventDelete, RowID: id})

	return nil
}

// Subscribe registers a handler for change events on the collection.
func (c *GormClient) Subscribe(collection string, h Handler) Subscription {
	return c.notifier.Subscribe(collection, h)
}

func (c *GormClient) publish(ev Event) {
	c.notifier.publish(ev)
}

func parseRowID(id string) uuid.UUID {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
