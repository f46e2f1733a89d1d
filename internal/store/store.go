package store

import (
	"context"
	"errors"
	"strings"

	"item-catalog/internal/models"
)

var (
	// ErrNotFound is returned when no item matches the lookup.
	ErrNotFound = errors.New("item not found")
	// ErrMultipleItems is returned by GetByName when the name is ambiguous.
	ErrMultipleItems = errors.New("more than one item matches")
)

// ItemStore persists items. Implementations must be safe for concurrent use.
type ItemStore interface {
	Create(ctx context.Context, it *models.Item) error
	Save(ctx context.Context, it *models.Item) error
	Get(ctx context.Context, id int64) (models.Item, error)
	GetByName(ctx context.Context, name string) (models.Item, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, opts ListOptions) ([]models.Item, int, error)
	Close() error
}

// ListOptions narrows and orders a List call. A zero Limit means no limit.
type ListOptions struct {
	Query  string
	Sort   string
	Limit  int
	Offset int
}

type sortKey struct {
	field string
	desc  bool
}

var sortable = map[string]bool{
	"id":         true,
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

// parseSort turns "name,-id" into sort keys, dropping fields that are not
// whitelisted. It defaults to id ascending.
func parseSort(sortParam string) []sortKey {
	keys := []sortKey{}
	for _, raw := range strings.Split(sortParam, ",") {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		desc := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")
		if !sortable[s] {
			continue
		}
		keys = append(keys, sortKey{field: s, desc: desc})
	}
	if len(keys) == 0 {
		keys = append(keys, sortKey{field: "id"})
	}
	return keys
}

// Transactor is implemented by stores that can scope a unit of work to a
// single transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ItemStore) error) error
}
