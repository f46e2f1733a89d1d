package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"item-catalog/internal/models"
)

// MemoryStore keeps items in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]models.Item
	nextID int64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[int64]models.Item),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Create(_ context.Context, it *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	it.ID = m.nextID
	it.CreatedAt = now
	it.UpdatedAt = now
	m.items[it.ID] = *it
	m.nextID++
	return nil
}

func (m *MemoryStore) Save(_ context.Context, it *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.items[it.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = it.Name
	cur.Description = it.Description
	cur.UpdatedAt = m.now()
	m.items[it.ID] = cur
	*it = cur
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return models.Item{}, ErrNotFound
	}
	return it, nil
}

func (m *MemoryStore) GetByName(_ context.Context, name string) (models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []models.Item
	for _, it := range m.items {
		if it.Name == name {
			found = append(found, it)
		}
	}
	switch len(found) {
	case 0:
		return models.Item{}, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return models.Item{}, ErrMultipleItems
	}
}

func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]models.Item, int, error) {
	m.mu.RLock()
	matched := make([]models.Item, 0, len(m.items))
	q := strings.ToLower(strings.TrimSpace(opts.Query))
	for _, it := range m.items {
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) {
			continue
		}
		matched = append(matched, it)
	}
	m.mu.RUnlock()

	keys := parseSort(opts.Sort)
	sort.SliceStable(matched, func(i, j int) bool {
		for _, k := range keys {
			c := compareField(matched[i], matched[j], k.field)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, total, nil
}

func (m *MemoryStore) Close() error { return nil }

func compareField(a, b models.Item, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}
}
