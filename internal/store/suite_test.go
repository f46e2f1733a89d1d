package store

import (
	"context"
	"testing"

	"item-catalog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runItemStoreSuite exercises the ItemStore contract. newStore must return
// an empty store.
func runItemStoreSuite(t *testing.T, newStore func(t *testing.T) ItemStore) {
	ctx := context.Background()

	setup := func(t *testing.T) (ItemStore, *models.Item) {
		s := newStore(t)
		it := &models.Item{Name: "Test Item", Description: "This is a test item."}
		require.NoError(t, s.Create(ctx, it))
		return s, it
	}

	t.Run("create increases count by one", func(t *testing.T) {
		s, _ := setup(t)
		before, err := s.Count(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Create(ctx, &models.Item{Name: "New Item", Description: "This is a new item."}))

		after, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+1, after)
	})

	t.Run("direct create skips name validation", func(t *testing.T) {
		s, _ := setup(t)
		before, err := s.Count(ctx)
		require.NoError(t, err)

		blank := &models.Item{Name: ""}
		require.NoError(t, s.Create(ctx, blank))

		after, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+1, after)

		got, err := s.Get(ctx, blank.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Name)
	})

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		s, it := setup(t)
		assert.Positive(t, it.ID)
		assert.False(t, it.CreatedAt.IsZero())

		other := &models.Item{Name: "Other"}
		require.NoError(t, s.Create(ctx, other))
		assert.NotEqual(t, it.ID, other.ID)
	})

	t.Run("retrieve by name", func(t *testing.T) {
		s, _ := setup(t)
		got, err := s.GetByName(ctx, "Test Item")
		require.NoError(t, err)
		assert.Equal(t, "This is a test item.", got.Description)
	})

	t.Run("get by name missing and ambiguous", func(t *testing.T) {
		s, _ := setup(t)
		_, err := s.GetByName(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Create(ctx, &models.Item{Name: "Test Item"}))
		_, err = s.GetByName(ctx, "Test Item")
		assert.ErrorIs(t, err, ErrMultipleItems)
	})

	t.Run("update persists on reload", func(t *testing.T) {
		s, it := setup(t)
		it.Name = "Updated Item"
		it.Description = "This item has been updated."
		require.NoError(t, s.Save(ctx, it))

		got, err := s.Get(ctx, it.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated Item", got.Name)
		assert.Equal(t, "This item has been updated.", got.Description)
	})

	t.Run("save missing item", func(t *testing.T) {
		s, it := setup(t)
		err := s.Save(ctx, &models.Item{ID: it.ID + 1000, Name: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete decreases count by one", func(t *testing.T) {
		s, it := setup(t)
		before, err := s.Count(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, it.ID))

		after, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before-1, after)

		_, err = s.Get(ctx, it.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, it.ID), ErrNotFound)
	})

	t.Run("list filters sorts and pages", func(t *testing.T) {
		s, _ := setup(t)
		for _, n := range []string{"Bravo", "Alpha", "Charlie"} {
			require.NoError(t, s.Create(ctx, &models.Item{Name: n, Description: "phonetic"}))
		}

		all, total, err := s.List(ctx, ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, all, 4)
		assert.Equal(t, "Test Item", all[0].Name)

		byName, total, err := s.List(ctx, ListOptions{Query: "PHONETIC", Sort: "-name"})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, byName, 3)
		assert.Equal(t, []string{"Charlie", "Bravo", "Alpha"}, names(byName))

		page, total, err := s.List(ctx, ListOptions{Sort: "name", Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, []string{"Bravo", "Charlie"}, names(page))

		empty, total, err := s.List(ctx, ListOptions{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, empty)
		assert.Equal(t, 4, total)
	})

	t.Run("query matches wildcard characters literally", func(t *testing.T) {
		s, _ := setup(t)
		for _, n := range []string{"snake_case", "100% cotton", `back\slash`} {
			require.NoError(t, s.Create(ctx, &models.Item{Name: n}))
		}

		for q, want := range map[string]string{
			"_":  "snake_case",
			"%":  "100% cotton",
			`\`: `back\slash`,
		} {
			got, total, err := s.List(ctx, ListOptions{Query: q})
			require.NoError(t, err)
			assert.Equal(t, 1, total, "query %q", q)
			assert.Equal(t, []string{want}, names(got), "query %q", q)
		}
	})
}

func names(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
