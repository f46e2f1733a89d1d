package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"item-catalog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) jsonRequest(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func itemPath(id int64) string {
	return "/api/items/" + strconv.FormatInt(id, 10)
}

func TestListItemsAPI(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, name := range []string{"Bravo", "Alpha", "Charlie"} {
		require.NoError(t, env.store.Create(ctx, &models.Item{Name: name}))
	}

	t.Run("envelope with meta", func(t *testing.T) {
		w := env.get("/api/items")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp struct {
			Data []models.Item `json:"data"`
			Meta listMeta      `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 4)
		assert.Equal(t, listMeta{Total: 4, Limit: 50, Offset: 0}, resp.Meta)
	})

	t.Run("sort and page", func(t *testing.T) {
		w := env.get("/api/items?sort=name&limit=2&offset=1")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []models.Item `json:"data"`
			Meta listMeta      `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "Bravo", resp.Data[0].Name)
		assert.Equal(t, "Charlie", resp.Data[1].Name)
		assert.Equal(t, 4, resp.Meta.Total)
	})

	t.Run("limit is capped", func(t *testing.T) {
		w := env.get("/api/items?limit=1000")
		var resp struct {
			Meta listMeta `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 200, resp.Meta.Limit)
	})
}

func TestGetItemAPI(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(itemPath(env.item.ID))
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Test Item", got.Name)
	assert.Equal(t, "This is a test item.", got.Description)

	assert.Equal(t, http.StatusNotFound, env.get(itemPath(9999)).Code)
	assert.Equal(t, http.StatusBadRequest, env.get("/api/items/abc").Code)
}

func TestCreateItemAPI(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.jsonRequest(http.MethodPost, "/api/items", map[string]string{
			"name":        "New Item",
			"description": "This is a new item.",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		var got models.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.NotZero(t, got.ID)
		assert.Equal(t, itemPath(got.ID), w.Header().Get("Location"))
		assert.Equal(t, 2, env.count(t))
	})

	t.Run("validation errors", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.jsonRequest(http.MethodPost, "/api/items", map[string]string{
			"name":        "",
			"description": "This is a new item.",
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp validationErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "This field is required.", resp.Fields["name"])
		assert.Equal(t, 1, env.count(t))
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodPost, "/api/items", bytes.NewBufferString("{"))
		assert.Equal(t, http.StatusBadRequest, env.do(req).Code)
	})
}

func TestUpdateItemAPI(t *testing.T) {
	t.Run("partial update keeps other fields", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.jsonRequest(http.MethodPut, itemPath(env.item.ID), map[string]string{"name": "Updated Item"})

		require.Equal(t, http.StatusOK, w.Code)
		got, err := env.store.Get(context.Background(), env.item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated Item", got.Name)
		assert.Equal(t, "This is a test item.", got.Description)
	})

	t.Run("empty body", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.jsonRequest(http.MethodPut, itemPath(env.item.ID), map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.jsonRequest(http.MethodPut, itemPath(env.item.ID), map[string]string{"name": " "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown item", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.jsonRequest(http.MethodPut, itemPath(9999), map[string]string{"name": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteItemAPI(t *testing.T) {
	env := newTestEnv(t)

	w := env.jsonRequest(http.MethodDelete, itemPath(env.item.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, env.count(t))

	w = env.jsonRequest(http.MethodDelete, itemPath(env.item.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
