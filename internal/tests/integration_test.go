//go:build integration

package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"item-catalog/internal"
	"item-catalog/internal/config"
	"item-catalog/internal/models"
	"item-catalog/internal/store"
	"item-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/zap/zaptest"
)

// newServer returns a server over a freshly migrated postgres schema.
func newServer(t *testing.T) (*internal.Server, store.ItemStore) {
	t.Helper()
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	testutil.ResetSchema(t, db)
	st := store.NewPostgresStore(db)

	cfg := &config.Config{
		Environment: "test",
		StoreDriver: store.DriverPostgres,
		JWTIssuer:   "item-catalog",
		JWTAudience: "item-catalog",
	}
	srv, err := internal.NewServer(st, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return srv, st
}

func serve(srv *internal.Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func postForm(srv *internal.Server, path string, data url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(data.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(srv, req)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newServer(t)

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/dbping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "db: ok", w.Body.String())
}

func TestItemViewsAgainstPostgres(t *testing.T) {
	srv, st := newServer(t)
	ctx := context.Background()

	it := &models.Item{Name: "Test Item", Description: "This is a test item."}
	require.NoError(t, st.Create(ctx, it))

	edit, err := internal.URLFor(internal.RouteItemUpdate, it.ID)
	require.NoError(t, err)
	del, err := internal.URLFor(internal.RouteItemDelete, it.ID)
	require.NoError(t, err)

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/items/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Test Item")

	w = postForm(srv, edit, url.Values{
		"name":        {"Updated Item"},
		"description": {"This item has been updated."},
	})
	require.Equal(t, http.StatusFound, w.Code)

	got, err := st.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Item", got.Name)
	assert.Equal(t, "This item has been updated.", got.Description)

	w = serve(srv, httptest.NewRequest(http.MethodGet, del, nil))
	assert.Equal(t, http.StatusFound, w.Code)

	before, err := st.Count(ctx)
	require.NoError(t, err)
	w = postForm(srv, del, nil)
	require.Equal(t, http.StatusFound, w.Code)
	after, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before-1, after)
}

func TestItemAPIAgainstPostgres(t *testing.T) {
	srv, _ := newServer(t)

	body, _ := json.Marshal(map[string]string{"name": "New Item", "description": "This is a new item."})
	req := httptest.NewRequest(http.MethodPost, "/api/items", bytes.NewReader(body))
	w := serve(srv, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.False(t, created.CreatedAt.IsZero())

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/items?q=new&sort=-name", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.Item `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Meta.Total)
	assert.Equal(t, created.ID, list.Data[0].ID)

	path := "/api/items/" + strconv.FormatInt(created.ID, 10)
	w = serve(srv, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExcelImportAgainstPostgres(t *testing.T) {
	srv, st := newServer(t)
	ctx := context.Background()
	require.NoError(t, st.Create(ctx, &models.Item{Name: "Chair", Description: "old"}))

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Items")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"Name", "Description"},
		{"Chair", "Oak, four legs"},
		{"Table", "Round"},
		{"", "no name"},
	} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	var wb bytes.Buffer
	require.NoError(t, f.Write(&wb))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "items.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(wb.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports/excel", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(srv, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	chair, err := st.GetByName(ctx, "Chair")
	require.NoError(t, err)
	assert.Equal(t, "Oak, four legs", chair.Description)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
