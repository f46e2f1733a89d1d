package internal

import (
	"errors"
	"net/http"
	"strconv"

	"item-catalog/internal/models"
	"item-catalog/internal/store"

	"github.com/go-chi/chi/v5"
)

const (
	itemListTemplate = "items/item_list.html"
	itemFormTemplate = "items/item_form.html"
)

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := s.Renderer.Render(w, status, name, data); err != nil {
		s.serverError(w, r, err)
	}
}

// itemFromURL loads the item named by the {id} URL parameter. It writes a
// 404 and returns false when the id is malformed or unknown.
func (s *Server) itemFromURL(w http.ResponseWriter, r *http.Request) (models.Item, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return models.Item{}, false
	}
	it, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return models.Item{}, false
	}
	if err != nil {
		s.serverError(w, r, err)
		return models.Item{}, false
	}
	return it, true
}

func (s *Server) itemListView(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	items, total, err := s.Store.List(r.Context(), store.ListOptions{Query: params.q, Sort: params.sort})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, itemListTemplate, map[string]any{
		"items": items,
		"total": total,
		"query": params.q,
	})
}

func (s *Server) itemCreateView(w http.ResponseWriter, r *http.Request) {
	action := mustURLFor(RouteItemCreate)
	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, itemFormTemplate, map[string]any{
			"form":   models.NewItemForm(nil),
			"action": action,
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	form := models.ItemFormFromValues(r.PostForm)
	if !form.IsValid() {
		s.render(w, r, http.StatusOK, itemFormTemplate, map[string]any{
			"form":   form,
			"action": action,
		})
		return
	}

	var it models.Item
	form.Apply(&it)
	if err := s.Store.Create(r.Context(), &it); err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, mustURLFor(RouteItemList), http.StatusFound)
}

func (s *Server) itemUpdateView(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itemFromURL(w, r)
	if !ok {
		return
	}
	action := mustURLFor(RouteItemUpdate, it.ID)

	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, itemFormTemplate, map[string]any{
			"form":   models.ItemFormFromItem(it),
			"item":   &it,
			"action": action,
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	form := models.ItemFormFromValues(r.PostForm)
	if !form.IsValid() {
		s.render(w, r, http.StatusOK, itemFormTemplate, map[string]any{
			"form":   form,
			"item":   &it,
			"action": action,
		})
		return
	}

	form.Apply(&it)
	err := s.Store.Save(r.Context(), &it)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, mustURLFor(RouteItemList), http.StatusFound)
}

// itemDeleteView has no confirmation page: GET redirects to the list and
// POST removes the item.
func (s *Server) itemDeleteView(w http.ResponseWriter, r *http.Request) {
	it, ok := s.itemFromURL(w, r)
	if !ok {
		return
	}
	list := mustURLFor(RouteItemList)

	if r.Method != http.MethodPost {
		http.Redirect(w, r, list, http.StatusFound)
		return
	}

	err := s.Store.Delete(r.Context(), it.ID)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, list, http.StatusFound)
}
