package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"item-catalog/internal/models"
	"item-catalog/internal/store"

	"github.com/go-chi/chi/v5"
)

// itemInput is the JSON body for create and update. Nil fields are left
// unchanged on update.
type itemInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type validationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (in itemInput) form(base models.Item) *models.ItemForm {
	data := map[string]string{"name": base.Name, "description": base.Description}
	if in.Name != nil {
		data["name"] = *in.Name
	}
	if in.Description != nil {
		data["description"] = *in.Description
	}
	return models.NewItemForm(data)
}

func apiItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// LIST with search, sorting & pagination
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	items, total, err := s.Store.List(r.Context(), store.ListOptions{
		Query:  params.q,
		Sort:   params.sort,
		Limit:  params.limit,
		Offset: params.offset,
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	sendListResponse(w, items, total, params)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := apiItemID(w, r)
	if !ok {
		return
	}
	it, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var in itemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	form := in.form(models.Item{})
	if !form.IsValid() {
		writeJSON(w, http.StatusBadRequest, validationErrorResponse{Error: "validation failed", Fields: form.Errors})
		return
	}

	var it models.Item
	form.Apply(&it)
	if err := s.Store.Create(r.Context(), &it); err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/items/"+strconv.FormatInt(it.ID, 10))
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := apiItemID(w, r)
	if !ok {
		return
	}

	var in itemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if in.Name == nil && in.Description == nil {
		http.Error(w, "no fields to update", http.StatusBadRequest)
		return
	}

	it, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	form := in.form(it)
	if !form.IsValid() {
		writeJSON(w, http.StatusBadRequest, validationErrorResponse{Error: "validation failed", Fields: form.Errors})
		return
	}
	form.Apply(&it)

	err = s.Store.Save(r.Context(), &it)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := apiItemID(w, r)
	if !ok {
		return
	}
	err := s.Store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
