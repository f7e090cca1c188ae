// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/service"
)

func urlLocation(r *http.Request) string {
	return chi.URLParam(r, "location")
}

// MenuItemResponse represents a menu item in API responses.
type MenuItemResponse struct {
	ID        int64     `json:"id"`
	Location  string    `json:"location"`
	ContentID *int64    `json:"content_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url,omitempty"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func menuItemToResponse(item model.MenuItem) MenuItemResponse {
	resp := MenuItemResponse{
		ID:        item.ID,
		Location:  item.Location,
		SortOrder: item.SortOrder,
		IsActive:  item.IsActive,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if item.ContentID.Valid {
		resp.ContentID = &item.ContentID.Int64
	}
	if item.Title.Valid {
		resp.Title = item.Title.String
	}
	if item.URL.Valid {
		resp.URL = item.URL.String
	}
	return resp
}

// ListMenuItems handles GET /api/v1/menus/{location}.
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	location := urlLocation(r)

	items, err := h.menus.List(r.Context(), location)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, menuItemToResponse(item))
	}
	WriteSuccess(w, responses, nil)
}

// CreateMenuItem handles POST /api/v1/menus.
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Location  string `json:"location"`
		ContentID *int64 `json:"content_id,omitempty"`
		Title     string `json:"title,omitempty"`
		URL       string `json:"url,omitempty"`
		IsActive  bool   `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	item, err := h.menus.Create(r.Context(), service.MenuItemInput{
		Location:  req.Location,
		ContentID: req.ContentID,
		Title:     req.Title,
		URL:       req.URL,
		IsActive:  req.IsActive,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteCreated(w, menuItemToResponse(item))
}

// ReorderMenu handles POST /api/v1/menus/{location}/reorder. The id list
// must cover the location exactly; the new order is applied in one
// transaction or not at all.
func (h *Handler) ReorderMenu(w http.ResponseWriter, r *http.Request) {
	location := urlLocation(r)

	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if err := h.menus.Reorder(r.Context(), location, req.IDs); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]any{"reordered": true}, nil)
}

// ToggleMenuItem handles POST /api/v1/menus/items/{id}/toggle.
func (h *Handler) ToggleMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid menu item ID", nil)
		return
	}

	item, err := h.menus.ToggleActive(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, menuItemToResponse(item), nil)
}

// DeleteMenuItem handles DELETE /api/v1/menus/items/{id}.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid menu item ID", nil)
		return
	}

	if err := h.menus.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]any{"deleted": true}, nil)
}
