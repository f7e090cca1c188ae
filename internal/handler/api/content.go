// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/service"
	"github.com/foliocms/foliocms/internal/store"
)

// ContentResponse represents a content item in API responses.
type ContentResponse struct {
	ID          int64      `json:"id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Author      string     `json:"author,omitempty"`
	Body        string     `json:"body,omitempty"`
	Status      string     `json:"status"`
	PageCount   int        `json:"page_count"`
	SortOrder   int        `json:"sort_order"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ContentRequest is the request body for creating or updating content.
type ContentRequest struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug,omitempty"`
	Author      string     `json:"author,omitempty"`
	Body        string     `json:"body"`
	Status      string     `json:"status"`
	SortOrder   int        `json:"sort_order"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

func (req ContentRequest) toInput() service.ContentInput {
	return service.ContentInput{
		Type:        req.Type,
		Title:       req.Title,
		Slug:        req.Slug,
		Author:      req.Author,
		Body:        req.Body,
		Status:      req.Status,
		SortOrder:   req.SortOrder,
		ScheduledAt: req.ScheduledAt,
	}
}

// contentToResponse converts a model.Content to its API shape. The body is
// omitted in listings.
func contentToResponse(c model.Content, withBody bool) ContentResponse {
	resp := ContentResponse{
		ID:        c.ID,
		Type:      c.Type,
		Title:     c.Title,
		Slug:      c.Slug,
		Author:    c.Author,
		Status:    c.Status,
		PageCount: c.PageCount,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if withBody {
		resp.Body = c.Body
	}
	if c.PublishedAt.Valid {
		resp.PublishedAt = &c.PublishedAt.Time
	}
	if c.ScheduledAt.Valid {
		resp.ScheduledAt = &c.ScheduledAt.Time
	}
	if c.DeletedAt.Valid {
		resp.DeletedAt = &c.DeletedAt.Time
	}
	return resp
}

// writeServiceError maps service errors onto API error responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrContentNotFound),
		errors.Is(err, service.ErrVersionNotFound),
		errors.Is(err, service.ErrMenuItemNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, service.ErrInvalidContentType),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrEmptyTitle),
		errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrInvalidSlug),
		errors.Is(err, service.ErrNotDeleted),
		errors.Is(err, service.ErrNotAutosave),
		errors.Is(err, service.ErrInvalidMenuLocation),
		errors.Is(err, service.ErrMenuItemInvalid),
		errors.Is(err, service.ErrReorderMismatch),
		errors.Is(err, service.ErrUnknownSetting):
		WriteValidationError(w, err.Error(), nil)
	case errors.Is(err, service.ErrVersionConflict):
		WriteError(w, http.StatusServiceUnavailable, "conflict", "Concurrent save conflict, please retry", nil)
	default:
		slog.Error("admin API request failed", "error", err)
		WriteInternalError(w, "Request failed")
	}
}

// ListContent handles GET /api/v1/content.
// ?type filters by content type; ?deleted=1 switches to the trash view.
func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r, 20, 100)

	items, err := h.contents.List(r.Context(), store.ListContentParams{
		Type:           r.URL.Query().Get("type"),
		IncludeDeleted: r.URL.Query().Get("deleted") == "1",
		Limit:          int64(perPage),
		Offset:         int64((page - 1) * perPage),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]ContentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, contentToResponse(item, false))
	}
	WriteSuccess(w, responses, &Meta{Page: page, PerPage: perPage})
}

// GetContent handles GET /api/v1/content/{id}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	item, err := h.contents.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, contentToResponse(item, true), nil)
}

// CreateContent handles POST /api/v1/content.
func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	item, err := h.contents.Create(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.events.LogInfo(r.Context(), model.EventCategoryContent, "content created", map[string]any{
		"id":    item.ID,
		"type":  item.Type,
		"slug":  item.Slug,
		"actor": middleware.GetUserEmail(r),
	})
	WriteCreated(w, contentToResponse(item, true))
}

// UpdateContent handles PUT /api/v1/content/{id}. Every explicit save
// records a manual version of the previous state.
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	item, err := h.contents.Update(r.Context(), id, req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, contentToResponse(item, true), nil)
}

// SetContentStatus handles POST /api/v1/content/{id}/status.
func (h *Handler) SetContentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	item, err := h.contents.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.events.LogInfo(r.Context(), model.EventCategoryContent, "content status changed", map[string]any{
		"id":     item.ID,
		"status": item.Status,
		"actor":  middleware.GetUserEmail(r),
	})
	WriteSuccess(w, contentToResponse(item, true), nil)
}

// DeleteContent handles DELETE /api/v1/content/{id} with a soft delete.
func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	if err := h.contents.SoftDelete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	h.events.LogInfo(r.Context(), model.EventCategoryContent, "content deleted", map[string]any{
		"id":    id,
		"actor": middleware.GetUserEmail(r),
	})
	WriteSuccess(w, map[string]any{"deleted": true}, nil)
}

// RestoreContent handles POST /api/v1/content/{id}/restore, undoing a
// soft delete.
func (h *Handler) RestoreContent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	item, err := h.contents.RestoreDeleted(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, contentToResponse(item, true), nil)
}

// AutosaveContent handles POST /api/v1/content/{id}/autosave. Only a
// version row is written; the live content stays untouched.
func (h *Handler) AutosaveContent(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	version, err := h.contents.Autosave(r.Context(), id, req.Title, req.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteCreated(w, versionToResponse(version, false))
}
