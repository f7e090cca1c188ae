// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON admin API.
package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/convert"
	"github.com/foliocms/foliocms/internal/imaging"
	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/service"
	"github.com/foliocms/foliocms/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db       *sql.DB
	queries  *store.Queries
	contents *service.ContentService
	versions *service.VersionService
	menus    *service.MenuService
	settings *service.SettingsService
	events   *service.EventService
	caches   *cache.Manager

	converter *convert.Converter
	images    *imaging.Processor

	sessions   *scs.SessionManager
	loginGuard *middleware.LoginProtection
}

// Deps bundles the dependencies of the API handler.
type Deps struct {
	DB         *sql.DB
	Contents   *service.ContentService
	Versions   *service.VersionService
	Menus      *service.MenuService
	Settings   *service.SettingsService
	Events     *service.EventService
	Caches     *cache.Manager
	Converter  *convert.Converter
	Images     *imaging.Processor
	Sessions   *scs.SessionManager
	LoginGuard *middleware.LoginProtection
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		db:         d.DB,
		queries:    store.New(d.DB),
		contents:   d.Contents,
		versions:   d.Versions,
		menus:      d.Menus,
		settings:   d.Settings,
		events:     d.Events,
		caches:     d.Caches,
		converter:  d.Converter,
		images:     d.Images,
		sessions:   d.Sessions,
		loginGuard: d.LoginGuard,
	}
}

// Routes mounts the authenticated admin API routes. Login and logout are
// mounted separately so login stays reachable without a session.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/content", func(r chi.Router) {
		r.Get("/", h.ListContent)
		r.Post("/", h.CreateContent)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetContent)
			r.Put("/", h.UpdateContent)
			r.Delete("/", h.DeleteContent)
			r.Post("/restore", h.RestoreContent)
			r.Post("/status", h.SetContentStatus)
			r.Post("/autosave", h.AutosaveContent)
			r.Get("/versions", h.ListVersions)
			r.Post("/versions/{versionID}/restore", h.RestoreVersion)
			r.Delete("/versions/{versionID}", h.DeleteAutosaveVersion)
			r.Get("/attachments", h.ListAttachments)
			r.Post("/attachments", h.UploadAttachment)
		})
	})
	r.Delete("/attachments/{id}", h.DeleteAttachment)

	r.Route("/menus", func(r chi.Router) {
		r.Get("/{location}", h.ListMenuItems)
		r.Post("/", h.CreateMenuItem)
		r.Post("/{location}/reorder", h.ReorderMenu)
		r.Post("/items/{id}/toggle", h.ToggleMenuItem)
		r.Delete("/items/{id}", h.DeleteMenuItem)
	})

	r.Get("/settings", h.ListSettings)
	r.Put("/settings/{key}", h.UpdateSetting)

	r.Post("/import", h.ImportDocument)

	r.Get("/events", h.ListEvents)

	r.Get("/cache/stats", h.CacheStats)
	r.Post("/cache/clear", h.ClearCache)
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Page    int `json:"page,omitempty"`
	PerPage int `json:"per_page,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteValidationError writes a 422 Unprocessable Entity response.
func WriteValidationError(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_failed", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// urlID parses a numeric chi URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// parsePagination reads page/per_page query parameters with bounds.
func parsePagination(r *http.Request, defaultPerPage, maxPerPage int) (page, perPage int) {
	page = 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	perPage = defaultPerPage
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		perPage = v
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
