// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/model"
)

// ListSettings handles GET /api/v1/settings, returning the full key→value
// map with defaults filled in.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.All(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, settings, nil)
}

// UpdateSetting handles PUT /api/v1/settings/{key} with last-write-wins
// semantics. Unknown keys are rejected.
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if err := h.settings.Update(r.Context(), key, req.Value); err != nil {
		writeServiceError(w, err)
		return
	}

	h.events.LogInfo(r.Context(), model.EventCategoryConfig, "setting updated", map[string]any{
		"key":   key,
		"actor": middleware.GetUserEmail(r),
	})
	WriteSuccess(w, map[string]string{"key": key, "value": req.Value}, nil)
}
