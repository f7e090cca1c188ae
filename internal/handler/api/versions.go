// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/model"
)

// VersionResponse represents a content version in API responses.
type VersionResponse struct {
	ID            int64     `json:"id"`
	ContentID     int64     `json:"content_id"`
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title"`
	Body          string    `json:"body,omitempty"`
	IsAutosave    bool      `json:"is_autosave"`
	CreatedAt     time.Time `json:"created_at"`
}

func versionToResponse(v model.Version, withBody bool) VersionResponse {
	resp := VersionResponse{
		ID:            v.ID,
		ContentID:     v.ContentID,
		VersionNumber: v.VersionNumber,
		Title:         v.Title,
		IsAutosave:    v.IsAutosave,
		CreatedAt:     v.CreatedAt,
	}
	if withBody {
		resp.Body = v.Body
	}
	return resp
}

// ListVersions handles GET /api/v1/content/{id}/versions, newest first.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	versions, err := h.versions.List(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		responses = append(responses, versionToResponse(v, false))
	}
	WriteSuccess(w, responses, nil)
}

// RestoreVersion handles POST /api/v1/content/{id}/versions/{versionID}/restore.
// The pre-restore state is snapshotted as a new manual version first.
func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	contentID, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}
	versionID, err := urlID(r, "versionID")
	if err != nil {
		WriteBadRequest(w, "Invalid version ID", nil)
		return
	}

	item, err := h.contents.RestoreVersion(r.Context(), contentID, versionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.events.LogInfo(r.Context(), model.EventCategoryContent, "content version restored", map[string]any{
		"content_id": contentID,
		"version_id": versionID,
		"actor":      middleware.GetUserEmail(r),
	})
	WriteSuccess(w, contentToResponse(item, true), nil)
}

// DeleteAutosaveVersion handles DELETE /api/v1/content/{id}/versions/{versionID}.
// Manual versions are rejected.
func (h *Handler) DeleteAutosaveVersion(w http.ResponseWriter, r *http.Request) {
	contentID, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}
	versionID, err := urlID(r, "versionID")
	if err != nil {
		WriteBadRequest(w, "Invalid version ID", nil)
		return
	}

	if err := h.versions.DeleteAutosave(r.Context(), contentID, versionID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]any{"deleted": true}, nil)
}
