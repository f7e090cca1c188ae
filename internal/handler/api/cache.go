// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/model"
)

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.caches.Stats()
	WriteSuccess(w, stats, nil)
}

// ClearCache handles POST /api/v1/cache/clear, emptying every cache.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.caches.ClearAll(r.Context())

	h.events.LogInfo(r.Context(), model.EventCategoryCache, "cache cleared", map[string]any{
		"actor": middleware.GetUserEmail(r),
	})
	WriteSuccess(w, map[string]any{"cleared": true}, nil)
}
