// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/foliocms/foliocms/internal/model"
)

// Key prefixes for the typed caches. Rendered page keys carry the page
// number as a suffix, so invalidation works on the prefix.
const (
	keyPrefixContent  = "content:"
	keyPrefixMenu     = "menu:"
	keyPrefixRendered = "rendered:"
	keySettings       = "settings"
)

// Manager bundles the application caches over a shared backend and owns
// invalidation. Writes to content, menus or settings go through services
// that call the matching Invalidate method.
type Manager struct {
	backend Cacher

	Content  *TypedCache[model.Content]
	Menu     *TypedCache[[]model.MenuItem]
	Settings *TypedCache[map[string]string]
}

// NewManager creates a cache manager over the given backend.
func NewManager(backend Cacher, defaultTTL time.Duration) *Manager {
	return &Manager{
		backend:  backend,
		Content:  NewTypedCache[model.Content](backend, defaultTTL),
		Menu:     NewTypedCache[[]model.MenuItem](backend, defaultTTL),
		Settings: NewTypedCache[map[string]string](backend, defaultTTL),
	}
}

// ContentKey returns the cache key for a published content item.
func ContentKey(contentType, slug string) string {
	return keyPrefixContent + contentType + ":" + slug
}

// MenuKey returns the cache key for a menu location.
func MenuKey(location string) string {
	return keyPrefixMenu + location
}

// SettingsKey returns the cache key for the settings map.
func SettingsKey() string {
	return keySettings
}

// RenderedPageKey returns the cache key for a rendered page of a content item.
func RenderedPageKey(contentType, slug string, page int) string {
	return keyPrefixRendered + contentType + ":" + slug + ":" + strconv.Itoa(page)
}

// HomeKey returns the cache key for the rendered home page. It lists
// published content, so every content write drops it.
func HomeKey() string {
	return keyPrefixRendered + "home"
}

// RenderedListKey returns the cache key for one page of a public
// per-type listing.
func RenderedListKey(contentType string, page int) string {
	return keyPrefixRendered + "list:" + contentType + ":" + strconv.Itoa(page)
}

// GetRenderedPage fetches a rendered HTML page from the cache.
func (m *Manager) GetRenderedPage(ctx context.Context, key string) ([]byte, bool) {
	data, err := m.backend.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetRenderedPage stores a rendered HTML page.
func (m *Manager) SetRenderedPage(ctx context.Context, key string, html []byte, ttl time.Duration) {
	if err := m.backend.Set(ctx, key, html, ttl); err != nil {
		slog.Warn("rendered page cache write failed", "key", key, "error", err)
	}
}

// InvalidateContent drops the cached item and all of its rendered pages.
// Call on every content write: update, publish, soft delete, restore.
func (m *Manager) InvalidateContent(ctx context.Context, contentType, slug string) {
	if err := m.backend.Delete(ctx, ContentKey(contentType, slug)); err != nil {
		slog.Warn("content cache invalidation failed", "slug", slug, "error", err)
	}
	if err := m.backend.DeleteByPrefix(ctx, keyPrefixRendered+contentType+":"+slug+":"); err != nil {
		slog.Warn("rendered page cache invalidation failed", "slug", slug, "error", err)
	}
	if err := m.backend.DeleteByPrefix(ctx, keyPrefixRendered+"list:"+contentType+":"); err != nil {
		slog.Warn("listing cache invalidation failed", "type", contentType, "error", err)
	}
	if err := m.backend.Delete(ctx, HomeKey()); err != nil {
		slog.Warn("home cache invalidation failed", "error", err)
	}
}

// InvalidateMenus drops all cached menu locations.
// The menu shell is baked into every rendered page, so rendered pages go too.
func (m *Manager) InvalidateMenus(ctx context.Context) {
	if err := m.backend.DeleteByPrefix(ctx, keyPrefixMenu); err != nil {
		slog.Warn("menu cache invalidation failed", "error", err)
	}
	if err := m.backend.DeleteByPrefix(ctx, keyPrefixRendered); err != nil {
		slog.Warn("rendered page cache invalidation failed", "error", err)
	}
}

// InvalidateSettings drops the cached settings map.
// Settings render into every page shell, so rendered pages go too.
func (m *Manager) InvalidateSettings(ctx context.Context) {
	if err := m.backend.Delete(ctx, keySettings); err != nil {
		slog.Warn("settings cache invalidation failed", "error", err)
	}
	if err := m.backend.DeleteByPrefix(ctx, keyPrefixRendered); err != nil {
		slog.Warn("rendered page cache invalidation failed", "error", err)
	}
}

// ClearAll empties the backend and resets statistics.
func (m *Manager) ClearAll(ctx context.Context) {
	if err := m.backend.Clear(ctx); err != nil {
		slog.Warn("cache clear failed", "error", err)
		return
	}
	if sp, ok := m.backend.(StatsProvider); ok {
		sp.ResetStats()
	}
	slog.Info("cache cleared")
}

// Stats returns backend statistics, or zero stats for backends that do
// not track them.
func (m *Manager) Stats() Stats {
	if sp, ok := m.backend.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{}
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
