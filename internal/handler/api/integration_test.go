// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/service"
	"github.com/foliocms/foliocms/internal/store"
)

// newTestRouter wires a full API handler onto a chi router against an
// in-memory database. Authentication middleware is not mounted; these
// tests exercise the handlers directly.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := store.Migrate(db, store.DriverSQLite); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	backend := cache.NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { backend.Close() })
	caches := cache.NewManager(backend, time.Minute)

	versions := service.NewVersionService(db)
	h := NewHandler(Deps{
		DB:       db,
		Contents: service.NewContentService(db, versions, caches),
		Versions: versions,
		Menus:    service.NewMenuService(db, caches),
		Settings: service.NewSettingsService(store.New(db), caches),
		Events:   service.NewEventService(db),
		Caches:   caches,
	})

	r := chi.NewRouter()
	h.Routes(r)
	return r
}

// do sends a JSON request through the router and returns the recorder.
func do(t *testing.T, r *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData decodes the "data" field of a success response into out.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}
}

func TestContentLifecycle(t *testing.T) {
	r := newTestRouter(t)

	// Create a draft article; the slug is derived from the title
	w := do(t, r, http.MethodPost, "/content", ContentRequest{
		Type:   model.ContentTypeArticle,
		Title:  "Hello World",
		Body:   "<p>first</p>",
		Status: model.StatusDraft,
	})
	assertStatusCode(t, w, http.StatusCreated)

	var created ContentResponse
	decodeData(t, w, &created)
	if created.Slug != "hello-world" {
		t.Errorf("slug = %q, want hello-world", created.Slug)
	}
	if created.PageCount != 1 {
		t.Errorf("page count = %d, want 1", created.PageCount)
	}

	// Fetch it back with the body
	w = do(t, r, http.MethodGet, fmt.Sprintf("/content/%d", created.ID), nil)
	assertStatusCode(t, w, http.StatusOK)
	var fetched ContentResponse
	decodeData(t, w, &fetched)
	if fetched.Body != "<p>first</p>" {
		t.Errorf("body = %q", fetched.Body)
	}

	// Update splits the body into pages and records a version
	w = do(t, r, http.MethodPut, fmt.Sprintf("/content/%d", created.ID), ContentRequest{
		Type:   model.ContentTypeArticle,
		Title:  "Hello World",
		Slug:   "hello-world",
		Body:   "<p>first</p>\n<!-- page -->\n<p>second</p>",
		Status: model.StatusDraft,
	})
	assertStatusCode(t, w, http.StatusOK)
	var updated ContentResponse
	decodeData(t, w, &updated)
	if updated.PageCount != 2 {
		t.Errorf("page count after update = %d, want 2", updated.PageCount)
	}

	// Publish
	w = do(t, r, http.MethodPost, fmt.Sprintf("/content/%d/status", created.ID),
		map[string]string{"status": model.StatusPublished})
	assertStatusCode(t, w, http.StatusOK)
	var published ContentResponse
	decodeData(t, w, &published)
	if published.Status != model.StatusPublished {
		t.Errorf("status = %q, want published", published.Status)
	}
	if published.PublishedAt == nil {
		t.Error("published_at should be set after publishing")
	}

	// Listings omit the body
	w = do(t, r, http.MethodGet, "/content?type=article", nil)
	assertStatusCode(t, w, http.StatusOK)
	var listed []ContentResponse
	decodeData(t, w, &listed)
	if len(listed) != 1 {
		t.Fatalf("listing length = %d, want 1", len(listed))
	}
	if listed[0].Body != "" {
		t.Error("listing should omit the body")
	}

	// Soft delete moves the item to the trash view
	w = do(t, r, http.MethodDelete, fmt.Sprintf("/content/%d", created.ID), nil)
	assertStatusCode(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/content/%d", created.ID), nil)
	assertStatusCode(t, w, http.StatusNotFound)

	w = do(t, r, http.MethodGet, "/content?type=article&deleted=1", nil)
	assertStatusCode(t, w, http.StatusOK)
	decodeData(t, w, &listed)
	if len(listed) != 1 || listed[0].DeletedAt == nil {
		t.Fatalf("trash listing = %+v, want one deleted row", listed)
	}

	// Restore brings it back
	w = do(t, r, http.MethodPost, fmt.Sprintf("/content/%d/restore", created.ID), nil)
	assertStatusCode(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/content/%d", created.ID), nil)
	assertStatusCode(t, w, http.StatusOK)
}

func TestContentValidation(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/content", ContentRequest{
		Type: "page", Title: "x", Status: model.StatusDraft,
	})
	assertStatusCode(t, w, http.StatusUnprocessableEntity)
	assertErrorResponse(t, w, "validation_failed")

	w = do(t, r, http.MethodPost, "/content", ContentRequest{
		Type: model.ContentTypeArticle, Status: model.StatusDraft,
	})
	assertStatusCode(t, w, http.StatusUnprocessableEntity)

	// Duplicate slug
	w = do(t, r, http.MethodPost, "/content", ContentRequest{
		Type: model.ContentTypeArticle, Title: "Taken", Status: model.StatusDraft,
	})
	assertStatusCode(t, w, http.StatusCreated)
	w = do(t, r, http.MethodPost, "/content", ContentRequest{
		Type: model.ContentTypeArticle, Title: "Other", Slug: "taken", Status: model.StatusDraft,
	})
	assertStatusCode(t, w, http.StatusUnprocessableEntity)

	w = do(t, r, http.MethodGet, "/content/99999", nil)
	assertStatusCode(t, w, http.StatusNotFound)

	w = do(t, r, http.MethodGet, "/content/abc", nil)
	assertStatusCode(t, w, http.StatusBadRequest)
}

func TestVersionEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/content", ContentRequest{
		Type: model.ContentTypeArticle, Title: "Versioned", Body: "<p>v1</p>", Status: model.StatusDraft,
	})
	assertStatusCode(t, w, http.StatusCreated)
	var created ContentResponse
	decodeData(t, w, &created)

	// Autosave adds a version without touching the live row
	w = do(t, r, http.MethodPost, fmt.Sprintf("/content/%d/autosave", created.ID),
		map[string]string{"title": "Versioned", "body": "<p>wip</p>"})
	assertStatusCode(t, w, http.StatusCreated)
	var autosaved VersionResponse
	decodeData(t, w, &autosaved)
	if !autosaved.IsAutosave {
		t.Error("autosave should be flagged as autosave")
	}

	w = do(t, r, http.MethodGet, fmt.Sprintf("/content/%d", created.ID), nil)
	var live ContentResponse
	decodeData(t, w, &live)
	if live.Body != "<p>v1</p>" {
		t.Errorf("live body changed by autosave: %q", live.Body)
	}

	// Initial version plus the autosave
	w = do(t, r, http.MethodGet, fmt.Sprintf("/content/%d/versions", created.ID), nil)
	assertStatusCode(t, w, http.StatusOK)
	var versions []VersionResponse
	decodeData(t, w, &versions)
	if len(versions) != 2 {
		t.Fatalf("version count = %d, want 2", len(versions))
	}

	// Restore the manual version (the older one)
	manual := versions[len(versions)-1]
	w = do(t, r, http.MethodPost,
		fmt.Sprintf("/content/%d/versions/%d/restore", created.ID, manual.ID), nil)
	assertStatusCode(t, w, http.StatusOK)

	// The autosave can be discarded; manual versions cannot
	w = do(t, r, http.MethodDelete,
		fmt.Sprintf("/content/%d/versions/%d", created.ID, autosaved.ID), nil)
	assertStatusCode(t, w, http.StatusOK)

	w = do(t, r, http.MethodDelete,
		fmt.Sprintf("/content/%d/versions/%d", created.ID, manual.ID), nil)
	assertStatusCode(t, w, http.StatusUnprocessableEntity)
}

func TestMenuEndpoints(t *testing.T) {
	r := newTestRouter(t)

	ids := make([]int64, 0, 2)
	for _, title := range []string{"Home", "About"} {
		w := do(t, r, http.MethodPost, "/menus", map[string]any{
			"location": model.MenuLocationTop,
			"title":    title,
			"url":      "/" + title,
			"is_active": true,
		})
		assertStatusCode(t, w, http.StatusCreated)
		var item MenuItemResponse
		decodeData(t, w, &item)
		ids = append(ids, item.ID)
	}

	w := do(t, r, http.MethodGet, "/menus/top", nil)
	assertStatusCode(t, w, http.StatusOK)
	var items []MenuItemResponse
	decodeData(t, w, &items)
	if len(items) != 2 {
		t.Fatalf("menu length = %d, want 2", len(items))
	}
	if items[0].Title != "Home" {
		t.Errorf("first item = %q, want Home", items[0].Title)
	}

	// Reorder with a short id list is rejected
	w = do(t, r, http.MethodPost, "/menus/top/reorder", map[string]any{"ids": ids[:1]})
	assertStatusCode(t, w, http.StatusUnprocessableEntity)

	// Reverse the order
	w = do(t, r, http.MethodPost, "/menus/top/reorder",
		map[string]any{"ids": []int64{ids[1], ids[0]}})
	assertStatusCode(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, "/menus/top", nil)
	decodeData(t, w, &items)
	if items[0].Title != "About" {
		t.Errorf("first item after reorder = %q, want About", items[0].Title)
	}

	// Toggle flips is_active
	w = do(t, r, http.MethodPost, fmt.Sprintf("/menus/items/%d/toggle", ids[0]), nil)
	assertStatusCode(t, w, http.StatusOK)
	var toggled MenuItemResponse
	decodeData(t, w, &toggled)
	if toggled.IsActive {
		t.Error("toggle should have deactivated the item")
	}

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/menus/items/%d", ids[1]), nil)
	assertStatusCode(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, "/menus/bogus", nil)
	assertStatusCode(t, w, http.StatusUnprocessableEntity)
}

func TestSettingsEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/settings", nil)
	assertStatusCode(t, w, http.StatusOK)
	var settings map[string]string
	decodeData(t, w, &settings)
	if settings[model.SettingSiteTitle] == "" {
		t.Error("settings should include the default site title")
	}

	w = do(t, r, http.MethodPut, "/settings/"+model.SettingSiteTitle,
		map[string]string{"value": "My Site"})
	assertStatusCode(t, w, http.StatusOK)

	w = do(t, r, http.MethodGet, "/settings", nil)
	decodeData(t, w, &settings)
	if settings[model.SettingSiteTitle] != "My Site" {
		t.Errorf("site title = %q, want My Site", settings[model.SettingSiteTitle])
	}

	w = do(t, r, http.MethodPut, "/settings/nonsense", map[string]string{"value": "x"})
	assertStatusCode(t, w, http.StatusUnprocessableEntity)
}

func TestEventsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/content", ContentRequest{
		Type: model.ContentTypeArticle, Title: "Logged", Status: model.StatusDraft,
	})
	assertStatusCode(t, w, http.StatusCreated)

	w = do(t, r, http.MethodGet, "/events", nil)
	assertStatusCode(t, w, http.StatusOK)
	var events []EventResponse
	decodeData(t, w, &events)
	if len(events) == 0 {
		t.Fatal("expected at least one event after creating content")
	}
	if events[0].Category != model.EventCategoryContent {
		t.Errorf("category = %q, want content", events[0].Category)
	}
}

func TestCacheEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/cache/stats", nil)
	assertStatusCode(t, w, http.StatusOK)

	w = do(t, r, http.MethodPost, "/cache/clear", nil)
	assertStatusCode(t, w, http.StatusOK)
}
