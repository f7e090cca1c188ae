// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/render"
	"github.com/foliocms/foliocms/internal/service"
	"github.com/foliocms/foliocms/internal/store"
	"github.com/foliocms/foliocms/web"
)

func setupFrontend(t *testing.T) (*chi.Mux, *service.ContentService) {
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
	contents := service.NewContentService(db, versions, caches)
	menus := service.NewMenuService(db, caches)
	settings := service.NewSettingsService(store.New(db), caches)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("locating templates: %v", err)
	}
	renderer, err := render.New(render.Config{TemplatesFS: templatesFS})
	if err != nil {
		t.Fatalf("parsing templates: %v", err)
	}

	frontend := NewFrontend(renderer, contents, menus, settings, caches)
	r := chi.NewRouter()
	r.Get("/", frontend.Home)
	r.Get("/articles", frontend.Articles)
	r.Get("/photobooks", frontend.Photobooks)
	r.Get("/article/{slug}", frontend.Article)
	r.Get("/photobook/{slug}", frontend.Photobook)
	r.NotFound(frontend.NotFound)
	return r, contents
}

func publishArticle(t *testing.T, contents *service.ContentService, title, body string) model.Content {
	t.Helper()
	item, err := contents.Create(context.Background(), service.ContentInput{
		Type:   model.ContentTypeArticle,
		Title:  title,
		Body:   body,
		Status: model.StatusPublished,
	})
	if err != nil {
		t.Fatalf("creating article: %v", err)
	}
	return item
}

func get(t *testing.T, r *chi.Mux, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHomeListsPublishedContent(t *testing.T) {
	r, contents := setupFrontend(t)
	publishArticle(t, contents, "Visible Article", "<p>hello</p>")

	w := get(t, r, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Visible Article") {
		t.Error("home page should list the published article")
	}
}

func TestArticlePagination(t *testing.T) {
	r, contents := setupFrontend(t)
	item := publishArticle(t, contents, "Paged",
		"<p>one</p>\n<!-- page -->\n<p>two</p>")

	w := get(t, r, "/article/"+item.Slug)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "one") || strings.Contains(body, "two") {
		t.Error("page 1 should show only the first fragment")
	}

	w = get(t, r, "/article/"+item.Slug+"?page=2")
	if w.Code != http.StatusOK {
		t.Fatalf("page 2 status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "two") {
		t.Error("page 2 should show the second fragment")
	}

	// Out of range pages are a 404, bad values fall back to page 1
	if w := get(t, r, "/article/"+item.Slug+"?page=3"); w.Code != http.StatusNotFound {
		t.Errorf("page 3 status = %d, want 404", w.Code)
	}
	if w := get(t, r, "/article/"+item.Slug+"?page=zap"); w.Code != http.StatusOK {
		t.Errorf("garbage page status = %d, want 200", w.Code)
	}
}

func TestUnpublishedContentIsHidden(t *testing.T) {
	r, contents := setupFrontend(t)

	draft, err := contents.Create(context.Background(), service.ContentInput{
		Type:   model.ContentTypeArticle,
		Title:  "Draft Only",
		Body:   "<p>secret</p>",
		Status: model.StatusDraft,
	})
	if err != nil {
		t.Fatalf("creating draft: %v", err)
	}

	if w := get(t, r, "/article/"+draft.Slug); w.Code != http.StatusNotFound {
		t.Errorf("draft status = %d, want 404", w.Code)
	}
	if w := get(t, r, "/article/no-such-slug"); w.Code != http.StatusNotFound {
		t.Errorf("missing slug status = %d, want 404", w.Code)
	}
	if w := get(t, r, "/photobook/"+draft.Slug); w.Code != http.StatusNotFound {
		t.Errorf("wrong type status = %d, want 404", w.Code)
	}
}

func TestHomeCacheInvalidatedByCreate(t *testing.T) {
	r, contents := setupFrontend(t)
	publishArticle(t, contents, "First", "<p>one</p>")

	// Prime the cached home render
	if w := get(t, r, "/"); !strings.Contains(w.Body.String(), "First") {
		t.Fatal("home page should list the first article")
	}

	// A newly published article must show up immediately
	publishArticle(t, contents, "Second", "<p>two</p>")

	w := get(t, r, "/")
	if !strings.Contains(w.Body.String(), "Second") {
		t.Error("creating a published article should have invalidated the cached home page")
	}
}

func TestArticleListing(t *testing.T) {
	r, contents := setupFrontend(t)

	// Empty listing still renders
	w := get(t, r, "/articles")
	if w.Code != http.StatusOK {
		t.Fatalf("empty listing status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Nothing published yet") {
		t.Error("empty listing should say so")
	}

	publishArticle(t, contents, "Listed Article", "<p>body</p>")
	draft, err := contents.Create(context.Background(), service.ContentInput{
		Type:   model.ContentTypeArticle,
		Title:  "Hidden Draft",
		Body:   "<p>secret</p>",
		Status: model.StatusDraft,
	})
	if err != nil {
		t.Fatalf("creating draft: %v", err)
	}

	w = get(t, r, "/articles")
	if w.Code != http.StatusOK {
		t.Fatalf("listing status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Listed Article") {
		t.Error("listing should include the published article")
	}
	if strings.Contains(body, draft.Title) {
		t.Error("listing must not include drafts")
	}

	// One page of content means no page 2
	if w := get(t, r, "/articles?page=2"); w.Code != http.StatusNotFound {
		t.Errorf("out-of-range listing page status = %d, want 404", w.Code)
	}

	// Photobooks are listed separately
	if w := get(t, r, "/photobooks"); strings.Contains(w.Body.String(), "Listed Article") {
		t.Error("article must not appear in the photobook listing")
	}
}

func TestListingCacheInvalidatedByCreate(t *testing.T) {
	r, contents := setupFrontend(t)
	publishArticle(t, contents, "Original", "<p>one</p>")

	// Prime the cached listing render
	if w := get(t, r, "/articles"); !strings.Contains(w.Body.String(), "Original") {
		t.Fatal("listing should show the first article")
	}

	publishArticle(t, contents, "Addition", "<p>two</p>")

	if w := get(t, r, "/articles"); !strings.Contains(w.Body.String(), "Addition") {
		t.Error("creating a published article should have invalidated the cached listing")
	}
}

func TestRenderedPageCacheInvalidation(t *testing.T) {
	r, contents := setupFrontend(t)
	item := publishArticle(t, contents, "Cached", "<p>before</p>")

	if w := get(t, r, "/article/"+item.Slug); !strings.Contains(w.Body.String(), "before") {
		t.Fatal("first render should show the original body")
	}

	// An update must invalidate the cached render
	_, err := contents.Update(context.Background(), item.ID, service.ContentInput{
		Type:   model.ContentTypeArticle,
		Title:  "Cached",
		Slug:   item.Slug,
		Body:   "<p>after</p>",
		Status: model.StatusPublished,
	})
	if err != nil {
		t.Fatalf("updating article: %v", err)
	}

	if w := get(t, r, "/article/"+item.Slug); !strings.Contains(w.Body.String(), "after") {
		t.Error("update should have invalidated the cached render")
	}
}
