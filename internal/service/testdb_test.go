package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/store"
)

// setupTestDB opens an in-memory SQLite database with the full schema.
// A single connection keeps every query on the same memory database.
func setupTestDB(t *testing.T) *sql.DB {
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
	return db
}

func setupTestCaches(t *testing.T) *cache.Manager {
	t.Helper()
	backend := cache.NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { backend.Close() })
	return cache.NewManager(backend, time.Minute)
}

// createTestContent inserts a draft article for tests that need one.
func createTestContent(t *testing.T, db *sql.DB, title, slug string) model.Content {
	t.Helper()

	now := time.Now()
	item, err := store.New(db).CreateContent(context.Background(), store.CreateContentParams{
		Type:       model.ContentTypeArticle,
		Title:      title,
		Slug:       slug,
		Body:       "<p>" + title + "</p>",
		Status:     model.StatusDraft,
		PageCount:  1,
		PageBreaks: "[]",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("creating test content: %v", err)
	}
	return item
}
