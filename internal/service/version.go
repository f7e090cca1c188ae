// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic layer between HTTP handlers
// and the store: version history, content lifecycle, menus and settings.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/paging"
	"github.com/foliocms/foliocms/internal/store"
)

// Service errors.
var (
	ErrContentNotFound = errors.New("content not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrNotAutosave     = errors.New("version is not an autosave")
	ErrVersionConflict = errors.New("version save conflict")
)

// saveAttempts bounds the retry loop around version number allocation.
// Two editors saving the same item at once can both compute the same next
// number; the UNIQUE(content_id, version_number) constraint rejects the
// loser, which simply recomputes and tries again.
const saveAttempts = 3

// VersionService manages the version history of content items.
type VersionService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewVersionService creates a new VersionService.
func NewVersionService(db *sql.DB) *VersionService {
	return &VersionService{
		db:      db,
		queries: store.New(db),
	}
}

// Save snapshots the given title and body as a new version of the content
// item. Version numbers are gap-free and strictly increasing per item.
func (s *VersionService) Save(ctx context.Context, contentID int64, title, body string, isAutosave bool) (model.Version, error) {
	if _, err := s.queries.GetContentByID(ctx, contentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Version{}, ErrContentNotFound
		}
		return model.Version{}, fmt.Errorf("loading content %d: %w", contentID, err)
	}

	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		v, err := s.queries.CreateVersion(ctx, store.CreateVersionParams{
			ContentID:  contentID,
			Title:      title,
			Body:       body,
			IsAutosave: isAutosave,
			CreatedAt:  time.Now(),
		})
		if err == nil {
			return v, nil
		}
		if !isUniqueViolation(err) {
			return model.Version{}, fmt.Errorf("saving version: %w", err)
		}
		lastErr = err
	}
	return model.Version{}, fmt.Errorf("%w: %v", ErrVersionConflict, lastErr)
}

// List returns the version history of a content item, newest first.
func (s *VersionService) List(ctx context.Context, contentID int64) ([]model.Version, error) {
	return s.queries.ListVersions(ctx, contentID)
}

// Get fetches a single version scoped to its owning content item.
func (s *VersionService) Get(ctx context.Context, contentID, versionID int64) (model.Version, error) {
	v, err := s.queries.GetVersionForContent(ctx, versionID, contentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Version{}, ErrVersionNotFound
		}
		return model.Version{}, err
	}
	return v, nil
}

// Restore overwrites the live title and body of a content item with those of
// an older version. The current live state is first snapshotted as a new
// manual version, so a restore is itself undoable. Both writes happen in one
// transaction.
func (s *VersionService) Restore(ctx context.Context, contentID, versionID int64) (model.Content, error) {
	var restored model.Content

	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		err := s.restoreOnce(ctx, contentID, versionID, &restored)
		if err == nil {
			return restored, nil
		}
		if !isUniqueViolation(err) {
			return model.Content{}, err
		}
		lastErr = err
	}
	return model.Content{}, fmt.Errorf("%w: %v", ErrVersionConflict, lastErr)
}

func (s *VersionService) restoreOnce(ctx context.Context, contentID, versionID int64, out *model.Content) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning restore transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	current, err := qtx.GetContentByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrContentNotFound
		}
		return err
	}

	version, err := qtx.GetVersionForContent(ctx, versionID, contentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVersionNotFound
		}
		return err
	}

	// Snapshot what is live right now as a manual version.
	if _, err := qtx.CreateVersion(ctx, store.CreateVersionParams{
		ContentID:  contentID,
		Title:      current.Title,
		Body:       current.Body,
		IsAutosave: false,
		CreatedAt:  time.Now(),
	}); err != nil {
		return err
	}

	breaksJSON, pageCount, err := paging.Index(version.Body)
	if err != nil {
		return fmt.Errorf("indexing restored body: %w", err)
	}

	if err := qtx.UpdateContentBody(ctx, contentID, version.Title, version.Body,
		breaksJSON, pageCount, time.Now()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing restore: %w", err)
	}

	*out, err = s.queries.GetContentByID(ctx, contentID)
	return err
}

// DeleteAutosave removes a single autosave version. Manual versions are
// immutable history and cannot be deleted this way.
func (s *VersionService) DeleteAutosave(ctx context.Context, contentID, versionID int64) error {
	v, err := s.Get(ctx, contentID, versionID)
	if err != nil {
		return err
	}
	if !v.IsAutosave {
		return ErrNotAutosave
	}

	n, err := s.queries.DeleteAutosaveVersion(ctx, versionID, contentID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionNotFound
	}
	return nil
}

// PruneAutosaves deletes autosave versions older than the retention window
// across all content. Returns the number of versions removed.
func (s *VersionService) PruneAutosaves(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.queries.PruneAutosavesBefore(ctx, cutoff)
}

// isUniqueViolation reports whether an error is a unique constraint
// violation, for the SQLite and MySQL drivers we support.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "(2067)") || // sqlite extended code SQLITE_CONSTRAINT_UNIQUE
		strings.Contains(msg, "Duplicate entry") // mysql error 1062
}
