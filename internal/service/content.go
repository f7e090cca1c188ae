// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/paging"
	"github.com/foliocms/foliocms/internal/store"
	"github.com/foliocms/foliocms/internal/util"
)

// Content validation errors.
var (
	ErrInvalidContentType = errors.New("invalid content type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyTitle         = errors.New("title is required")
	ErrSlugTaken          = errors.New("slug already in use")
	ErrInvalidSlug        = errors.New("invalid slug")
	ErrNotDeleted         = errors.New("content is not deleted")
)

// ContentService manages the lifecycle of articles and photobooks:
// creation, editing, publishing, soft deletion and restoration. Every body
// write recomputes the page index, every manual edit snapshots a version,
// and every write invalidates the affected cache entries.
type ContentService struct {
	db       *sql.DB
	queries  *store.Queries
	versions *VersionService
	caches   *cache.Manager
}

// NewContentService creates a new ContentService.
func NewContentService(db *sql.DB, versions *VersionService, caches *cache.Manager) *ContentService {
	return &ContentService{
		db:       db,
		queries:  store.New(db),
		versions: versions,
		caches:   caches,
	}
}

// ContentInput carries the editable fields of a content item.
type ContentInput struct {
	Type        string
	Title       string
	Slug        string // empty = derive from title
	Author      string
	Body        string
	Status      string
	SortOrder   int
	ScheduledAt *time.Time
}

func (in *ContentInput) validate() error {
	if !model.IsValidContentType(in.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidContentType, in.Type)
	}
	if !model.IsValidStatus(in.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if in.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// resolveSlug derives a slug from the title when none was given and
// validates the result.
func (in *ContentInput) resolveSlug() (string, error) {
	slug := in.Slug
	if slug == "" {
		slug = util.Slugify(in.Title)
	}
	if !util.IsValidSlug(slug) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return slug, nil
}

// Create creates a content item and records its initial version.
func (s *ContentService) Create(ctx context.Context, in ContentInput) (model.Content, error) {
	if err := in.validate(); err != nil {
		return model.Content{}, err
	}

	slug, err := in.resolveSlug()
	if err != nil {
		return model.Content{}, err
	}

	taken, err := s.queries.SlugExists(ctx, slug)
	if err != nil {
		return model.Content{}, fmt.Errorf("checking slug: %w", err)
	}
	if taken {
		return model.Content{}, fmt.Errorf("%w: %q", ErrSlugTaken, slug)
	}

	breaksJSON, pageCount, err := paging.Index(in.Body)
	if err != nil {
		return model.Content{}, fmt.Errorf("indexing body: %w", err)
	}

	now := time.Now()
	var publishedAt sql.NullTime
	if in.Status == model.StatusPublished {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}

	item, err := s.queries.CreateContent(ctx, store.CreateContentParams{
		Type:        in.Type,
		Title:       in.Title,
		Slug:        slug,
		Author:      in.Author,
		Body:        in.Body,
		Status:      in.Status,
		PageCount:   pageCount,
		PageBreaks:  breaksJSON,
		SortOrder:   in.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: publishedAt,
		ScheduledAt: util.NullTimeFromPtr(in.ScheduledAt),
	})
	if err != nil {
		return model.Content{}, fmt.Errorf("creating content: %w", err)
	}

	if _, err := s.versions.Save(ctx, item.ID, item.Title, item.Body, false); err != nil {
		return model.Content{}, fmt.Errorf("recording initial version: %w", err)
	}

	// A published creation changes the public listings immediately.
	s.invalidate(ctx, item)
	return item, nil
}

// Update edits a content item, snapshots the new state as a manual version
// and invalidates its caches. A draft transitioning to published gets its
// published_at set exactly once; later unpublish/republish cycles keep the
// original timestamp.
func (s *ContentService) Update(ctx context.Context, id int64, in ContentInput) (model.Content, error) {
	if err := in.validate(); err != nil {
		return model.Content{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Content{}, err
	}

	slug, err := in.resolveSlug()
	if err != nil {
		return model.Content{}, err
	}
	taken, err := s.queries.SlugExistsExcluding(ctx, slug, id)
	if err != nil {
		return model.Content{}, fmt.Errorf("checking slug: %w", err)
	}
	if taken {
		return model.Content{}, fmt.Errorf("%w: %q", ErrSlugTaken, slug)
	}

	breaksJSON, pageCount, err := paging.Index(in.Body)
	if err != nil {
		return model.Content{}, fmt.Errorf("indexing body: %w", err)
	}

	now := time.Now()
	publishedAt := current.PublishedAt
	if in.Status == model.StatusPublished && !publishedAt.Valid {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}

	item, err := s.queries.UpdateContent(ctx, store.UpdateContentParams{
		ID:          id,
		Title:       in.Title,
		Slug:        slug,
		Author:      in.Author,
		Body:        in.Body,
		Status:      in.Status,
		PageCount:   pageCount,
		PageBreaks:  breaksJSON,
		SortOrder:   in.SortOrder,
		UpdatedAt:   now,
		PublishedAt: publishedAt,
		ScheduledAt: util.NullTimeFromPtr(in.ScheduledAt),
	})
	if err != nil {
		return model.Content{}, fmt.Errorf("updating content: %w", err)
	}

	if _, err := s.versions.Save(ctx, id, item.Title, item.Body, false); err != nil {
		return model.Content{}, fmt.Errorf("recording version: %w", err)
	}

	s.invalidate(ctx, current)
	if item.Slug != current.Slug {
		s.invalidate(ctx, item)
	}
	return item, nil
}

// Autosave records the in-progress editor state as an autosave version.
// The live row is untouched, so an abandoned edit never leaks to readers.
func (s *ContentService) Autosave(ctx context.Context, id int64, title, body string) (model.Version, error) {
	return s.versions.Save(ctx, id, title, body, true)
}

// RestoreVersion reverts the live content to an older version and
// invalidates its caches.
func (s *ContentService) RestoreVersion(ctx context.Context, contentID, versionID int64) (model.Content, error) {
	item, err := s.versions.Restore(ctx, contentID, versionID)
	if err != nil {
		return model.Content{}, err
	}
	s.invalidate(ctx, item)
	return item, nil
}

// Get fetches a content item by id, including soft-deleted items.
func (s *ContentService) Get(ctx context.Context, id int64) (model.Content, error) {
	item, err := s.queries.GetContentByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Content{}, ErrContentNotFound
		}
		return model.Content{}, err
	}
	return item, nil
}

// GetPublished fetches a published content item by type and slug, through
// the cache. This is the public read path.
func (s *ContentService) GetPublished(ctx context.Context, contentType, slug string) (model.Content, error) {
	item, err := s.caches.Content.GetOrSet(ctx, cache.ContentKey(contentType, slug), func() (*model.Content, error) {
		c, err := s.queries.GetPublishedContentBySlug(ctx, contentType, slug)
		if err != nil {
			return nil, err
		}
		return &c, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Content{}, ErrContentNotFound
		}
		return model.Content{}, err
	}
	return *item, nil
}

// ListPublished lists published content of a type for the public site.
func (s *ContentService) ListPublished(ctx context.Context, contentType string, limit, offset int64) ([]model.Content, error) {
	return s.queries.ListPublishedContent(ctx, contentType, limit, offset)
}

// CountPublished counts published content of a type for the public site.
func (s *ContentService) CountPublished(ctx context.Context, contentType string) (int64, error) {
	return s.queries.CountPublishedContent(ctx, contentType)
}

// List lists content for the admin. IncludeDeleted selects the trash view.
func (s *ContentService) List(ctx context.Context, arg store.ListContentParams) ([]model.Content, error) {
	return s.queries.ListContent(ctx, arg)
}

// SetStatus switches a content item between draft and published.
func (s *ContentService) SetStatus(ctx context.Context, id int64, status string) (model.Content, error) {
	if !model.IsValidStatus(status) {
		return model.Content{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Content{}, err
	}

	now := time.Now()
	publishedAt := current.PublishedAt
	if status == model.StatusPublished && !publishedAt.Valid {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}

	item, err := s.queries.UpdateContent(ctx, store.UpdateContentParams{
		ID:          id,
		Title:       current.Title,
		Slug:        current.Slug,
		Author:      current.Author,
		Body:        current.Body,
		Status:      status,
		PageCount:   current.PageCount,
		PageBreaks:  current.PageBreaks,
		SortOrder:   current.SortOrder,
		UpdatedAt:   now,
		PublishedAt: publishedAt,
		ScheduledAt: current.ScheduledAt,
	})
	if err != nil {
		return model.Content{}, err
	}

	s.invalidate(ctx, item)
	return item, nil
}

// SoftDelete hides a content item from every public and default admin
// listing. The row, its versions and attachments are kept.
func (s *ContentService) SoftDelete(ctx context.Context, id int64) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.IsDeleted() {
		return nil // already deleted, idempotent
	}

	if err := s.queries.SoftDeleteContent(ctx, id, time.Now()); err != nil {
		return fmt.Errorf("soft deleting content: %w", err)
	}
	s.invalidate(ctx, item)
	return nil
}

// RestoreDeleted brings a soft-deleted content item back. It re-enters its
// prior status; a previously published item is immediately visible again.
func (s *ContentService) RestoreDeleted(ctx context.Context, id int64) (model.Content, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return model.Content{}, err
	}
	if !item.IsDeleted() {
		return model.Content{}, ErrNotDeleted
	}

	if err := s.queries.RestoreDeletedContent(ctx, id); err != nil {
		return model.Content{}, fmt.Errorf("restoring content: %w", err)
	}
	s.invalidate(ctx, item)
	return s.Get(ctx, id)
}

// PublishDue publishes every draft whose scheduled time has passed.
// Called by the scheduler. Returns the published items.
func (s *ContentService) PublishDue(ctx context.Context, now time.Time) ([]model.Content, error) {
	due, err := s.queries.ListScheduledContent(ctx, now)
	if err != nil {
		return nil, err
	}

	var published []model.Content
	for _, item := range due {
		if err := s.queries.PublishScheduledContent(ctx, item.ID, now); err != nil {
			return published, fmt.Errorf("publishing scheduled content %d: %w", item.ID, err)
		}
		s.invalidate(ctx, item)
		published = append(published, item)
	}
	return published, nil
}

func (s *ContentService) invalidate(ctx context.Context, item model.Content) {
	s.caches.InvalidateContent(ctx, item.Type, item.Slug)
	// Menu entries may label links with the content title.
	s.caches.InvalidateMenus(ctx)
}
