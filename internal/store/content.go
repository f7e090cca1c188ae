// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/foliocms/foliocms/internal/model"
)

const contentColumns = `id, type, title, slug, author, body, status, page_count, page_breaks,
	sort_order, created_at, updated_at, published_at, scheduled_at, deleted_at`

// scanContent scans a content row in contentColumns order.
func scanContent(row interface{ Scan(...any) error }) (model.Content, error) {
	var c model.Content
	err := row.Scan(&c.ID, &c.Type, &c.Title, &c.Slug, &c.Author, &c.Body, &c.Status,
		&c.PageCount, &c.PageBreaks, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
		&c.PublishedAt, &c.ScheduledAt, &c.DeletedAt)
	return c, err
}

// CreateContentParams holds parameters for CreateContent.
type CreateContentParams struct {
	Type        string
	Title       string
	Slug        string
	Author      string
	Body        string
	Status      string
	PageCount   int
	PageBreaks  string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
	ScheduledAt sql.NullTime
}

// CreateContent inserts a content row and returns it.
func (q *Queries) CreateContent(ctx context.Context, arg CreateContentParams) (model.Content, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO content (type, title, slug, author, body, status, page_count, page_breaks,
			sort_order, created_at, updated_at, published_at, scheduled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Type, arg.Title, arg.Slug, arg.Author, arg.Body, arg.Status, arg.PageCount,
		arg.PageBreaks, arg.SortOrder, arg.CreatedAt, arg.UpdatedAt, arg.PublishedAt, arg.ScheduledAt)
	if err != nil {
		return model.Content{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Content{}, err
	}
	return q.GetContentByID(ctx, id)
}

// GetContentByID fetches a content row by id, including soft-deleted rows.
func (q *Queries) GetContentByID(ctx context.Context, id int64) (model.Content, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	return scanContent(row)
}

// GetPublishedContentBySlug fetches a published, non-deleted content row by
// type and slug. This is the public-facing lookup.
func (q *Queries) GetPublishedContentBySlug(ctx context.Context, contentType, slug string) (model.Content, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+contentColumns+` FROM content
		WHERE type = ? AND slug = ? AND status = 'published' AND deleted_at IS NULL`,
		contentType, slug)
	return scanContent(row)
}

// ListContentParams holds parameters for ListContent.
type ListContentParams struct {
	Type           string
	IncludeDeleted bool
	Limit          int64
	Offset         int64
}

// ListContent lists content for the admin, newest first. An empty Type matches
// all types. Soft-deleted rows are excluded unless IncludeDeleted is set, in
// which case ONLY deleted rows are returned (the admin trash view).
func (q *Queries) ListContent(ctx context.Context, arg ListContentParams) ([]model.Content, error) {
	deletedClause := "AND deleted_at IS NULL"
	if arg.IncludeDeleted {
		deletedClause = "AND deleted_at IS NOT NULL"
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM content
		WHERE (? = '' OR type = ?) `+deletedClause+`
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?`,
		arg.Type, arg.Type, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// ListPublishedContent lists published, non-deleted content of a type for the
// public site, ordered by sort order then recency.
func (q *Queries) ListPublishedContent(ctx context.Context, contentType string, limit, offset int64) ([]model.Content, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM content
		WHERE type = ? AND status = 'published' AND deleted_at IS NULL
		ORDER BY sort_order ASC, published_at DESC
		LIMIT ? OFFSET ?`,
		contentType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CountPublishedContent counts published, non-deleted content of a type.
func (q *Queries) CountPublishedContent(ctx context.Context, contentType string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content
		WHERE type = ? AND status = 'published' AND deleted_at IS NULL`, contentType).Scan(&n)
	return n, err
}

// CountContent counts non-deleted content rows of a type.
func (q *Queries) CountContent(ctx context.Context, contentType string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content WHERE type = ? AND deleted_at IS NULL`, contentType).Scan(&n)
	return n, err
}

// SlugExists reports whether a non-deleted content row with the slug exists.
func (q *Queries) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content WHERE slug = ? AND deleted_at IS NULL`, slug).Scan(&n)
	return n > 0, err
}

// SlugExistsExcluding reports whether a non-deleted content row with the slug
// exists, excluding the given id (for updates).
func (q *Queries) SlugExistsExcluding(ctx context.Context, slug string, id int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content WHERE slug = ? AND id != ? AND deleted_at IS NULL`, slug, id).Scan(&n)
	return n > 0, err
}

// UpdateContentParams holds parameters for UpdateContent.
type UpdateContentParams struct {
	ID          int64
	Title       string
	Slug        string
	Author      string
	Body        string
	Status      string
	PageCount   int
	PageBreaks  string
	SortOrder   int
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
	ScheduledAt sql.NullTime
}

// UpdateContent overwrites the mutable fields of a content row.
// PublishedAt is written as given; callers preserve the existing value unless
// this is the first transition to published.
func (q *Queries) UpdateContent(ctx context.Context, arg UpdateContentParams) (model.Content, error) {
	_, err := q.db.ExecContext(ctx, `
		UPDATE content
		SET title = ?, slug = ?, author = ?, body = ?, status = ?, page_count = ?,
			page_breaks = ?, sort_order = ?, updated_at = ?, published_at = ?, scheduled_at = ?
		WHERE id = ?`,
		arg.Title, arg.Slug, arg.Author, arg.Body, arg.Status, arg.PageCount,
		arg.PageBreaks, arg.SortOrder, arg.UpdatedAt, arg.PublishedAt, arg.ScheduledAt, arg.ID)
	if err != nil {
		return model.Content{}, err
	}
	return q.GetContentByID(ctx, arg.ID)
}

// UpdateContentBody overwrites only title and body (used by version restore).
func (q *Queries) UpdateContentBody(ctx context.Context, id int64, title, body, pageBreaks string, pageCount int, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE content SET title = ?, body = ?, page_breaks = ?, page_count = ?, updated_at = ?
		WHERE id = ?`,
		title, body, pageBreaks, pageCount, updatedAt, id)
	return err
}

// SoftDeleteContent marks a content row deleted.
func (q *Queries) SoftDeleteContent(ctx context.Context, id int64, deletedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE content SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, deletedAt, id)
	return err
}

// RestoreDeletedContent clears the deleted timestamp; the row re-enters its
// prior status unchanged.
func (q *Queries) RestoreDeletedContent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE content SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`, id)
	return err
}

// ListScheduledContent returns draft rows whose scheduled publish time is due.
func (q *Queries) ListScheduledContent(ctx context.Context, now time.Time) ([]model.Content, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contentColumns+` FROM content
		WHERE status = 'draft' AND deleted_at IS NULL
			AND scheduled_at IS NOT NULL AND scheduled_at <= ?`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// PublishScheduledContent publishes a due scheduled row, setting published_at
// only if it was never published before.
func (q *Queries) PublishScheduledContent(ctx context.Context, id int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE content
		SET status = 'published',
			published_at = COALESCE(published_at, ?),
			scheduled_at = NULL,
			updated_at = ?
		WHERE id = ?`, now, now, id)
	return err
}
