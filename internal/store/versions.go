// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/foliocms/foliocms/internal/model"
)

const versionColumns = `id, content_id, version_number, title, body, is_autosave, created_at`

func scanVersion(row interface{ Scan(...any) error }) (model.Version, error) {
	var v model.Version
	err := row.Scan(&v.ID, &v.ContentID, &v.VersionNumber, &v.Title, &v.Body, &v.IsAutosave, &v.CreatedAt)
	return v, err
}

// CreateVersionParams holds parameters for CreateVersion.
type CreateVersionParams struct {
	ContentID  int64
	Title      string
	Body       string
	IsAutosave bool
	CreatedAt  time.Time
}

// CreateVersion inserts a new version row with the next version number for the
// content item. The subselect and the UNIQUE(content_id, version_number)
// constraint together keep numbering gap-free under concurrent saves; callers
// retry on a constraint violation.
func (q *Queries) CreateVersion(ctx context.Context, arg CreateVersionParams) (model.Version, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO content_versions (content_id, version_number, title, body, is_autosave, created_at)
		VALUES (?,
			(SELECT COALESCE(MAX(cv.version_number), 0) + 1 FROM content_versions cv WHERE cv.content_id = ?),
			?, ?, ?, ?)`,
		arg.ContentID, arg.ContentID, arg.Title, arg.Body, arg.IsAutosave, arg.CreatedAt)
	if err != nil {
		return model.Version{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Version{}, err
	}
	return q.GetVersionByID(ctx, id)
}

// GetVersionByID fetches a version row by id.
func (q *Queries) GetVersionByID(ctx context.Context, id int64) (model.Version, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM content_versions WHERE id = ?`, id)
	return scanVersion(row)
}

// GetVersionForContent fetches a version row by id scoped to its owning
// content item; a mismatched owner behaves like a missing row.
func (q *Queries) GetVersionForContent(ctx context.Context, id, contentID int64) (model.Version, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM content_versions WHERE id = ? AND content_id = ?`, id, contentID)
	return scanVersion(row)
}

// ListVersions returns all versions of a content item, newest first.
func (q *Queries) ListVersions(ctx context.Context, contentID int64) ([]model.Version, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+versionColumns+` FROM content_versions
		WHERE content_id = ?
		ORDER BY version_number DESC`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []model.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// DeleteAutosaveVersion deletes a version row only if it is flagged as an
// autosave. Returns the number of rows deleted (0 when the row is a manual
// save or does not belong to the content item).
func (q *Queries) DeleteAutosaveVersion(ctx context.Context, id, contentID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM content_versions
		WHERE id = ? AND content_id = ? AND is_autosave = TRUE`, id, contentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneAutosavesBefore deletes autosave rows older than the cutoff across all
// content. Manual saves are never pruned.
func (q *Queries) PruneAutosavesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM content_versions
		WHERE is_autosave = TRUE AND created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
