// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/foliocms/foliocms/internal/model"
)

// CreateAttachmentParams holds parameters for CreateAttachment.
type CreateAttachmentParams struct {
	ContentID    int64
	Filename     string
	OriginalName string
	MimeType     string
	Size         int64
	Width        int
	Height       int
	CreatedAt    time.Time
}

// CreateAttachment inserts an attachment row and returns it.
func (q *Queries) CreateAttachment(ctx context.Context, arg CreateAttachmentParams) (model.Attachment, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO attachments (content_id, filename, original_name, mime_type, size, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ContentID, arg.Filename, arg.OriginalName, arg.MimeType, arg.Size,
		arg.Width, arg.Height, arg.CreatedAt)
	if err != nil {
		return model.Attachment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Attachment{}, err
	}
	return q.GetAttachmentByID(ctx, id)
}

// GetAttachmentByID fetches an attachment by id.
func (q *Queries) GetAttachmentByID(ctx context.Context, id int64) (model.Attachment, error) {
	var a model.Attachment
	err := q.db.QueryRowContext(ctx, `
		SELECT id, content_id, filename, original_name, mime_type, size, width, height, created_at
		FROM attachments WHERE id = ?`, id).
		Scan(&a.ID, &a.ContentID, &a.Filename, &a.OriginalName, &a.MimeType, &a.Size,
			&a.Width, &a.Height, &a.CreatedAt)
	return a, err
}

// ListAttachments returns all attachments of a content item, oldest first.
func (q *Queries) ListAttachments(ctx context.Context, contentID int64) ([]model.Attachment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, content_id, filename, original_name, mime_type, size, width, height, created_at
		FROM attachments WHERE content_id = ? ORDER BY id ASC`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.ContentID, &a.Filename, &a.OriginalName, &a.MimeType,
			&a.Size, &a.Width, &a.Height, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// DeleteAttachment removes an attachment row.
func (q *Queries) DeleteAttachment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	return err
}
