// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/foliocms/foliocms/internal/model"
)

// GetSetting fetches a setting by key.
func (q *Queries) GetSetting(ctx context.Context, key string) (model.Setting, error) {
	var s model.Setting
	err := q.db.QueryRowContext(ctx,
		`SELECT name, value, updated_at FROM settings WHERE name = ?`, key).
		Scan(&s.Key, &s.Value, &s.UpdatedAt)
	return s, err
}

// ListSettings returns all settings ordered by key.
func (q *Queries) ListSettings(ctx context.Context) ([]model.Setting, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT name, value, updated_at FROM settings ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []model.Setting
	for rows.Next() {
		var s model.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpsertSetting writes a setting value, last-write-wins. Update-then-insert
// keeps the statement portable across SQLite and MySQL.
func (q *Queries) UpsertSetting(ctx context.Context, key, value string, updatedAt time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE settings SET value = ?, updated_at = ? WHERE name = ?`, value, updatedAt, key)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)`, key, value, updatedAt)
	return err
}
