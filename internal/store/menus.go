// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/foliocms/foliocms/internal/model"
)

const menuItemColumns = `id, location, content_id, title, url, sort_order, is_active, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (model.MenuItem, error) {
	var m model.MenuItem
	err := row.Scan(&m.ID, &m.Location, &m.ContentID, &m.Title, &m.URL,
		&m.SortOrder, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// CreateMenuItemParams holds parameters for CreateMenuItem.
type CreateMenuItemParams struct {
	Location  string
	ContentID sql.NullInt64
	Title     sql.NullString
	URL       sql.NullString
	SortOrder int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateMenuItem inserts a menu item and returns it.
func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (model.MenuItem, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO menu_items (location, content_id, title, url, sort_order, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Location, arg.ContentID, arg.Title, arg.URL, arg.SortOrder, arg.IsActive,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.MenuItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MenuItem{}, err
	}
	return q.GetMenuItemByID(ctx, id)
}

// GetMenuItemByID fetches a menu item by id.
func (q *Queries) GetMenuItemByID(ctx context.Context, id int64) (model.MenuItem, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = ?`, id)
	return scanMenuItem(row)
}

// ListMenuItems returns all menu items for a location ordered by sort order;
// ties break by insertion order (id).
func (q *Queries) ListMenuItems(ctx context.Context, location string) ([]model.MenuItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items
		WHERE location = ?
		ORDER BY sort_order ASC, id ASC`, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// MaxMenuSortOrder returns the highest sort order within a location (0 if empty).
func (q *Queries) MaxMenuSortOrder(ctx context.Context, location string) (int, error) {
	var n sql.NullInt64
	err := q.db.QueryRowContext(ctx,
		`SELECT MAX(sort_order) FROM menu_items WHERE location = ?`, location).Scan(&n)
	if err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

// UpdateMenuItemSortOrder sets the sort order of one item. Bulk reorders run
// this inside a transaction so a partial failure leaves no half-applied order.
func (q *Queries) UpdateMenuItemSortOrder(ctx context.Context, id int64, sortOrder int, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE menu_items SET sort_order = ?, updated_at = ? WHERE id = ?`, sortOrder, updatedAt, id)
	return err
}

// ToggleMenuItemActive flips the active flag of a menu item.
func (q *Queries) ToggleMenuItemActive(ctx context.Context, id int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE menu_items SET is_active = NOT is_active, updated_at = ? WHERE id = ?`, updatedAt, id)
	return err
}

// DeleteMenuItem removes a menu item.
func (q *Queries) DeleteMenuItem(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	return err
}
