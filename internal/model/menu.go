// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Menu locations
const (
	MenuLocationTop    = "top"
	MenuLocationBottom = "bottom"
)

// ValidMenuLocations contains all valid menu locations.
var ValidMenuLocations = []string{MenuLocationTop, MenuLocationBottom}

// MenuItem represents an entry in a navigation menu. It links either to a
// content item (ContentID set) or to a free URL with its own title. Items are
// totally ordered within a location by (sort_order, id).
type MenuItem struct {
	ID        int64          `json:"id"`
	Location  string         `json:"location"`
	ContentID sql.NullInt64  `json:"content_id,omitempty"`
	Title     sql.NullString `json:"title,omitempty"`
	URL       sql.NullString `json:"url,omitempty"`
	SortOrder int            `json:"sort_order"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsValidMenuLocation checks if a menu location is valid.
func IsValidMenuLocation(location string) bool {
	for _, l := range ValidMenuLocations {
		if l == location {
			return true
		}
	}
	return false
}
