// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Version represents a historical snapshot of a content item's title and body.
// Version numbers increase monotonically per content item starting at 1 and are
// never reused; manual saves and autosaves share the same sequence.
type Version struct {
	ID            int64     `json:"id"`
	ContentID     int64     `json:"content_id"`
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	IsAutosave    bool      `json:"is_autosave"`
	CreatedAt     time.Time `json:"created_at"`
}
