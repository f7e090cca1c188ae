// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the store, services, and handlers.
package model

import (
	"database/sql"
	"time"
)

// Content types
const (
	ContentTypeArticle   = "article"
	ContentTypePhotobook = "photobook"
)

// ValidContentTypes contains all valid content types.
var ValidContentTypes = []string{ContentTypeArticle, ContentTypePhotobook}

// Content statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// ValidStatuses contains all valid content statuses.
var ValidStatuses = []string{StatusDraft, StatusPublished}

// Content represents a single content item: an article or a photobook.
// Articles and photobooks share one table with a type discriminant; the body is
// rich-text HTML that may embed page-break markers.
type Content struct {
	ID          int64        `json:"id"`
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Author      string       `json:"author"`
	Body        string       `json:"body"`
	Status      string       `json:"status"`
	PageCount   int          `json:"page_count"`
	PageBreaks  string       `json:"page_breaks"` // JSON page index, derived from Body on every write
	SortOrder   int          `json:"sort_order"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	PublishedAt sql.NullTime `json:"published_at,omitempty"`
	ScheduledAt sql.NullTime `json:"scheduled_at,omitempty"`
	DeletedAt   sql.NullTime `json:"deleted_at,omitempty"`
}

// IsPublished returns true if the content is published.
func (c *Content) IsPublished() bool {
	return c.Status == StatusPublished
}

// IsDraft returns true if the content is a draft.
func (c *Content) IsDraft() bool {
	return c.Status == StatusDraft
}

// IsDeleted returns true if the content has been soft-deleted.
func (c *Content) IsDeleted() bool {
	return c.DeletedAt.Valid
}

// IsValidContentType checks if a content type is valid.
func IsValidContentType(t string) bool {
	for _, v := range ValidContentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsValidStatus checks if a content status is valid.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
