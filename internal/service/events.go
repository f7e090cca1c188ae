// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/store"
)

// EventService writes audit trail entries for admin actions.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// Log creates an audit event. Metadata is stored as JSON; a failed write is
// logged but never fails the action being audited.
func (s *EventService) Log(ctx context.Context, level, category, message string, metadata map[string]any) {
	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to write audit event", "category", category, "error", err)
	}
}

// LogInfo writes an info-level audit event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, metadata map[string]any) {
	s.Log(ctx, model.EventLevelInfo, category, message, metadata)
}

// LogWarning writes a warning-level audit event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, metadata map[string]any) {
	s.Log(ctx, model.EventLevelWarning, category, message, metadata)
}

// LogError writes an error-level audit event.
func (s *EventService) LogError(ctx context.Context, category, message string, metadata map[string]any) {
	s.Log(ctx, model.EventLevelError, category, message, metadata)
}

// Recent returns the newest audit events for the admin dashboard.
func (s *EventService) Recent(ctx context.Context, limit int64) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queries.ListRecentEvents(ctx, limit)
}
