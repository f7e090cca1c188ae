// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic background jobs: publishing scheduled
// content and pruning old autosave versions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/service"
)

// Scheduler owns the cron instance and the job implementations.
type Scheduler struct {
	cron     *cron.Cron
	contents *service.ContentService
	versions *service.VersionService
	events   *service.EventService
	logger   *slog.Logger

	autosaveRetention time.Duration
}

// New creates a scheduler. autosaveRetention bounds how long autosave
// versions are kept before the nightly prune removes them.
func New(contents *service.ContentService, versions *service.VersionService,
	events *service.EventService, logger *slog.Logger, autosaveRetention time.Duration) *Scheduler {
	return &Scheduler{
		cron:              cron.New(),
		contents:          contents,
		versions:          versions,
		events:            events,
		logger:            logger,
		autosaveRetention: autosaveRetention,
	}
}

// Start registers the jobs and begins the cron loop.
// Scheduled publishing runs every minute; autosave pruning runs nightly.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.publishScheduled); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("30 3 * * *", s.pruneAutosaves); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// publishScheduled publishes every draft whose scheduled time has passed.
func (s *Scheduler) publishScheduled() {
	ctx := context.Background()
	now := time.Now()

	published, err := s.contents.PublishDue(ctx, now)
	if err != nil {
		s.logger.Error("failed to publish scheduled content", "error", err)
		return
	}

	for _, item := range published {
		s.logger.Info("published scheduled content",
			"content_id", item.ID, "title", item.Title, "slug", item.Slug)
		s.events.LogInfo(ctx, model.EventCategoryContent, "scheduled content published", map[string]any{
			"content_id":   item.ID,
			"title":        item.Title,
			"slug":         item.Slug,
			"published_at": now.Format(time.RFC3339),
		})
	}
}

// pruneAutosaves removes autosave versions past the retention window.
func (s *Scheduler) pruneAutosaves() {
	ctx := context.Background()

	n, err := s.versions.PruneAutosaves(ctx, s.autosaveRetention)
	if err != nil {
		s.logger.Error("failed to prune autosave versions", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("pruned autosave versions", "count", n,
			"retention", s.autosaveRetention.String())
		s.events.LogInfo(ctx, model.EventCategorySystem, "autosave versions pruned", map[string]any{
			"count": n,
		})
	}
}
