// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/store"
)

// ErrUnknownSetting rejects writes to keys outside the fixed settings set.
var ErrUnknownSetting = errors.New("unknown setting")

// SettingsService manages the small fixed set of site settings.
type SettingsService struct {
	queries *store.Queries
	caches  *cache.Manager
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(queries *store.Queries, caches *cache.Manager) *SettingsService {
	return &SettingsService{queries: queries, caches: caches}
}

// All returns every setting as a map, through the cache. Missing keys fall
// back to their defaults so templates always have a value to render.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	values, err := s.caches.Settings.GetOrSet(ctx, cache.SettingsKey(), func() (*map[string]string, error) {
		rows, err := s.queries.ListSettings(ctx)
		if err != nil {
			return nil, err
		}
		m := make(map[string]string, len(model.SettingKeys))
		for key, def := range model.SettingDefaults {
			m[key] = def
		}
		for _, row := range rows {
			m[row.Key] = row.Value
		}
		return &m, nil
	})
	if err != nil {
		return nil, err
	}
	return *values, nil
}

// Get returns one setting value.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return "", err
	}
	value, ok := all[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	return value, nil
}

// Update writes one setting and invalidates the settings cache, which also
// drops rendered pages since settings appear in the page shell.
func (s *SettingsService) Update(ctx context.Context, key, value string) error {
	if !model.IsValidSettingKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if err := s.queries.UpsertSetting(ctx, key, value, time.Now()); err != nil {
		return fmt.Errorf("saving setting %q: %w", key, err)
	}
	s.caches.InvalidateSettings(ctx)
	return nil
}
