// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/store"
	"github.com/foliocms/foliocms/internal/util"
)

// Menu errors.
var (
	ErrInvalidMenuLocation = errors.New("invalid menu location")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemInvalid     = errors.New("menu item needs a content link or a title and URL")
	ErrReorderMismatch     = errors.New("reorder list does not match the menu location")
)

// MenuLink is a resolved menu entry ready for template rendering.
type MenuLink struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MenuService manages the navigation menus. Items link either to a content
// item or to a free URL; each location keeps its own total order.
type MenuService struct {
	db      *sql.DB
	queries *store.Queries
	caches  *cache.Manager
}

// NewMenuService creates a new MenuService.
func NewMenuService(db *sql.DB, caches *cache.Manager) *MenuService {
	return &MenuService{
		db:      db,
		queries: store.New(db),
		caches:  caches,
	}
}

// MenuItemInput carries the editable fields of a menu item.
type MenuItemInput struct {
	Location  string
	ContentID *int64 // nil = free link
	Title     string // required for free links
	URL       string // required for free links
	IsActive  bool
}

func (in *MenuItemInput) validate() error {
	if !model.IsValidMenuLocation(in.Location) {
		return fmt.Errorf("%w: %q", ErrInvalidMenuLocation, in.Location)
	}
	if in.ContentID == nil && (in.Title == "" || in.URL == "") {
		return ErrMenuItemInvalid
	}
	return nil
}

// Create appends a menu item to the end of its location.
func (s *MenuService) Create(ctx context.Context, in MenuItemInput) (model.MenuItem, error) {
	if err := in.validate(); err != nil {
		return model.MenuItem{}, err
	}

	if in.ContentID != nil {
		if _, err := s.queries.GetContentByID(ctx, *in.ContentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.MenuItem{}, ErrContentNotFound
			}
			return model.MenuItem{}, err
		}
	}

	maxOrder, err := s.queries.MaxMenuSortOrder(ctx, in.Location)
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("finding menu tail: %w", err)
	}

	now := time.Now()
	item, err := s.queries.CreateMenuItem(ctx, store.CreateMenuItemParams{
		Location:  in.Location,
		ContentID: util.NullInt64FromPtr(in.ContentID),
		Title:     util.NullStringFromValue(in.Title),
		URL:       util.NullStringFromValue(in.URL),
		SortOrder: maxOrder + 1,
		IsActive:  in.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("creating menu item: %w", err)
	}

	s.caches.InvalidateMenus(ctx)
	return item, nil
}

// List returns all items of a location in display order, for the admin.
func (s *MenuService) List(ctx context.Context, location string) ([]model.MenuItem, error) {
	if !model.IsValidMenuLocation(location) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMenuLocation, location)
	}
	return s.queries.ListMenuItems(ctx, location)
}

// Links returns the active, resolved links of a location for public
// rendering, through the cache. Content-linked entries take the live
// content title and URL; links to unpublished or deleted content drop out.
func (s *MenuService) Links(ctx context.Context, location string) ([]MenuLink, error) {
	items, err := s.caches.Menu.GetOrSet(ctx, cache.MenuKey(location), func() (*[]model.MenuItem, error) {
		list, err := s.queries.ListMenuItems(ctx, location)
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}

	var links []MenuLink
	for _, item := range *items {
		if !item.IsActive {
			continue
		}
		link, ok := s.resolveLink(ctx, item)
		if !ok {
			continue
		}
		links = append(links, link)
	}
	return links, nil
}

func (s *MenuService) resolveLink(ctx context.Context, item model.MenuItem) (MenuLink, bool) {
	if item.ContentID.Valid {
		content, err := s.queries.GetContentByID(ctx, item.ContentID.Int64)
		if err != nil || !content.IsPublished() || content.IsDeleted() {
			return MenuLink{}, false
		}
		return MenuLink{
			ID:    item.ID,
			Title: content.Title,
			URL:   "/" + content.Type + "/" + content.Slug,
		}, true
	}
	if item.Title.Valid && item.URL.Valid {
		return MenuLink{ID: item.ID, Title: item.Title.String, URL: item.URL.String}, true
	}
	return MenuLink{}, false
}

// Reorder applies a complete new order to a location in one transaction.
// The id list must contain exactly the items of the location; anything else
// is rejected before any row is touched.
func (s *MenuService) Reorder(ctx context.Context, location string, ids []int64) error {
	if !model.IsValidMenuLocation(location) {
		return fmt.Errorf("%w: %q", ErrInvalidMenuLocation, location)
	}

	existing, err := s.queries.ListMenuItems(ctx, location)
	if err != nil {
		return fmt.Errorf("loading menu: %w", err)
	}
	if len(ids) != len(existing) {
		return ErrReorderMismatch
	}
	present := make(map[int64]bool, len(existing))
	for _, item := range existing {
		present[item.ID] = true
	}
	for _, id := range ids {
		if !present[id] {
			return fmt.Errorf("%w: unknown item %d", ErrReorderMismatch, id)
		}
		delete(present, id) // catches duplicates in the request
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reorder transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	now := time.Now()
	for i, id := range ids {
		if err := qtx.UpdateMenuItemSortOrder(ctx, id, i+1, now); err != nil {
			return fmt.Errorf("reordering item %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reorder: %w", err)
	}

	s.caches.InvalidateMenus(ctx)
	return nil
}

// ToggleActive flips an item's visibility without removing it.
func (s *MenuService) ToggleActive(ctx context.Context, id int64) (model.MenuItem, error) {
	if _, err := s.get(ctx, id); err != nil {
		return model.MenuItem{}, err
	}
	if err := s.queries.ToggleMenuItemActive(ctx, id, time.Now()); err != nil {
		return model.MenuItem{}, err
	}
	s.caches.InvalidateMenus(ctx)
	return s.queries.GetMenuItemByID(ctx, id)
}

// Delete removes a menu item permanently.
func (s *MenuService) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.queries.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	s.caches.InvalidateMenus(ctx)
	return nil
}

func (s *MenuService) get(ctx context.Context, id int64) (model.MenuItem, error) {
	item, err := s.queries.GetMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MenuItem{}, ErrMenuItemNotFound
		}
		return model.MenuItem{}, err
	}
	return item, nil
}
