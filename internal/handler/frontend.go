// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the public site.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/paging"
	"github.com/foliocms/foliocms/internal/render"
	"github.com/foliocms/foliocms/internal/service"
)

// renderedPageTTL bounds how long a cached rendered page can outlive an
// invalidation bug. Writes still invalidate eagerly.
const renderedPageTTL = time.Hour

// homeListLimit caps how many items of each type the front page lists.
const homeListLimit = 50

// listPerPage is the page size of the public per-type listings.
const listPerPage = 20

// Frontend serves the public site.
type Frontend struct {
	renderer *render.Renderer
	contents *service.ContentService
	menus    *service.MenuService
	settings *service.SettingsService
	caches   *cache.Manager
}

// NewFrontend creates the public site handler.
func NewFrontend(renderer *render.Renderer, contents *service.ContentService, menus *service.MenuService, settings *service.SettingsService, caches *cache.Manager) *Frontend {
	return &Frontend{
		renderer: renderer,
		contents: contents,
		menus:    menus,
		settings: settings,
		caches:   caches,
	}
}

// contentPageData is the Data payload for article and photobook templates.
type contentPageData struct {
	Content    model.Content
	Page       paging.Page
	PageNumber int
	PageCount  int
	BaseURL    string
}

// homeData is the Data payload for the home template.
type homeData struct {
	Articles   []model.Content
	Photobooks []model.Content
}

// listingData is the Data payload for the per-type listing template.
type listingData struct {
	Heading    string
	Items      []model.Content
	ItemPath   string
	PageNumber int
	PageCount  int
	BaseURL    string
}

// Home handles GET / with a cached render of the published listings.
func (h *Frontend) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if page, ok := h.caches.GetRenderedPage(ctx, cache.HomeKey()); ok {
		render.WriteHTML(w, http.StatusOK, page)
		return
	}

	articles, err := h.contents.ListPublished(ctx, model.ContentTypeArticle, homeListLimit, 0)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	photobooks, err := h.contents.ListPublished(ctx, model.ContentTypePhotobook, homeListLimit, 0)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := h.templateData(ctx, "")
	data.Data = homeData{Articles: articles, Photobooks: photobooks}

	page, err := h.renderer.RenderBytes("home", data)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.caches.SetRenderedPage(ctx, cache.HomeKey(), page, renderedPageTTL)
	render.WriteHTML(w, http.StatusOK, page)
}

// Articles handles GET /articles, the paginated article listing.
func (h *Frontend) Articles(w http.ResponseWriter, r *http.Request) {
	h.listingPage(w, r, model.ContentTypeArticle, "Articles", "/articles", "/article/")
}

// Photobooks handles GET /photobooks, the paginated photobook listing.
func (h *Frontend) Photobooks(w http.ResponseWriter, r *http.Request) {
	h.listingPage(w, r, model.ContentTypePhotobook, "Photobooks", "/photobooks", "/photobook/")
}

// listingPage renders one page of a published per-type listing, serving
// from the rendered-page cache when possible.
func (h *Frontend) listingPage(w http.ResponseWriter, r *http.Request, contentType, heading, baseURL, itemPath string) {
	ctx := r.Context()
	pageNumber := parsePageParam(r)

	key := cache.RenderedListKey(contentType, pageNumber)
	if page, ok := h.caches.GetRenderedPage(ctx, key); ok {
		render.WriteHTML(w, http.StatusOK, page)
		return
	}

	total, err := h.contents.CountPublished(ctx, contentType)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	pageCount := int((total + listPerPage - 1) / listPerPage)
	if pageCount == 0 {
		pageCount = 1 // an empty listing still renders page 1
	}
	if pageNumber < 1 || pageNumber > pageCount {
		h.NotFound(w, r)
		return
	}

	items, err := h.contents.ListPublished(ctx, contentType, listPerPage, int64(pageNumber-1)*listPerPage)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := h.templateData(ctx, heading)
	data.Data = listingData{
		Heading:    heading,
		Items:      items,
		ItemPath:   itemPath,
		PageNumber: pageNumber,
		PageCount:  pageCount,
		BaseURL:    baseURL,
	}

	page, err := h.renderer.RenderBytes("listing", data)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.caches.SetRenderedPage(ctx, key, page, renderedPageTTL)
	render.WriteHTML(w, http.StatusOK, page)
}

// Article handles GET /article/{slug}.
func (h *Frontend) Article(w http.ResponseWriter, r *http.Request) {
	h.contentPage(w, r, model.ContentTypeArticle, "article")
}

// Photobook handles GET /photobook/{slug}.
func (h *Frontend) Photobook(w http.ResponseWriter, r *http.Request) {
	h.contentPage(w, r, model.ContentTypePhotobook, "photobook")
}

// contentPage renders one page of a published content item, serving from
// the rendered-page cache when possible.
func (h *Frontend) contentPage(w http.ResponseWriter, r *http.Request, contentType, template string) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	pageNumber := parsePageParam(r)

	key := cache.RenderedPageKey(contentType, slug, pageNumber)
	if page, ok := h.caches.GetRenderedPage(ctx, key); ok {
		render.WriteHTML(w, http.StatusOK, page)
		return
	}

	item, err := h.contents.GetPublished(ctx, contentType, slug)
	if err != nil {
		if errors.Is(err, service.ErrContentNotFound) {
			h.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}

	pages := paging.Split(item.Body)
	if pageNumber < 1 || pageNumber > len(pages) {
		h.NotFound(w, r)
		return
	}

	data := h.templateData(ctx, item.Title)
	data.Data = contentPageData{
		Content:    item,
		Page:       pages[pageNumber-1],
		PageNumber: pageNumber,
		PageCount:  len(pages),
		BaseURL:    "/" + contentType + "/" + slug,
	}

	page, err := h.renderer.RenderBytes(template, data)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.caches.SetRenderedPage(ctx, key, page, renderedPageTTL)
	render.WriteHTML(w, http.StatusOK, page)
}

// NotFound renders the 404 page. Not cached; misses are unbounded.
func (h *Frontend) NotFound(w http.ResponseWriter, r *http.Request) {
	data := h.templateData(r.Context(), "Page not found")

	page, err := h.renderer.RenderBytes("notfound", data)
	if err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	render.WriteHTML(w, http.StatusNotFound, page)
}

// templateData assembles the shared page shell: site title and menus.
// Failures degrade to defaults rather than failing the page.
func (h *Frontend) templateData(ctx context.Context, title string) render.TemplateData {
	data := render.TemplateData{
		Title:     title,
		SiteTitle: model.SettingDefaults[model.SettingSiteTitle],
	}

	if settings, err := h.settings.All(ctx); err == nil {
		if siteTitle := settings[model.SettingSiteTitle]; siteTitle != "" {
			data.SiteTitle = siteTitle
		}
	} else {
		slog.Warn("loading settings for page shell", "error", err)
	}

	data.TopMenu = h.menuEntries(ctx, model.MenuLocationTop)
	data.BottomMenu = h.menuEntries(ctx, model.MenuLocationBottom)
	return data
}

func (h *Frontend) menuEntries(ctx context.Context, location string) []render.MenuEntry {
	links, err := h.menus.Links(ctx, location)
	if err != nil {
		slog.Warn("loading menu for page shell", "location", location, "error", err)
		return nil
	}
	entries := make([]render.MenuEntry, 0, len(links))
	for _, link := range links {
		entries = append(entries, render.MenuEntry{Title: link.Title, URL: link.URL})
	}
	return entries
}

func (h *Frontend) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("rendering page failed", "path", r.URL.Path, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// parsePageParam reads the ?page query parameter, defaulting to 1.
// Non-numeric values fall back to 1; range checks happen against the
// split body.
func parsePageParam(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return page
}
