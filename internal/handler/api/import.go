// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/foliocms/foliocms/internal/convert"
	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/paging"
)

// ImportDocument handles POST /api/v1/import with a multipart "document"
// field. The document is converted to sanitized body HTML; the response
// carries the HTML plus the page split it would produce, so the editor
// can preview before saving.
func (h *Handler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, model.MaxUploadSize)
	if err := r.ParseMultipartForm(model.MaxUploadSize); err != nil {
		WriteBadRequest(w, "Upload too large or malformed", nil)
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		WriteBadRequest(w, "Missing document field", nil)
		return
	}
	defer file.Close()

	if !h.converter.Supported(header.Filename) {
		WriteValidationError(w, "Unsupported document format", map[string]string{"filename": header.Filename})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		WriteInternalError(w, "Reading upload failed")
		return
	}

	html, err := h.converter.Import(r.Context(), header.Filename, data)
	if err != nil {
		h.writeImportError(w, err)
		return
	}

	pages := paging.Split(html)
	titles := make([]string, 0, len(pages))
	for _, p := range pages {
		titles = append(titles, p.Title)
	}

	h.events.LogInfo(r.Context(), model.EventCategoryContent, "document imported", map[string]any{
		"filename": header.Filename,
		"pages":    len(pages),
		"actor":    middleware.GetUserEmail(r),
	})
	WriteSuccess(w, map[string]any{
		"html":        html,
		"page_count":  len(pages),
		"page_titles": titles,
	}, nil)
}

// writeImportError maps converter failures, passing structured remote
// errors through to the client.
func (h *Handler) writeImportError(w http.ResponseWriter, err error) {
	var remoteErr *convert.RemoteError
	switch {
	case errors.Is(err, convert.ErrUnsupportedFormat):
		WriteValidationError(w, "Unsupported document format", nil)
	case errors.Is(err, convert.ErrConverterDisabled):
		WriteError(w, http.StatusServiceUnavailable, "converter_disabled", "Document converter is not configured", nil)
	case errors.As(err, &remoteErr):
		WriteError(w, http.StatusBadGateway, remoteErr.Code, remoteErr.Message, nil)
	default:
		WriteInternalError(w, "Document conversion failed")
	}
}
