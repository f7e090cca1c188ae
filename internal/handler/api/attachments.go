// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/model"
	"github.com/foliocms/foliocms/internal/store"
)

// AttachmentResponse represents an attachment in API responses.
type AttachmentResponse struct {
	ID           int64     `json:"id"`
	ContentID    int64     `json:"content_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func attachmentToResponse(a model.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:           a.ID,
		ContentID:    a.ContentID,
		Filename:     a.Filename,
		OriginalName: a.OriginalName,
		MimeType:     a.MimeType,
		Size:         a.Size,
		Width:        a.Width,
		Height:       a.Height,
		CreatedAt:    a.CreatedAt,
	}
}

// ListAttachments handles GET /api/v1/content/{id}/attachments.
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	attachments, err := h.queries.ListAttachments(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		responses = append(responses, attachmentToResponse(a))
	}
	WriteSuccess(w, responses, nil)
}

// UploadAttachment handles POST /api/v1/content/{id}/attachments with a
// multipart "file" field. Only image uploads are accepted; the original
// is normalized and thumbnail/display variants are derived.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	contentID, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid content ID", nil)
		return
	}

	// Attachment rows must point at existing content
	if _, err := h.contents.Get(r.Context(), contentID); err != nil {
		writeServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, model.MaxUploadSize)
	if err := r.ParseMultipartForm(model.MaxUploadSize); err != nil {
		WriteBadRequest(w, "Upload too large or malformed", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "Missing file field", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteInternalError(w, "Reading upload failed")
		return
	}

	mimeType := h.images.DetectMimeType(data)
	if !h.images.IsImage(mimeType) {
		WriteValidationError(w, "Only image uploads are supported", map[string]string{"mime_type": mimeType})
		return
	}

	fileUUID := uuid.New().String()
	storedName := fileUUID + filepath.Ext(header.Filename)

	result, err := h.images.Process(bytes.NewReader(data), fileUUID, storedName)
	if err != nil {
		WriteValidationError(w, "Image could not be processed", map[string]string{"error": err.Error()})
		return
	}

	if _, err := h.images.CreateVariants(result.FilePath, fileUUID, storedName); err != nil {
		slog.Warn("creating image variants failed", "uuid", fileUUID, "error", err)
	}

	attachment, err := h.queries.CreateAttachment(r.Context(), store.CreateAttachmentParams{
		ContentID:    contentID,
		Filename:     storedName,
		OriginalName: header.Filename,
		MimeType:     result.MimeType,
		Size:         result.Size,
		Width:        result.Width,
		Height:       result.Height,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		_ = h.images.DeleteFiles(fileUUID)
		writeServiceError(w, err)
		return
	}

	h.events.LogInfo(r.Context(), model.EventCategoryContent, "attachment uploaded", map[string]any{
		"content_id": contentID,
		"filename":   storedName,
		"actor":      middleware.GetUserEmail(r),
	})
	WriteCreated(w, attachmentToResponse(attachment))
}

// DeleteAttachment handles DELETE /api/v1/attachments/{id}, removing the
// row and the stored files.
func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid attachment ID", nil)
		return
	}

	attachment, err := h.queries.GetAttachmentByID(r.Context(), id)
	if err != nil {
		WriteNotFound(w, "Attachment not found")
		return
	}

	if err := h.queries.DeleteAttachment(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	fileUUID := attachment.Filename
	if ext := filepath.Ext(fileUUID); ext != "" {
		fileUUID = fileUUID[:len(fileUUID)-len(ext)]
	}
	if err := h.images.DeleteFiles(fileUUID); err != nil {
		slog.Warn("deleting attachment files failed", "filename", attachment.Filename, "error", err)
	}

	WriteSuccess(w, map[string]any{"deleted": true}, nil)
}
