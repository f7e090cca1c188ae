// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package convert turns uploaded documents into sanitized body HTML.
// Markdown is converted in-process; office formats go through an external
// converter service.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/foliocms/foliocms/internal/paging"
)

// ErrUnsupportedFormat rejects files no converter path can handle.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrConverterDisabled is returned for office formats when no external
// converter service is configured.
var ErrConverterDisabled = errors.New("document converter not configured")

// RemoteError carries a structured failure from the converter service.
type RemoteError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("converter: %s (%s)", e.Message, e.Code)
}

// Extensions convertible in-process.
var localFormats = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
}

// Extensions handled by the external converter service.
var remoteFormats = map[string]bool{
	".docx": true,
	".odt":  true,
	".rtf":  true,
	".pdf":  true,
}

// markerToken stands in for the page-break marker while sanitizing, since
// the sanitizer strips HTML comments.
const markerToken = "[[folio-page-break]]"

// Converter converts uploaded documents to body HTML.
type Converter struct {
	baseURL  string // empty = remote formats disabled
	client   *http.Client
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// New creates a Converter. baseURL addresses the external converter
// service; an empty URL disables the office format path.
func New(baseURL string, timeout time.Duration) *Converter {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Converter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		markdown: goldmark.New(
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Supported reports whether a filename can be imported.
func (c *Converter) Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if localFormats[ext] {
		return true
	}
	return remoteFormats[ext] && c.baseURL != ""
}

// Import converts a document to sanitized body HTML. Page-break markers in
// the source survive both conversion and sanitizing.
func (c *Converter) Import(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var html string
	switch {
	case ext == ".md" || ext == ".markdown":
		var buf bytes.Buffer
		if err := c.markdown.Convert(data, &buf); err != nil {
			return "", fmt.Errorf("converting markdown: %w", err)
		}
		html = buf.String()
	case ext == ".html" || ext == ".htm":
		html = string(data)
	case remoteFormats[ext]:
		if c.baseURL == "" {
			return "", ErrConverterDisabled
		}
		converted, err := c.convertRemote(ctx, filename, data)
		if err != nil {
			return "", err
		}
		html = converted
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	return c.Sanitize(html), nil
}

// Sanitize strips dangerous markup from body HTML while keeping page-break
// markers intact.
func (c *Converter) Sanitize(html string) string {
	protected := strings.ReplaceAll(html, paging.Marker, markerToken)
	clean := c.policy.Sanitize(protected)
	return strings.ReplaceAll(clean, markerToken, paging.Marker)
}

// convertRemote posts the document to the converter service and returns the
// HTML from its JSON response.
func (c *Converter) convertRemote(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("document", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling converter: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("reading converter response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		remoteErr := &RemoteError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(payload, remoteErr); err != nil || remoteErr.Message == "" {
			remoteErr.Code = "unknown"
			remoteErr.Message = fmt.Sprintf("converter returned status %d", resp.StatusCode)
		}
		return "", remoteErr
	}

	var result struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("decoding converter response: %w", err)
	}
	if result.HTML == "" {
		return "", errors.New("converter returned empty document")
	}
	return result.HTML, nil
}
