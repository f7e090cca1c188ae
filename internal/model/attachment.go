// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Attachment represents an uploaded file bound to a content item.
// Image attachments carry their decoded dimensions.
type Attachment struct {
	ID           int64     `json:"id"`
	ContentID    int64     `json:"content_id"`
	Filename     string    `json:"filename"`      // stored name (uuid + extension)
	OriginalName string    `json:"original_name"` // name as uploaded
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MaxUploadSize is the maximum accepted upload size in bytes (10MB).
const MaxUploadSize = 10 << 20

// Supported image MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// ImageVariantConfig describes one derived size of an uploaded image.
type ImageVariantConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool
}

// ImageVariants are the derived sizes generated for every image upload.
// Thumbnails are cropped square for photobook grids; display images keep
// their aspect ratio.
var ImageVariants = map[string]ImageVariantConfig{
	"thumb":   {Width: 300, Height: 300, Quality: 82, Crop: true},
	"display": {Width: 1600, Height: 1200, Quality: 88, Crop: false},
}
