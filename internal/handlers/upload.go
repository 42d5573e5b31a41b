// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"inkpress/internal/imaging"
	"inkpress/internal/middleware"
)

// maxCoverSize is the largest accepted cover upload (10 MB).
const maxCoverSize = 10 << 20

// allowedCoverTypes are the sniffed content types accepted as covers.
var allowedCoverTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// CoverUploader stores cover images. *storage.Client satisfies it.
type CoverUploader interface {
	UploadCover(ctx context.Context, authorID uuid.UUID, ext, contentType string, body io.Reader, size int64) (string, error)
}

// UploadCover accepts a multipart "file" field, scales it down when it is
// wider than the article column, stores it and answers {"url": ...}. The
// form then submits that URL as cover_image_url.
func (h *Write) UploadCover(w http.ResponseWriter, r *http.Request) {
	if h.covers == nil {
		writeJSONError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}

	user := middleware.CurrentUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize+1024)
	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		writeJSONError(w, "File too large. Maximum size is 10 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "No file provided.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxCoverSize {
		writeJSONError(w, "File too large. Maximum size is 10 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, "Failed to read file.", http.StatusInternalServerError)
		return
	}

	// Detect content type by sniffing the first 512 bytes.
	contentType := http.DetectContentType(data)
	if !allowedCoverTypes[contentType] {
		writeJSONError(w, fmt.Sprintf("File type %q is not allowed.", contentType), http.StatusBadRequest)
		return
	}

	cover, err := imaging.PrepareCover(data, contentType)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			writeJSONError(w, "Image dimensions are too large.", http.StatusBadRequest)
			return
		}
		slog.Warn("cover image rejected", "error", err, "filename", header.Filename)
		writeJSONError(w, "The file is not a readable image.", http.StatusBadRequest)
		return
	}

	url, err := h.covers.UploadCover(r.Context(), user.UserID, imaging.Extension(cover.ContentType),
		cover.ContentType, bytes.NewReader(cover.Data), int64(len(cover.Data)))
	if err != nil {
		slog.Error("cover upload failed", "user_id", user.UserID, "error", err)
		writeJSONError(w, "Failed to upload file.", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"url":    url,
		"width":  cover.Width,
		"height": cover.Height,
	})
}
