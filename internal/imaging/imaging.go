// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging checks uploaded cover images and scales down the ones
// wider than the article column. Decoding uses the standard image codecs
// plus WebP from golang.org/x/image; scaling uses x/image/draw.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxCoverWidth is the widest a stored cover gets.
	MaxCoverWidth = 1600

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000

	coverQuality = 82
)

// ErrTooLarge is returned for images beyond maxImagePixels.
var ErrTooLarge = errors.New("image dimensions too large")

// Cover is an image ready for upload.
type Cover struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// PrepareCover validates data as an image of contentType and returns it
// unchanged when it fits MaxCoverWidth. Wider JPEG, PNG and WebP images are
// scaled to MaxCoverWidth and re-encoded as JPEG. GIFs are never scaled so
// animations survive.
func PrepareCover(data []byte, contentType string) (*Cover, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	original := &Cover{Data: data, ContentType: contentType, Width: cfg.Width, Height: cfg.Height}
	if cfg.Width <= MaxCoverWidth || format == "gif" {
		return original, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	ratio := float64(MaxCoverWidth) / float64(bounds.Dx())
	height := int(float64(bounds.Dy()) * ratio)
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, MaxCoverWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: coverQuality}); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}

	return &Cover{Data: buf.Bytes(), ContentType: "image/jpeg", Width: MaxCoverWidth, Height: height}, nil
}

// Extension returns the file extension for an image content type.
func Extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
