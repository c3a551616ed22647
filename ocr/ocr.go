//go:build ocr

// Package ocr recovers structured text from rendered page images, for
// pages whose document carries no text layer (scanned PDFs, image
// documents).
//
// This package wraps the Tesseract OCR engine via gosseract. It
// requires Tesseract to be installed on the system. On macOS, install
// via:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// Client wraps Tesseract for OCR operations.
type Client struct {
	client *gosseract.Client
}

// New creates a new OCR client.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// SetLanguage sets the language(s) for OCR recognition.
// Multiple languages can be specified as a "+" separated string (e.g., "eng+fra").
// Default is "eng" (English).
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// SetPageSegMode sets the page segmentation mode.
// This affects how Tesseract analyzes the page layout.
// See gosseract.PageSegMode constants for available modes.
func (c *Client) SetPageSegMode(mode gosseract.PageSegMode) error {
	return c.client.SetPageSegMode(mode)
}

// Recognize runs OCR on a rendered page image and returns the
// recognized words as structured text in page points. scale is the
// pixels-per-point factor the image was rendered at; word boxes are
// mapped back through it. Each word becomes one fragment, its box
// divided evenly across the word's characters, with a synthetic space
// between consecutive words.
func (c *Client) Recognize(ctx context.Context, img image.Image, scale float64) (*document.StructuredText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	if err := c.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wordsToText(boxes, scale), nil
}

// wordsToText converts word-level bounding boxes into per-character
// structured text. Character boxes are synthesized by dividing each
// word box horizontally, which is as fine as word-level OCR output
// allows.
func wordsToText(boxes []gosseract.BoundingBox, scale float64) *document.StructuredText {
	st := &document.StructuredText{}
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		runes := []rune(word)
		if len(runes) == 0 {
			continue
		}
		if len(st.Chars) > 0 {
			st.Chars = append(st.Chars, document.CharRect{Rune: ' '})
		}

		rect := geom.NewRect(
			float64(b.Box.Min.X)/scale,
			float64(b.Box.Min.Y)/scale,
			float64(b.Box.Dx())/scale,
			float64(b.Box.Dy())/scale,
		)
		advance := rect.Width / float64(len(runes))

		start := len(st.Chars)
		for i, r := range runes {
			st.Chars = append(st.Chars, document.CharRect{
				Rune: r,
				Rect: geom.NewRect(rect.X+float64(i)*advance, rect.Y, advance, rect.Height),
			})
		}
		st.Fragments = append(st.Fragments, document.Fragment{
			Start:     start,
			End:       len(st.Chars),
			Rect:      rect,
			Direction: document.DetectDirection(word),
		})
	}
	return st
}
