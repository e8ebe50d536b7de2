// Package preview extracts the metadata and first-page thumbnail stored with each uploaded PDF.
package preview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"doclib/internal/logger"
)

// ErrUnreadable is returned when the file cannot be parsed as a PDF.
var ErrUnreadable = errors.New("unreadable pdf")

// Preview is what an upload learns about a PDF before it is stored.
type Preview struct {
	Title     string
	Author    *string
	PageCount *int32
	// Thumbnail is a base64 JPEG of the first page, or empty when rendering failed.
	Thumbnail string
}

// Renderer extracts a Preview from a PDF on local disk.
type Renderer interface {
	ExtractPreview(ctx context.Context, path, fallbackTitle string) (*Preview, error)
}

// Rasterizer renders the first page of a PDF as JPEG bytes.
type Rasterizer interface {
	FirstPageJPEG(ctx context.Context, path string) ([]byte, error)
}

// PDFRenderer reads document info with ledongthuc/pdf and delegates thumbnails to a Rasterizer.
type PDFRenderer struct {
	raster Rasterizer
	log    *slog.Logger
}

var _ Renderer = (*PDFRenderer)(nil)

// NewPDFRenderer builds a renderer. A nil raster disables thumbnails.
func NewPDFRenderer(raster Rasterizer, log *slog.Logger) *PDFRenderer {
	return &PDFRenderer{raster: raster, log: logger.Component(log, "preview")}
}

// ExtractPreview fails only when the PDF cannot be parsed. A thumbnail failure
// is logged and leaves Thumbnail empty.
func (r *PDFRenderer) ExtractPreview(ctx context.Context, path, fallbackTitle string) (*Preview, error) {
	info, err := readInfo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	p := &Preview{Title: info.title}
	if p.Title == "" {
		p.Title = fallbackTitle
	}
	if info.author != "" {
		p.Author = &info.author
	}
	if info.pages > 0 {
		n := int32(info.pages)
		p.PageCount = &n
	}

	if r.raster != nil {
		img, err := r.raster.FirstPageJPEG(ctx, path)
		if err != nil {
			r.log.Warn("thumbnail render failed",
				slog.String("event", "thumbnail"),
				slog.String("file", fallbackTitle),
				slog.String("error", err.Error()))
		} else {
			p.Thumbnail = base64.StdEncoding.EncodeToString(img)
		}
	}
	return p, nil
}

type docInfo struct {
	title  string
	author string
	pages  int
}

// readInfo recovers from parser panics, which ledongthuc/pdf raises on malformed objects.
func readInfo(path string) (info docInfo, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	meta := r.Trailer().Key("Info")
	info.title = strings.TrimSpace(meta.Key("Title").Text())
	info.author = strings.TrimSpace(meta.Key("Author").Text())
	info.pages = r.NumPage()
	return info, nil
}
