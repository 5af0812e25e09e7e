package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/stitcher/internal/entries"
	"github.com/lehigh-university-libraries/stitcher/internal/loader"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

// saveImageFile stores an upload under the uploads directory. The entry
// owns the file and deletes it on removal.
func (h *Handler) saveImageFile(fileData []byte, filename, contentType string) (session.File, error) {
	imageFilename := uuid.NewString() + filepath.Ext(filename)
	imageFilePath := filepath.Join(h.uploadsDir, imageFilename)

	if err := os.WriteFile(imageFilePath, fileData, 0644); err != nil {
		return session.File{}, fmt.Errorf("failed to save image: %w", err)
	}

	slog.Info("Image saved", "filename", imageFilename, "name", filename, "content_type", contentType)

	return session.File{
		Name:        filename,
		ContentType: contentType,
		Source:      &entries.FileRef{Path: imageFilePath, Owned: true},
	}, nil
}

// fileFromURL downloads imageURL into the uploads directory. URL imports
// carry no declared type, so the type is sniffed from the bytes.
func (h *Handler) fileFromURL(ctx context.Context, imageURL string) (session.File, error) {
	imageData, err := downloadImageFromURL(ctx, imageURL)
	if err != nil {
		return session.File{}, err
	}

	filename := "image"
	if u, err := url.Parse(imageURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			filename = base
		}
	}

	return h.saveImageFile(imageData, filename, mimetype.Detect(imageData).String())
}

func downloadImageFromURL(ctx context.Context, imageURL string) ([]byte, error) {
	body, err := entries.NewURLRef(imageURL).Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer body.Close()

	imageData, err := io.ReadAll(io.LimitReader(body, loader.DefaultMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(imageData)) > loader.DefaultMaxBytes {
		return nil, loader.ErrTooLarge
	}
	return imageData, nil
}

func (h *Handler) releaseFiles(files []session.File) {
	for _, f := range files {
		if f.Source == nil {
			continue
		}
		if err := f.Source.Release(); err != nil {
			slog.Warn("Failed to release upload", "name", f.Name, "error", err)
		}
	}
}
