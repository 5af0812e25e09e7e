package entries

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

var errReleased = errors.New("source released")

// SourceRef resolves to the raw bytes of an image. The owning entry
// releases it on removal.
type SourceRef interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Release() error
}

// FileRef reads a local file. Owned files are deleted on release.
type FileRef struct {
	Path  string
	Owned bool
}

func (f *FileRef) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return file, nil
}

func (f *FileRef) Release() error {
	if !f.Owned {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove upload", "path", f.Path, "error", err)
		return err
	}
	return nil
}

// BlobRef holds image bytes in memory.
type BlobRef struct {
	mu   sync.Mutex
	data []byte
}

func NewBlobRef(data []byte) *BlobRef {
	return &BlobRef{data: data}
}

func (b *BlobRef) Open(ctx context.Context) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, errReleased
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (b *BlobRef) Release() error {
	b.mu.Lock()
	b.data = nil
	b.mu.Unlock()
	return nil
}

// URLRef fetches the image over HTTP each time it is opened.
type URLRef struct {
	URL        string
	HTTPClient *http.Client
}

// NewURLRef creates a URL source with a bounded client timeout.
func NewURLRef(url string) *URLRef {
	return &URLRef{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (u *URLRef) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	client := u.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (u *URLRef) Release() error {
	return nil
}
