package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"fotoforge/pkg/cache"
	"fotoforge/pkg/logger"
)

// ErrProcessing wraps failures to produce an output image from a decoded one.
var ErrProcessing = errors.New("image processing failed")

// ErrNoSource is returned for an empty source or a zero-byte payload.
// Callers treat it as a no-op.
var ErrNoSource = errors.New("no image source")

// DecodeError reports a source that could not be fetched or decoded.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to load image from %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoded is a loaded source: the bitmap plus the exact bytes it came from.
type Decoded struct {
	Image image.Image
	Data  []byte
	MIME  string
}

func (d Decoded) Width() int  { return d.Image.Bounds().Dx() }
func (d Decoded) Height() int { return d.Image.Bounds().Dy() }

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	AssetsDir    string
	FetchTimeout time.Duration
	MaxBytes     int64
	Cache        *cache.MemoryCache
	Client       *http.Client
}

// Loader resolves project image sources: data URLs, absolute http(s) URLs
// and site-relative paths under the static assets directory.
type Loader struct {
	assetsDir string
	maxBytes  int64
	client    *http.Client
	cache     *cache.MemoryCache
	group     singleflight.Group
}

const defaultMaxBytes = 10 * 1024 * 1024

func NewLoader(opts LoaderOptions) *Loader {
	client := opts.Client
	if client == nil {
		timeout := opts.FetchTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &Loader{
		assetsDir: opts.AssetsDir,
		maxBytes:  maxBytes,
		client:    client,
		cache:     opts.Cache,
	}
}

// Load fetches and decodes src. Failures are *DecodeError except for an
// empty source, which is ErrNoSource.
func (l *Loader) Load(ctx context.Context, src string) (Decoded, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Decoded{}, ErrNoSource
	}

	data, err := l.fetch(ctx, src)
	if err != nil {
		if errors.Is(err, ErrNoSource) {
			return Decoded{}, err
		}
		return Decoded{}, &DecodeError{Source: describe(src), Err: err}
	}
	return DecodeBytes(data, describe(src))
}

// DecodeBytes decodes an already-read payload, e.g. an uploaded file.
func DecodeBytes(data []byte, source string) (Decoded, error) {
	if len(data) == 0 {
		return Decoded{}, ErrNoSource
	}

	img, mime, err := decodeImage(data)
	if err != nil {
		return Decoded{}, &DecodeError{Source: source, Err: err}
	}
	return Decoded{Image: img, Data: data, MIME: mime}, nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case isDataURL(src):
		_, data, err := DecodeDataURL(src)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, ErrNoSource
		}
		return data, nil
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		return l.fetchRemote(ctx, src)
	default:
		return l.readAsset(src)
	}
}

// fetchRemote downloads src once per cache lifetime. Concurrent requests for
// the same URL share a single download.
func (l *Loader) fetchRemote(ctx context.Context, src string) ([]byte, error) {
	if l.cache != nil {
		if data, ok := l.cache.Get(src); ok {
			return data, nil
		}
	}

	v, err, _ := l.group.Do(src, func() (any, error) {
		// Shared by every waiting caller, so one caller leaving cannot fail the others.
		req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "fotoforge")

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("remote responded with status %d", resp.StatusCode)
		}

		data, err := readLimited(resp.Body, l.maxBytes)
		if err != nil {
			return nil, err
		}

		if l.cache != nil {
			l.cache.Set(src, data)
		}
		logger.LogInfo("Fetched remote image %s (%d bytes)", src, len(data))
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// readAsset reads a site-relative path from the assets directory. Paths
// cannot climb out of it.
func (l *Loader) readAsset(src string) ([]byte, error) {
	if l.assetsDir == "" {
		return nil, fmt.Errorf("no assets directory configured")
	}

	clean := path.Clean("/" + src)
	full := filepath.Join(l.assetsDir, filepath.FromSlash(clean))

	f, err := os.Open(full)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := readLimited(f, l.maxBytes)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoSource
	}
	return data, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}

// describe names a source for logs and errors without echoing payloads.
func describe(src string) string {
	if isDataURL(src) {
		meta, _, _ := strings.Cut(src, ",")
		return fmt.Sprintf("%s (%d chars)", meta, len(src))
	}
	return src
}
