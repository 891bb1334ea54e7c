package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nextread/backend/internal/fetcher"
	"github.com/nextread/backend/internal/metrics"
	"github.com/nextread/backend/internal/storage"
)

// ErrDisallowed is returned when robots.txt forbids a source and no cached
// copy exists
var ErrDisallowed = errors.New("source disallowed by robots.txt")

// Checker decides whether and when a remote source may be requested
type Checker interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
	Wait(ctx context.Context, rawURL string) error
}

// Opener resolves a catalog source location to a readable stream. Local
// paths are opened directly; http(s) URLs are downloaded politely and
// cached, with the cache serving as fallback when the download fails.
type Opener struct {
	Fetcher *fetcher.Fetcher
	Storage storage.ContentStorage
	Checker Checker
	Logger  *logrus.Entry
}

func NewOpener(f *fetcher.Fetcher, store storage.ContentStorage, checker Checker, logger *logrus.Entry) *Opener {
	return &Opener{
		Fetcher: f,
		Storage: store,
		Checker: checker,
		Logger:  logger,
	}
}

// IsRemote reports whether location is an http(s) URL
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Open returns a reader over the source at location. The caller closes it.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !IsRemote(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open source: %w", err)
		}
		return f, nil
	}

	log := o.Logger.WithField("source", location)

	body, err := o.download(ctx, location)
	if err == nil {
		metrics.RecordSourceFetch("fetched")
		log.WithField("bytes", len(body)).Info("Downloaded source")
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	if errors.Is(err, ErrDisallowed) {
		metrics.RecordSourceFetch("blocked")
	}

	cached, cacheErr := o.Storage.Get(location)
	if cacheErr != nil {
		metrics.RecordSourceFetch("failed")
		return nil, fmt.Errorf("failed to fetch source %s: %w", location, err)
	}

	metrics.RecordSourceFetch("cached")
	log.WithError(err).WithField("fetched_at", cached.FetchedAt).Warn("Download failed, using cached copy")
	return io.NopCloser(bytes.NewReader(cached.Body)), nil
}

func (o *Opener) download(ctx context.Context, location string) ([]byte, error) {
	allowed, err := o.Checker.Allowed(ctx, location)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrDisallowed
	}

	if err := o.Checker.Wait(ctx, location); err != nil {
		return nil, err
	}

	result, err := o.Fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	if err := o.Storage.Save(result); err != nil {
		// A failed cache write does not invalidate the download
		o.Logger.WithError(err).WithField("source", location).Warn("Failed to cache source")
	}
	return result.Body, nil
}
