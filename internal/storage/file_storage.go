package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/nextread/backend/internal/fetcher"
)

// ContentStorage defines the interface for caching downloaded sources
type ContentStorage interface {
	Save(result *fetcher.FetchResult) error
	Get(url string) (*fetcher.FetchResult, error)
	Close() error
}

// FileStorage implements ContentStorage using the local file system. Each
// source is stored as a body file plus a JSON metadata sidecar.
type FileStorage struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{
		baseDir: baseDir,
	}, nil
}

// Save writes the fetched body and its metadata to disk
func (fs *FileStorage) Save(result *fetcher.FetchResult) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	base := filepath.Join(fs.baseDir, safeFilename(result.URL))

	meta, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Body first, so a metadata file never points at a missing body
	if err := writeAtomic(base+".data", result.Body); err != nil {
		return fmt.Errorf("failed to write body: %w", err)
	}
	if err := writeAtomic(base+".json", meta); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// Get retrieves a cached source from disk
func (fs *FileStorage) Get(url string) (*fetcher.FetchResult, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	base := filepath.Join(fs.baseDir, safeFilename(url))

	meta, err := os.ReadFile(base + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var result fetcher.FetchResult
	if err := json.Unmarshal(meta, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	result.Body, err = os.ReadFile(base + ".data")
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return &result, nil
}

// Close is a no-op for file storage
func (fs *FileStorage) Close() error {
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// safeFilename converts a URL to a readable, collision-free file stem
func safeFilename(rawURL string) string {
	var sb strings.Builder
	for _, r := range rawURL {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
		if sb.Len() >= 80 {
			break
		}
	}
	sum := sha1.Sum([]byte(rawURL))
	return sb.String() + "-" + hex.EncodeToString(sum[:6])
}
