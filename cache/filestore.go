package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore implements Store using one JSON file per key
type FileStore struct {
	dir string
}

type fileRecord struct {
	Updated time.Time `json:"updated"`
	Body    string    `json:"body"`
}

// NewFileStore creates a store under ~/.occapi_cache/<namespace>
func NewFileStore(namespace string) (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewFileStoreAt(filepath.Join(home, ".occapi_cache", namespace))
}

// NewFileStoreAt creates a store rooted at dir
func NewFileStoreAt(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Read implements Reader interface
func (fc *FileStore) Read(ctx context.Context, key string) (*Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(fc.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}

	return &Entry{Body: json.RawMessage(rec.Body), Updated: rec.Updated}, true, nil
}

// Write implements Writer interface
func (fc *FileStore) Write(ctx context.Context, key string, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Updated.IsZero() {
		entry.Updated = time.Now()
	}

	data, err := json.MarshalIndent(fileRecord{Updated: entry.Updated, Body: string(entry.Body)}, "", "  ")
	if err != nil {
		return err
	}

	// Write to temporary file first, then rename (atomic operation)
	path := fc.path(key)
	tmpPath := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// path generates the full filesystem path for a key
func (fc *FileStore) path(key string) string {
	return filepath.Join(fc.dir, sanitizeKey(key)+".json")
}

// sanitizeKey ensures the key is safe for use as a filename. Keys that had
// to be altered get a hash suffix so two keys never share a file.
func sanitizeKey(key string) string {
	// For very long keys, use hash to avoid filesystem limits
	if len(key) > 200 {
		return fmt.Sprintf("hash_%x", md5.Sum([]byte(key)))
	}

	unsafe := []string{"/", "\\", ":", "?", "&", "=", "#", "<", ">", "|", "*", "\"", " "}
	result := key
	for _, char := range unsafe {
		result = strings.ReplaceAll(result, char, "_")
	}

	if result != key {
		sum := md5.Sum([]byte(key))
		result += fmt.Sprintf("_%x", sum[:4])
	}
	return result
}
