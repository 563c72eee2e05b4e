package iocache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/huangsam/riskscan/internal/contract"
	"github.com/huangsam/riskscan/schema"
)

const fileCacheExt = ".json"

var cacheKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// fileCacheEntry is the on-disk envelope of one cache entry.
type fileCacheEntry struct {
	Version   int             `json:"version"`
	Timestamp int64           `json:"timestamp"`
	Value     json.RawMessage `json:"value"`
}

// FileCacheStore keeps one JSON file per cache key inside a directory.
type FileCacheStore struct {
	dir string
}

var _ contract.CacheStore = &FileCacheStore{} // Compile-time check

// NewFileCacheStore creates the cache directory if needed.
func NewFileCacheStore(dir string) (*FileCacheStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %q: %w", dir, err)
	}
	return &FileCacheStore{dir: dir}, nil
}

func (fc *FileCacheStore) path(key string) (string, error) {
	if !cacheKeyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid cache key: %q", key)
	}
	return filepath.Join(fc.dir, key+fileCacheExt), nil
}

// Get reads the entry for key. A missing file is reported as os.ErrNotExist.
func (fc *FileCacheStore) Get(key string) ([]byte, int, int64, error) {
	path, err := fc.path(key)
	if err != nil {
		return nil, 0, 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, err
	}
	var entry fileCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache file %s: %w", path, err)
	}
	return entry.Value, entry.Version, entry.Timestamp, nil
}

// Set writes the entry atomically through a temporary file. Values must be JSON.
func (fc *FileCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	path, err := fc.path(key)
	if err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("file cache only stores JSON values (key %q)", key)
	}
	data, err := json.Marshal(fileCacheEntry{Version: version, Timestamp: timestamp, Value: value})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(fc.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	ts := time.Unix(timestamp, 0)
	_ = os.Chtimes(path, ts, ts)
	return nil
}

// entries lists the cache files in the directory.
func (fc *FileCacheStore) entries() ([]os.DirEntry, error) {
	all, err := os.ReadDir(fc.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []os.DirEntry
	for _, e := range all {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), fileCacheExt) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetStatus summarizes the files in the cache directory.
func (fc *FileCacheStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.FileBackend), Connected: true}

	files, err := fc.entries()
	if err != nil {
		return status, fmt.Errorf("failed to list cache directory: %w", err)
	}
	for _, e := range files {
		var info os.FileInfo
		if info, err = e.Info(); err != nil {
			continue
		}
		status.TotalEntries++
		status.TableSizeBytes += info.Size()
		mod := info.ModTime()
		if status.LastEntryTime.IsZero() || mod.After(status.LastEntryTime) {
			status.LastEntryTime = mod
		}
		if status.OldestEntryTime.IsZero() || mod.Before(status.OldestEntryTime) {
			status.OldestEntryTime = mod
		}
	}
	return status, nil
}

// Close is a no-op for the file store.
func (fc *FileCacheStore) Close() error {
	return nil
}

// clear removes every cache file in the directory, leaving other files alone.
func (fc *FileCacheStore) clear() error {
	files, err := fc.entries()
	if err != nil {
		return err
	}
	for _, e := range files {
		if err := os.Remove(filepath.Join(fc.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove cache file %s: %w", e.Name(), err)
		}
	}
	return nil
}
