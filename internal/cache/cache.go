// Package cache stores evaluation results addressed by the content hash of
// the input that produced them. The contract is single-writer-per-key:
// concurrent writers for the same key are not coordinated, but readers never
// observe a torn entry because the file backend writes atomically.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/applicant-pipeline/internal/ai"
)

// Entry couples a stored result with the hash of the input it was computed
// from. An entry is stale as soon as the input's hash differs.
type Entry struct {
	Hash   string    `json:"hash"`
	Result ai.Result `json:"result"`
}

type Cache interface {
	// Get returns the entry stored under key, with ok=false when absent.
	Get(key string) (*Entry, bool, error)
	// Put replaces the entry stored under key.
	Put(key string, entry *Entry) error
}

// FileCache keeps one JSON file per key inside a directory.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) (*FileCache, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	// Keys are applicant business keys; anything path-hostile is flattened.
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)

	return filepath.Join(c.dir, fmt.Sprintf("eval_%s.json", key))
}

func (c *FileCache) Get(key string) (*Entry, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is treated as a miss so evaluation can proceed.
		return nil, false, nil
	}

	return &entry, true, nil
}

// Put writes via a temp file and rename so a concurrent reader sees either
// the old entry or the new one, never a partial write.
func (c *FileCache) Put(key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "eval_*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing cache entry: %w", err)
	}

	return nil
}
