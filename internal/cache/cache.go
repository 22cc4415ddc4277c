// Package cache stores chat completions on disk so that repeating the same
// conversation against the same model does not cost another request.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/provider"
)

const (
	// CacheDirPerm is the permission for the cache directory (0700 = rwx------)
	CacheDirPerm os.FileMode = 0700
	// CacheFilePerm is the permission for cache files (0600 = rw-------)
	// Cached conversations may contain private prompts
	CacheFilePerm os.FileMode = 0600
)

type Cache struct {
	dir string
	ttl time.Duration
}

type CacheEntry struct {
	Hash       string             `json:"hash"`
	Provider   string             `json:"provider"`
	Model      string             `json:"model"`
	Messages   []provider.Message `json:"messages"`
	Completion string             `json:"completion"`
	Timestamp  int64              `json:"timestamp"`
}

// New opens the cache under the config directory, creating it if needed.
func New(ttlDays int) (*Cache, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return NewAt(filepath.Join(dir, "cache"), ttlDays)
}

// NewAt opens a cache rooted at dir.
func NewAt(dir string, ttlDays int) (*Cache, error) {
	if ttlDays < 0 {
		return nil, fmt.Errorf("cache TTL days must be non-negative, got %d", ttlDays)
	}
	if err := os.MkdirAll(dir, CacheDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Cache{
		dir: filepath.Clean(dir),
		ttl: time.Duration(ttlDays) * 24 * time.Hour,
	}, nil
}

// Key identifies a completion by provider, request target and the exact
// conversation sent. target is provider.Fingerprint of the client config.
// Every part is length-prefixed so that different splits of the same text
// never collide.
func (c *Cache) Key(kind provider.Kind, target string, messages []provider.Message) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%s%d:%s", len(kind), kind, len(target), target)
	for _, m := range messages {
		fmt.Fprintf(h, "%d:%s%d:%s", len(m.Role), m.Role, len(m.Content), m.Content)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns the cached completion for key, if present and not expired.
func (c *Cache) Get(key string) (string, bool) {
	path, ok := c.path(key)
	if !ok {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}

	// Check if expired
	if time.Since(time.Unix(entry.Timestamp, 0)) > c.ttl {
		_ = os.Remove(path) // Ignore error on removal
		return "", false
	}

	return entry.Completion, true
}

// Set stores completion under key along with what produced it.
func (c *Cache) Set(key string, kind provider.Kind, model string, messages []provider.Message, completion string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	path, ok := c.path(key)
	if !ok {
		return fmt.Errorf("invalid cache key %q", key)
	}

	entry := CacheEntry{
		Hash:       key,
		Provider:   string(kind),
		Model:      model,
		Messages:   messages,
		Completion: completion,
		Timestamp:  time.Now().Unix(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(path, data, CacheFilePerm); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Clear removes every cached entry and reports how many were removed.
func (c *Cache) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove %s: %w", m, err)
		}
		removed++
	}
	return removed, nil
}

// path maps key to its file, rejecting anything that is not a SHA-256 hex
// digest so that keys can never escape the cache directory.
func (c *Cache) path(key string) (string, bool) {
	if !isValidHash(key) {
		return "", false
	}
	path := filepath.Clean(filepath.Join(c.dir, key+".json"))
	if !strings.HasPrefix(path, c.dir+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// isValidHash validates that the hash is a valid SHA256 hex string (64 characters)
func isValidHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	for _, r := range hash {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}
