// Package storage remembers which articles were already delivered in past
// runs, so consecutive digests don't repeat a story. Two backends exist: a
// JSON file and PostgreSQL.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// SentArticle is one delivered article remembered across runs.
type SentArticle struct {
	Hash        string    `json:"hash"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	FetchedFrom string    `json:"fetched_from"`
	SentAt      time.Time `json:"sent_at"`
}

// FileCache keeps sent articles in a JSON file with a TTL.
type FileCache struct {
	filePath string
	ttlHours int
	items    map[string]SentArticle
	mu       sync.RWMutex
}

// NewFileCache creates a file cache instance; call Load before use.
func NewFileCache(filePath string, ttlHours int) *FileCache {
	return &FileCache{
		filePath: filePath,
		ttlHours: ttlHours,
		items:    make(map[string]SentArticle),
	}
}

// Load reads the cache file, dropping entries older than the TTL. A missing
// or empty file starts an empty cache.
func (fc *FileCache) Load() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if _, err := os.Stat(fc.filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(fc.filePath)
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []SentArticle
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(fc.ttlHours) * time.Hour)
	for _, item := range items {
		if item.SentAt.After(cutoff) {
			fc.items[item.Hash] = item
		}
	}
	return nil
}

// Save writes the current cache back to disk.
func (fc *FileCache) Save() error {
	fc.mu.RLock()
	items := make([]SentArticle, 0, len(fc.items))
	for _, item := range fc.items {
		items = append(items, item)
	}
	fc.mu.RUnlock()

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if err := os.WriteFile(fc.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// GenerateArticleHash derives the cache key from a title and URL.
func (fc *FileCache) GenerateArticleHash(title, url string) string {
	return HashArticle(title, url)
}

// IsAlreadySent reports whether the hash was delivered within the TTL.
func (fc *FileCache) IsAlreadySent(hash string) bool {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	item, exists := fc.items[hash]
	if !exists {
		return false
	}
	cutoff := time.Now().Add(-time.Duration(fc.ttlHours) * time.Hour)
	return item.SentAt.After(cutoff)
}

// MarkAsSent records a delivered article.
func (fc *FileCache) MarkAsSent(hash, title, url, source, fetchedFrom string) error {
	fc.mu.Lock()
	fc.items[hash] = SentArticle{
		Hash:        hash,
		Title:       title,
		URL:         url,
		Source:      source,
		FetchedFrom: fetchedFrom,
		SentAt:      time.Now(),
	}
	fc.mu.Unlock()
	return fc.Save()
}

// Close flushes the cache to disk.
func (fc *FileCache) Close() error {
	return fc.Save()
}

// HashArticle is the shared cache key: sha256 of title+URL, hex-encoded.
func HashArticle(title, url string) string {
	h := sha256.New()
	h.Write([]byte(title + url))
	return hex.EncodeToString(h.Sum(nil))
}
