package app

import (
	"log/slog"

	"github.com/deusflow/meternews/internal/config"
	"github.com/deusflow/meternews/internal/storage"
)

// SentStore is the unified interface over the sent-article cache backends.
type SentStore interface {
	GenerateArticleHash(title, url string) string
	IsAlreadySent(hash string) bool
	MarkAsSent(hash, title, url, source, fetchedFrom string) error
	Close() error
}

// newSentStore picks Postgres when DATABASE_URL is set, the JSON file cache
// otherwise. A backend that fails to open degrades to a no-op store: a
// broken cache must not stop the digest.
func newSentStore(cfg *config.Config) SentStore {
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresCache(cfg.DatabaseURL, cfg.CacheTTLHours)
		if err == nil {
			return pg
		}
		slog.Warn("postgres cache unavailable, falling back to file cache", "error", err)
	}

	fc := storage.NewFileCache(cfg.CacheFilePath, cfg.CacheTTLHours)
	if err := fc.Load(); err != nil {
		slog.Warn("file cache load failed, continuing without history", "error", err)
		return noopStore{}
	}
	return fc
}

// noopStore treats every article as unseen and forgets everything.
type noopStore struct{}

func (noopStore) GenerateArticleHash(title, url string) string {
	return storage.HashArticle(title, url)
}
func (noopStore) IsAlreadySent(string) bool             { return false }
func (noopStore) MarkAsSent(_, _, _, _, _ string) error { return nil }
func (noopStore) Close() error                          { return nil }
