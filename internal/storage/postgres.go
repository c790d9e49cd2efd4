package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// PostgresCache keeps sent articles in a PostgreSQL table, for deployments
// where the working directory does not survive between runs.
type PostgresCache struct {
	db       *sql.DB
	ttlHours int
}

// NewPostgresCache connects, verifies the connection and ensures the schema.
func NewPostgresCache(connectionString string, ttlHours int) (*PostgresCache, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cache := &PostgresCache{db: db, ttlHours: ttlHours}
	if err := cache.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL cache connected")
	return cache, nil
}

func (pc *PostgresCache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sent_articles (
		hash TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT,
		source TEXT,
		fetched_from TEXT,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_sent_articles_sent_at ON sent_articles (sent_at);
	`
	_, err := pc.db.Exec(schema)
	return err
}

// GenerateArticleHash derives the cache key from a title and URL.
func (pc *PostgresCache) GenerateArticleHash(title, url string) string {
	return HashArticle(title, url)
}

// IsAlreadySent reports whether the hash was delivered within the TTL.
// Query errors degrade to "not sent" so a flaky database never blocks a
// digest.
func (pc *PostgresCache) IsAlreadySent(hash string) bool {
	cutoff := time.Now().Add(-time.Duration(pc.ttlHours) * time.Hour)

	var exists bool
	err := pc.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM sent_articles WHERE hash = $1 AND sent_at > $2)`,
		hash, cutoff,
	).Scan(&exists)
	if err != nil {
		slog.Warn("sent-article lookup failed", "error", err)
		return false
	}
	return exists
}

// MarkAsSent records a delivered article and prunes entries past the TTL.
func (pc *PostgresCache) MarkAsSent(hash, title, url, source, fetchedFrom string) error {
	_, err := pc.db.Exec(
		`INSERT INTO sent_articles (hash, title, url, source, fetched_from, sent_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (hash) DO UPDATE SET sent_at = NOW()`,
		hash, title, url, source, fetchedFrom,
	)
	if err != nil {
		return fmt.Errorf("failed to mark article as sent: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(pc.ttlHours) * time.Hour)
	if _, err := pc.db.Exec(`DELETE FROM sent_articles WHERE sent_at < $1`, cutoff); err != nil {
		slog.Warn("sent-article cleanup failed", "error", err)
	}
	return nil
}

// Close releases the database connection.
func (pc *PostgresCache) Close() error {
	return pc.db.Close()
}
