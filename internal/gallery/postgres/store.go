package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/facegate/internal/gallery"
)

// Config holds connection settings for the gallery store.
type Config struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store persists enrolled identities in PostgreSQL with pgvector
// embeddings. The in-memory gallery stays authoritative at runtime,
// the store exists so enrollment survives restarts.
type Store struct {
	db *sql.DB
}

// Open creates a connection pool and verifies it.
func Open(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate creates the identities table for the given embedding
// dimension. Safe to call on every startup.
func (s *Store) Migrate(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid embedding dimension: %d", dim)
	}

	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS identities (
			name TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			samples INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, dim)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create identities table: %w", err)
	}
	return nil
}

// Save replaces the stored identities with the given gallery's
// contents in one transaction.
func (s *Store) Save(ctx context.Context, g *gallery.Gallery) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM identities"); err != nil {
		return fmt.Errorf("clearing identities: %w", err)
	}

	const insert = `
		INSERT INTO identities (name, embedding, samples, updated_at)
		VALUES ($1, $2, $3, now())
	`
	for _, id := range g.Identities() {
		if len(id.Embedding) == 0 {
			continue
		}
		vec := pgvector.NewVector(id.Embedding)
		if _, err := tx.ExecContext(ctx, insert, id.Name, vec, id.Samples); err != nil {
			return fmt.Errorf("inserting identity %q: %w", id.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing identities: %w", err)
	}
	return nil
}

// Load reads all stored identities into a fresh gallery.
func (s *Store) Load(ctx context.Context) (*gallery.Gallery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, embedding, samples
		FROM identities
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []gallery.Identity
	for rows.Next() {
		var id gallery.Identity
		var vec pgvector.Vector
		if err := rows.Scan(&id.Name, &vec, &id.Samples); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		id.Embedding = vec.Slice()
		identities = append(identities, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating identities: %w", err)
	}

	return gallery.New(identities), nil
}

// Count returns the number of stored identities.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}
