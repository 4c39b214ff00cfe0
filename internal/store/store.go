// Package store caches generated readings in SQLite.
//
// Feature extraction is deterministic, so a reading only depends on the
// image bytes and the output language. Keying on both lets a repeated photo
// skip the generator entirely.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/palmreader-mcp/internal/detection"
)

// ErrNotFound is returned when no reading is cached for a key.
var ErrNotFound = errors.New("reading not found")

// DB is the reading cache.
type DB struct {
	*sql.DB
	path string
}

// Reading is one cached reading.
type Reading struct {
	ImageHash string                  `json:"image_hash" yaml:"image_hash"`
	Language  string                  `json:"language" yaml:"language"`
	Model     string                  `json:"model,omitempty" yaml:"model,omitempty"`
	Features  []detection.LineFeature `json:"features" yaml:"features"`
	Text      string                  `json:"reading" yaml:"reading"`
	CreatedAt time.Time               `json:"created_at" yaml:"created_at"`
}

func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	return sqlDB, nil
}

// Open opens or creates the cache at path, creating parent directories.
// ":memory:" opens a private in-memory cache.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	sqlDB, err := openDB(path)
	if err != nil {
		return nil, err
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.InitSchema(); err != nil {
		_ = db.Close() // Close error less important than schema error
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// InitSchema creates the tables if they do not exist.
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}

// GetReading returns the cached reading for an image hash and language.
// Returns ErrNotFound if there is none.
func (db *DB) GetReading(ctx context.Context, imageHash, lang string) (*Reading, error) {
	var (
		r        Reading
		model    sql.NullString
		features string
	)
	err := db.QueryRowContext(ctx, `
		SELECT image_hash, language, model, features, reading, created_at
		FROM readings
		WHERE image_hash = ? AND language = ?`, imageHash, lang,
	).Scan(&r.ImageHash, &r.Language, &model, &features, &r.Text, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reading: %w", err)
	}

	r.Model = model.String
	if err := json.Unmarshal([]byte(features), &r.Features); err != nil {
		return nil, fmt.Errorf("failed to decode cached features: %w", err)
	}
	return &r, nil
}

// PutReading stores r, replacing any reading with the same hash and language.
func (db *DB) PutReading(ctx context.Context, r Reading) error {
	if r.Features == nil {
		r.Features = []detection.LineFeature{}
	}
	features, err := json.Marshal(r.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO readings (image_hash, language, model, features, reading, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (image_hash, language) DO UPDATE SET
			model = excluded.model,
			features = excluded.features,
			reading = excluded.reading,
			created_at = excluded.created_at`,
		r.ImageHash, r.Language, r.Model, string(features), r.Text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store reading: %w", err)
	}
	return nil
}

// DeleteReadings removes every cached reading of an image.
// Returns the number of rows removed.
func (db *DB) DeleteReadings(ctx context.Context, imageHash string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM readings WHERE image_hash = ?`, imageHash)
	if err != nil {
		return 0, fmt.Errorf("failed to delete readings: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes readings created before cutoff.
func (db *DB) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM readings WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune readings: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of cached readings.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return n, nil
}
