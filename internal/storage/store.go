package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/raine/lootlook/internal/appraisal"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteStore caches identification results in SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the cache database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// The file exists once the schema is created.
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("dbPath", dbPath).Msg("failed to restrict cache database permissions")
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS identification_cache (
		image_hash TEXT PRIMARY KEY,
		brand TEXT,
		model TEXT,
		condition TEXT,
		color TEXT,
		category TEXT NOT NULL,
		raw_description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create identification_cache table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetIdentification retrieves a cached identification. Returns nil if not found.
func (s *SQLiteStore) GetIdentification(imageHash string) (*appraisal.IdentificationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result appraisal.IdentificationResult
	var brand, model, condition, color, description sql.NullString
	err := s.db.QueryRow(
		`SELECT brand, model, condition, color, category, raw_description
		FROM identification_cache WHERE image_hash = ?`,
		imageHash,
	).Scan(&brand, &model, &condition, &color, &result.Category, &description)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query identification cache: %w", err)
	}

	result.Brand = brand.String
	result.Model = model.String
	result.Condition = condition.String
	result.Color = color.String
	result.RawDescription = description.String

	return &result, nil
}

// SetIdentification stores an identification in the cache.
func (s *SQLiteStore) SetIdentification(imageHash string, result appraisal.IdentificationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO identification_cache (image_hash, brand, model, condition, color, category, raw_description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(image_hash) DO UPDATE SET
			brand = excluded.brand,
			model = excluded.model,
			condition = excluded.condition,
			color = excluded.color,
			category = excluded.category,
			raw_description = excluded.raw_description,
			created_at = CURRENT_TIMESTAMP
	`, imageHash,
		nullIfEmpty(result.Brand),
		nullIfEmpty(result.Model),
		nullIfEmpty(result.Condition),
		nullIfEmpty(result.Color),
		result.CategoryOrUnknown(),
		nullIfEmpty(result.RawDescription),
	)
	if err != nil {
		return fmt.Errorf("failed to cache identification: %w", err)
	}
	return nil
}

// PruneIdentifications deletes cache entries older than maxAge and returns
// how many were removed.
func (s *SQLiteStore) PruneIdentifications(maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-maxAge).Format("2006-01-02 15:04:05")
	res, err := s.db.Exec(`DELETE FROM identification_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune identification cache: %w", err)
	}
	return res.RowsAffected()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
