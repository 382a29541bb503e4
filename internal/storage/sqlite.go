package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/siftd/sift/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if needed.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		ordinal TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		tokens INTEGER NOT NULL DEFAULT 0,
		language TEXT,
		importance_score REAL NOT NULL DEFAULT 0,
		complexity_score REAL NOT NULL DEFAULT 0,
		comment_ratio REAL NOT NULL DEFAULT 0,
		has_tests INTEGER NOT NULL DEFAULT 0,
		has_documentation INTEGER NOT NULL DEFAULT 0,
		is_config INTEGER NOT NULL DEFAULT 0,
		is_generated INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);

	CREATE TABLE IF NOT EXISTS file_hashes (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

const chunkColumns = `id, path, ordinal, kind, content, tokens, language,
	importance_score, complexity_score, comment_ratio,
	has_tests, has_documentation, is_config, is_generated, created_at, updated_at`

// UpsertChunks inserts or replaces chunks by ID in one transaction.
func (s *SQLiteStorage) UpsertChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.StoreUnavailableError{Err: err}
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, path, ordinal, kind, content, tokens, language,
			importance_score, complexity_score, comment_ratio,
			has_tests, has_documentation, is_config, is_generated, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			ordinal = excluded.ordinal,
			kind = excluded.kind,
			content = excluded.content,
			tokens = excluded.tokens,
			language = excluded.language,
			importance_score = excluded.importance_score,
			complexity_score = excluded.complexity_score,
			comment_ratio = excluded.comment_ratio,
			has_tests = excluded.has_tests,
			has_documentation = excluded.has_documentation,
			is_config = excluded.is_config,
			is_generated = excluded.is_generated,
			updated_at = excluded.updated_at`)
	if err != nil {
		return &models.StoreUnavailableError{Err: err}
	}
	defer stmt.Close()
	now := time.Now().UTC()
	for _, ch := range chunks {
		m := ch.Metadata
		_, err := stmt.ExecContext(ctx, ch.ID, ch.Path, ch.Ordinal, string(ch.Kind),
			ch.Content, ch.Tokens, m.Language,
			m.ImportanceScore, m.ComplexityScore, m.CommentRatio,
			boolInt(m.HasTests), boolInt(m.HasDocumentation), boolInt(m.IsConfig), boolInt(m.IsGenerated), now)
		if err != nil {
			return &models.StoreUnavailableError{Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &models.StoreUnavailableError{Err: err}
	}
	return nil
}

// GetChunk returns the chunk with the given ID.
func (s *SQLiteStorage) GetChunk(ctx context.Context, id string) (*models.Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	return scanChunk(row)
}

// ChunksByPath returns all chunks for a path ordered by ordinal.
func (s *SQLiteStorage) ChunksByPath(ctx context.Context, path string) ([]*models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE path = ? ORDER BY ordinal`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ChunkIDsByPath returns the IDs of all live chunks for a path.
func (s *SQLiteStorage) ChunkIDsByPath(ctx context.Context, path string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteChunks removes chunks by ID. Deleting an absent ID is not an error.
func (s *SQLiteStorage) DeleteChunks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.StoreUnavailableError{Err: err}
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks WHERE id = ?`)
	if err != nil {
		return &models.StoreUnavailableError{Err: err}
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return &models.StoreUnavailableError{Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &models.StoreUnavailableError{Err: err}
	}
	return nil
}

// ListChunks returns up to limit chunks (all when limit <= 0).
func (s *SQLiteStorage) ListChunks(ctx context.Context, limit int) ([]*models.Chunk, error) {
	q := `SELECT ` + chunkColumns + ` FROM chunks ORDER BY path, ordinal`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// CountChunks returns the number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// CountFiles returns the number of distinct indexed paths.
func (s *SQLiteStorage) CountFiles(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT path) FROM chunks`).Scan(&n)
	return n, err
}

// FileHash returns the manifest hash for path, or "" when unknown.
func (s *SQLiteStorage) FileHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT hash FROM file_hashes WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// SetFileHash records the manifest hash for path.
func (s *SQLiteStorage) SetFileHash(ctx context.Context, path, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_hashes (path, hash, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`,
		path, hash, time.Now().UTC())
	if err != nil {
		return &models.StoreUnavailableError{Err: err}
	}
	return nil
}

// DeleteFileHash removes the manifest entry for path.
func (s *SQLiteStorage) DeleteFileHash(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM file_hashes WHERE path = ?`, path); err != nil {
		return &models.StoreUnavailableError{Err: err}
	}
	return nil
}

// Manifest returns the full path -> hash map.
func (s *SQLiteStorage) Manifest(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, hash FROM file_hashes`)
	if err != nil {
		return nil, fmt.Errorf("failed to query manifest: %w", err)
	}
	defer rows.Close()
	manifest := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		manifest[path] = hash
	}
	return manifest, rows.Err()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChunk(row rowScanner) (*models.Chunk, error) {
	var ch models.Chunk
	var kind string
	var hasTests, hasDocs, isConfig, isGenerated int
	err := row.Scan(&ch.ID, &ch.Path, &ch.Ordinal, &kind, &ch.Content, &ch.Tokens,
		&ch.Metadata.Language, &ch.Metadata.ImportanceScore, &ch.Metadata.ComplexityScore,
		&ch.Metadata.CommentRatio, &hasTests, &hasDocs, &isConfig, &isGenerated,
		&ch.CreatedAt, &ch.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk not found")
	}
	if err != nil {
		return nil, err
	}
	ch.Kind = models.ChunkKind(kind)
	ch.Metadata.HasTests = hasTests != 0
	ch.Metadata.HasDocumentation = hasDocs != 0
	ch.Metadata.IsConfig = isConfig != 0
	ch.Metadata.IsGenerated = isGenerated != 0
	return &ch, nil
}

func scanChunks(rows *sql.Rows) ([]*models.Chunk, error) {
	var chunks []*models.Chunk
	for rows.Next() {
		ch, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
