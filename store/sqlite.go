package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/tbxark/formbuilder/types"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS forms (
	form_id    TEXT PRIMARY KEY,
	form_title TEXT NOT NULL,
	created_at TEXT NOT NULL,
	document   TEXT NOT NULL
);`

// SQLiteStore keeps forms in one table. The document column holds the same
// bytes the file store would write.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and creates if needed) the database at path. Use
// ":memory:" for a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path not set")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			slog.Error("Failed to create database directory", "error", err, "dir", dir)
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	slog.Debug("Opening SQLite database", "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one connection keeps ":memory:" a single database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Read(ctx context.Context, formID string) (*types.FormDocument, error) {
	if err := checkID(formID); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM forms WHERE form_id = ?`, formID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, formID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query form %s: %w", formID, err)
	}
	var doc types.FormDocument
	if err := sonic.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode form %s: %w", formID, err)
	}
	return &doc, nil
}

func (s *SQLiteStore) Write(ctx context.Context, doc *types.FormDocument) error {
	if doc == nil {
		return errors.New("nil form document")
	}
	if err := checkID(doc.FormID); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO forms (form_id, form_title, created_at, document) VALUES (?, ?, ?, ?)
ON CONFLICT(form_id) DO UPDATE SET form_title = excluded.form_title, created_at = excluded.created_at, document = excluded.document`,
		doc.FormID, doc.FormContent.FormTitle, doc.CreatedAt, string(data))
	if err != nil {
		slog.Error("SQLiteStore Write failed", "error", err, "form_id", doc.FormID)
		return fmt.Errorf("failed to upsert form %s: %w", doc.FormID, err)
	}
	slog.Debug("SQLiteStore Write succeeded", "form_id", doc.FormID)
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT form_id, form_title, created_at FROM forms`)
	if err != nil {
		return nil, fmt.Errorf("failed to query forms: %w", err)
	}
	defer rows.Close()

	var items []Summary
	for rows.Next() {
		var item Summary
		if err := rows.Scan(&item.FormID, &item.Title, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan form row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate form rows: %w", err)
	}
	sortNewestFirst(items)
	return items, nil
}
