package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trogers1052/trading-journal/internal/store"
)

// Load returns the stored body of a journal document
func (db *DB) Load(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT body FROM journal_documents WHERE doc_key = $1`

	var body []byte
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return body, nil
}

// Save replaces a journal document, creating it on first write
func (db *DB) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO journal_documents (doc_key, body, version, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (doc_key) DO UPDATE SET
			body = EXCLUDED.body,
			version = journal_documents.version + 1,
			updated_at = NOW()
	`
	if _, err := db.conn.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// DocumentVersion returns how many times a document has been written
func (db *DB) DocumentVersion(ctx context.Context, key string) (int64, error) {
	query := `SELECT version FROM journal_documents WHERE doc_key = $1`

	var version int64
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get document version %s: %w", key, err)
	}
	return version, nil
}

// CommandSeen reports whether a consumed command id was already applied
func (db *DB) CommandSeen(ctx context.Context, commandID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM processed_commands WHERE command_id = $1)`

	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, commandID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check command %s: %w", commandID, err)
	}
	return exists, nil
}

// MarkCommand records a command id as applied
func (db *DB) MarkCommand(ctx context.Context, commandID, source string) error {
	query := `
		INSERT INTO processed_commands (command_id, source, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (command_id) DO NOTHING
	`
	if _, err := db.conn.ExecContext(ctx, query, commandID, source); err != nil {
		return fmt.Errorf("failed to mark command %s: %w", commandID, err)
	}
	return nil
}
