// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend persists CRDT document blocks in a single SQLite
// file. It is adapted from the gateway's session store: same
// WAL-mode-for-single-writer-durability posture, same
// sql.Open("sqlite3", ...) + schema-on-open pattern, repurposed from
// a sessions table to a generic document-blocks table.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite-backed Backend at
// path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &Fault{Op: "open", Err: fmt.Errorf("create data dir: %w", err)}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &Fault{Op: "open", Err: err}
	}

	// Single-writer engine (§5): WAL gives us durability without
	// contending with readers mid-write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, &Fault{Op: "open", Err: fmt.Errorf("enable WAL mode: %w", err)}
	}

	backend := &SQLiteBackend{db: db}
	if err := backend.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return backend, nil
}

func (s *SQLiteBackend) ensureSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS document_blocks (
		document_id TEXT NOT NULL,
		block_id    TEXT NOT NULL,
		data        BLOB NOT NULL,
		seq         INTEGER NOT NULL,
		PRIMARY KEY (document_id, block_id)
	);
	CREATE INDEX IF NOT EXISTS idx_document_blocks_doc ON document_blocks(document_id, seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return &Fault{Op: "ensureSchema", Err: err}
	}
	return nil
}

func (s *SQLiteBackend) Save(blocks []Block) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &Fault{Op: "save", Err: err}
	}

	for _, b := range blocks {
		var nextSeq int
		row := tx.QueryRow(`SELECT COALESCE(MAX(seq), -1) + 1 FROM document_blocks WHERE document_id = ?`, b.DocumentID)
		if err := row.Scan(&nextSeq); err != nil {
			tx.Rollback()
			return &Fault{Op: "save", Err: err}
		}

		_, err := tx.Exec(
			`INSERT INTO document_blocks (document_id, block_id, data, seq) VALUES (?, ?, ?, ?)
			 ON CONFLICT(document_id, block_id) DO UPDATE SET data = excluded.data`,
			b.DocumentID, b.BlockID, b.Data, nextSeq,
		)
		if err != nil {
			tx.Rollback()
			return &Fault{Op: "save", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Fault{Op: "save", Err: err}
	}
	return nil
}

func (s *SQLiteBackend) Load(documentID string) ([]Block, error) {
	rows, err := s.db.Query(
		`SELECT block_id, data FROM document_blocks WHERE document_id = ? ORDER BY seq ASC`,
		documentID,
	)
	if err != nil {
		return nil, &Fault{Op: "load", Err: err}
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var blockID string
		var data []byte
		if err := rows.Scan(&blockID, &data); err != nil {
			return nil, &Fault{Op: "load", Err: err}
		}
		blocks = append(blocks, Block{DocumentID: documentID, BlockID: blockID, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, &Fault{Op: "load", Err: err}
	}

	if len(blocks) == 0 {
		return nil, ErrNotFound
	}
	return blocks, nil
}

func (s *SQLiteBackend) Delete(documentID string) error {
	if _, err := s.db.Exec(`DELETE FROM document_blocks WHERE document_id = ?`, documentID); err != nil {
		return &Fault{Op: "delete", Err: err}
	}
	return nil
}

func (s *SQLiteBackend) ListDocuments() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT document_id FROM document_blocks`)
	if err != nil {
		return nil, &Fault{Op: "listDocuments", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &Fault{Op: "listDocuments", Err: err}
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
