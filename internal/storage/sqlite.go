// Package storage keeps an ephemeral SQLite mirror of the graph document for
// name search and degree queries. The JSON document stays the source of truth.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/peoplegraph/peoplegraph/internal/document"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectNodeFields contains the standard field list for SELECT queries.
const selectNodeFields = `id, sid, name, type, doc_id, value`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			sid TEXT,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			doc_id TEXT,
			value REAL NOT NULL DEFAULT 0,
			position INTEGER NOT NULL
		);

		-- Links keep their document position; dangling endpoints are stored as-is
		CREATE TABLE IF NOT EXISTS links (
			idx INTEGER PRIMARY KEY,
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_id);
		CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_id);

		CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
			id,
			name
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromDocument clears the database and reloads it from doc in a single
// transaction. Returns the number of nodes and links written.
func (d *DB) RebuildFromDocument(doc *document.Document) (int, int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "links", "nodes_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	nodeStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO nodes (id, sid, name, type, doc_id, value, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing nodes insert: %w", err)
	}
	defer nodeStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO nodes_fts (id, name) VALUES (?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	linkStmt, err := tx.Prepare(`INSERT INTO links (idx, source_id, target_id) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing links insert: %w", err)
	}
	defer linkStmt.Close()

	for i, n := range doc.Nodes {
		if _, err := nodeStmt.Exec(n.ID, nullableString(n.SID), n.Name, n.Type, nullableString(n.DocID), n.Value, i); err != nil {
			return 0, 0, fmt.Errorf("inserting node %s: %w", n.ID, err)
		}
		if _, err := ftsStmt.Exec(n.ID, n.Name); err != nil {
			return 0, 0, fmt.Errorf("inserting fts for %s: %w", n.ID, err)
		}
	}

	for i, l := range doc.Links {
		if _, err := linkStmt.Exec(i, l.Source, l.Target); err != nil {
			return 0, 0, fmt.Errorf("inserting link %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing rebuild: %w", err)
	}

	return len(doc.Nodes), len(doc.Links), nil
}

// GetNode retrieves a node by id. Returns nil, nil if it does not exist.
func (d *DB) GetNode(id string) (*document.Node, error) {
	row := d.db.QueryRow(`SELECT `+selectNodeFields+` FROM nodes WHERE id = ?`, id)
	return scanNode(row)
}

// Search finds nodes whose name matches query. Each word is prefix-matched,
// so "hub" finds "Andrew Huberman". Results are ordered by value, highest
// first.
func (d *DB) Search(query string, limit int) ([]document.Node, error) {
	ftsQuery := prepareNameQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectNodeFields+`
		FROM nodes
		WHERE id IN (SELECT id FROM nodes_fts WHERE nodes_fts MATCH ?)
		ORDER BY value DESC, position
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// Degree counts link endpoints equal to id. A self-loop counts twice.
func (d *DB) Degree(id string) (int, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM links WHERE source_id = ?) +
			(SELECT COUNT(*) FROM links WHERE target_id = ?)
	`, id, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting degree of %s: %w", id, err)
	}
	return count, nil
}

// LinkIndices returns the document positions of links touching id, ascending.
func (d *DB) LinkIndices(id string) ([]int, error) {
	rows, err := d.db.Query(`
		SELECT idx FROM links WHERE source_id = ? OR target_id = ? ORDER BY idx
	`, id, id)
	if err != nil {
		return nil, fmt.Errorf("querying links of %s: %w", id, err)
	}
	defer rows.Close()

	var indices []int
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, rows.Err()
}

// CountNodes returns the total number of nodes.
func (d *DB) CountNodes() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(s scanner) (*document.Node, error) {
	var n document.Node
	var sid, docID sql.NullString

	err := s.Scan(&n.ID, &sid, &n.Name, &n.Type, &docID, &n.Value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	n.SID = sid.String
	n.DocID = docID.String
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]document.Node, error) {
	var nodes []document.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// prepareNameQuery turns free text into an FTS5 prefix query where every
// word must match.
func prepareNameQuery(query string) string {
	parts := strings.Fields(query)
	if len(parts) == 0 {
		return ""
	}

	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}
	return "(" + strings.Join(terms, " AND ") + ")"
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
