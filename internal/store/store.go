// Package store provides the persistent, namespaced memory store backing
// the agent-protocol server. Memories live in SQLite; the verification core
// never touches this package.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/groundcheck/internal/model"
)

// DefaultNamespace scopes memories when the caller does not name one.
const DefaultNamespace = "default"

// Trust defaults per memory source kind.
var sourceTrust = map[string]float64{
	"user":     0.70,
	"document": 0.60,
	"code":     0.80,
	"inferred": 0.40,
}

const fallbackTrust = 0.50

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id        TEXT PRIMARY KEY,
	namespace TEXT NOT NULL DEFAULT 'default',
	text      TEXT NOT NULL,
	trust     REAL NOT NULL DEFAULT 0.7,
	source    TEXT NOT NULL DEFAULT 'user',
	timestamp INTEGER NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_memories_namespace ON memories(namespace);
`

// Store is a SQLite-backed memory collection.
type Store struct {
	db  *sql.DB
	now func() int64
}

// Open creates or opens a store at path. Use ":memory:" for an ephemeral
// store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}
	return &Store{db: db, now: func() int64 { return time.Now().Unix() }}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a new memory and returns it. An empty namespace means the
// default one; trust nil picks the per-source default (user 0.70,
// document 0.60, code 0.80, inferred 0.40).
func (s *Store) Put(text, namespace, source string, trust *float64) (model.Memory, error) {
	if text == "" {
		return model.Memory{}, fmt.Errorf("%w: memory text is required", model.ErrInputMalformed)
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if source == "" {
		source = "user"
	}

	t := fallbackTrust
	if trust != nil {
		t = *trust
	} else if def, ok := sourceTrust[source]; ok {
		t = def
	}
	if t < 0 || t > 1 {
		return model.Memory{}, fmt.Errorf("%w: trust %v outside [0,1]", model.ErrInputMalformed, t)
	}

	ts := s.now()
	id := "mem_" + uuid.NewString()

	_, err := s.db.Exec(
		`INSERT INTO memories (id, namespace, text, trust, source, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		id, namespace, text, t, source, ts,
	)
	if err != nil {
		return model.Memory{}, fmt.Errorf("store memory: %w", err)
	}

	return model.Memory{ID: id, Text: text, Trust: t, Timestamp: &ts}, nil
}

// Query returns up to limit memories for the namespace, most trusted first,
// then most recent.
func (s *Store) Query(namespace string, limit int) ([]model.Memory, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, text, trust, timestamp FROM memories
		 WHERE namespace = ?
		 ORDER BY trust DESC, timestamp DESC, id
		 LIMIT ?`,
		namespace, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		var m model.Memory
		var ts int64
		if err := rows.Scan(&m.ID, &m.Text, &m.Trust, &ts); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.Timestamp = &ts
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// Forget deletes a memory by id within a namespace. Reports whether a row
// was removed.
func (s *Store) Forget(namespace, id string) (bool, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	res, err := s.db.Exec(`DELETE FROM memories WHERE namespace = ? AND id = ?`, namespace, id)
	if err != nil {
		return false, fmt.Errorf("forget memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
