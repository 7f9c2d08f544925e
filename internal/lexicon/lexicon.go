// Package lexicon implements the DocumentLexicon capability
// (docid → external id), an external collaborator per spec.md §1 whose
// statistical/linguistic internals are out of scope, but which the core
// still needs a runnable reference implementation of. Grounded on the
// teacher's map-based storage pattern
// (internal/indexer/index/memory_index.go) and, for the operational
// alternative, the teacher's Postgres client (pkg/postgres/client.go).
package lexicon

import (
	"context"
	"database/sql"
	"sync"

	"github.com/salvocorp/rankcore/pkg/postgres"
)

type DocId = uint32

// Lexicon is the capability consumed by internal/trec.
type Lexicon interface {
	Get(docid DocId) (string, bool)
}

// InMemory is a read-only slice-backed lexicon for tests and small corpora.
type InMemory struct {
	mu      sync.RWMutex
	entries []string
}

func NewInMemory(entries []string) *InMemory {
	return &InMemory{entries: entries}
}

func (l *InMemory) Get(docid DocId) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if int(docid) >= len(l.entries) {
		return "", false
	}
	return l.entries[docid], true
}

// Postgres is the operational alternative for large lexicons, backed by a
// document_lexicon(doc_id, external_id) table. Best-effort: callers should
// wrap Get with pkg/resilience when availability matters more than latency.
type Postgres struct {
	client *postgres.Client
}

func NewPostgres(client *postgres.Client) *Postgres {
	return &Postgres{client: client}
}

// EnsureSchema creates the document_lexicon table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.client.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS document_lexicon (
			doc_id BIGINT PRIMARY KEY,
			external_id TEXT NOT NULL
		)`)
	return err
}

// Put inserts or updates a single mapping.
func (p *Postgres) Put(ctx context.Context, docid DocId, externalId string) error {
	_, err := p.client.DB.ExecContext(ctx, `
		INSERT INTO document_lexicon (doc_id, external_id) VALUES ($1, $2)
		ON CONFLICT (doc_id) DO UPDATE SET external_id = EXCLUDED.external_id`,
		docid, externalId)
	return err
}

// Get resolves one docid; a missing row reports (_, false) rather than an
// error, matching the in-memory lexicon's contract.
func (p *Postgres) Get(docid DocId) (string, bool) {
	var externalId string
	err := p.client.DB.QueryRowContext(context.Background(),
		`SELECT external_id FROM document_lexicon WHERE doc_id = $1`, docid).Scan(&externalId)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		return "", false
	}
	return externalId, true
}
