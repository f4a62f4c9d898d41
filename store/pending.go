// Package store provides durable persistence for pending interactions,
// for deployments where conversation state must survive a process
// restart or be shared across instances.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/hrygo/intentgate/router"
)

// SQLitePendingStore implements router.PendingStore on a sqlite
// database. The orchestrator serializes access per conversation, so a
// single writer per row is guaranteed by the caller.
type SQLitePendingStore struct {
	db  *sql.DB
	ttl time.Duration
}

const pendingSchema = `
CREATE TABLE IF NOT EXISTS pending_interaction (
	conversation_id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	clarify_group TEXT NOT NULL DEFAULT '',
	question TEXT NOT NULL DEFAULT '',
	staged TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	turns INTEGER NOT NULL DEFAULT 0
);
`

// NewSQLitePendingStore opens (and migrates) the pending table at dsn.
// Use ":memory:" for an ephemeral store in tests.
func NewSQLitePendingStore(dsn string, ttl time.Duration) (*SQLitePendingStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if _, err := db.Exec(pendingSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrate pending table")
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &SQLitePendingStore{db: db, ttl: ttl}, nil
}

// Get returns the pending interaction for the conversation, or nil.
// Expired rows are deleted on read.
func (s *SQLitePendingStore) Get(ctx context.Context, conversationID string) (*router.PendingInteraction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT kind, clarify_group, question, staged, created_at, turns
		 FROM pending_interaction WHERE conversation_id = ?`, conversationID)

	var kind, group, question, staged string
	var createdAt int64
	var turns int
	if err := row.Scan(&kind, &group, &question, &staged, &createdAt, &turns); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read pending interaction")
	}

	pending := &router.PendingInteraction{
		Kind:      router.PendingKind(kind),
		Group:     router.ClarifyGroup(group),
		Question:  question,
		CreatedAt: time.Unix(createdAt, 0),
		Turns:     turns,
	}
	if staged != "" {
		var result router.ClassificationResult
		if err := json.Unmarshal([]byte(staged), &result); err != nil {
			// A corrupt staged row is unusable; drop it.
			_ = s.Delete(ctx, conversationID)
			return nil, nil
		}
		pending.Staged = &result
	}

	if pending.Expired(s.ttl, time.Now()) {
		_ = s.Delete(ctx, conversationID)
		return nil, nil
	}
	return pending, nil
}

// Put upserts the pending interaction for the conversation.
func (s *SQLitePendingStore) Put(ctx context.Context, conversationID string, pending *router.PendingInteraction) error {
	staged := ""
	if pending.Staged != nil {
		data, err := json.Marshal(pending.Staged)
		if err != nil {
			return errors.Wrap(err, "marshal staged result")
		}
		staged = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_interaction (conversation_id, kind, clarify_group, question, staged, created_at, turns)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET
			kind = excluded.kind,
			clarify_group = excluded.clarify_group,
			question = excluded.question,
			staged = excluded.staged,
			created_at = excluded.created_at,
			turns = excluded.turns`,
		conversationID, string(pending.Kind), string(pending.Group),
		pending.Question, staged, pending.CreatedAt.Unix(), pending.Turns)
	return errors.Wrap(err, "write pending interaction")
}

// Delete clears the pending interaction for the conversation.
func (s *SQLitePendingStore) Delete(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_interaction WHERE conversation_id = ?`, conversationID)
	return errors.Wrap(err, "delete pending interaction")
}

// CleanupExpired removes rows older than the TTL. Intended for a
// periodic maintenance goroutine.
func (s *SQLitePendingStore) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.ttl).Unix()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_interaction WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "cleanup pending interactions")
	}
	return res.RowsAffected()
}

// Close releases the database handle.
func (s *SQLitePendingStore) Close() error {
	return s.db.Close()
}
