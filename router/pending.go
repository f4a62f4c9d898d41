package router

import (
	"context"
	"time"

	"github.com/hrygo/intentgate/cache"
)

// PendingKind distinguishes the two gate states.
type PendingKind string

const (
	PendingClarification PendingKind = "clarification"
	PendingConfirmation  PendingKind = "confirmation"
)

// PendingInteraction records that the previous turn ended in a
// clarification or confirmation request. Created by the orchestrator
// when a gate fires, consumed and cleared on the next turn, and
// discarded after the TTL so stale state cannot leak into unrelated
// conversation.
type PendingInteraction struct {
	Kind      PendingKind           `json:"kind"`
	Group     ClarifyGroup          `json:"group,omitempty"`
	Question  string                `json:"question,omitempty"`
	Staged    *ClassificationResult `json:"staged,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	Turns     int                   `json:"turns"`
}

// Expired reports whether the interaction has outlived the TTL.
func (p *PendingInteraction) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(p.CreatedAt) > ttl
}

// PendingStore owns PendingInteraction persistence, keyed by
// conversation id. The orchestrator serializes access per conversation;
// implementations only need to be safe across conversations.
type PendingStore interface {
	Get(ctx context.Context, conversationID string) (*PendingInteraction, error)
	Put(ctx context.Context, conversationID string, pending *PendingInteraction) error
	Delete(ctx context.Context, conversationID string) error
}

// MemoryPendingStore keeps pending interactions in process memory.
// Suitable for single-instance deployments; multi-instance deployments
// should use the sqlite-backed store.
type MemoryPendingStore struct {
	lru *cache.LRU[string, PendingInteraction]
}

// NewMemoryPendingStore creates an in-memory store. The TTL doubles as
// the cache expiry so abandoned conversations age out on their own.
func NewMemoryPendingStore(capacity int, ttl time.Duration) *MemoryPendingStore {
	if capacity <= 0 {
		capacity = 4096
	}
	return &MemoryPendingStore{lru: cache.New[string, PendingInteraction](capacity, ttl)}
}

// Get returns the pending interaction for the conversation, or nil.
func (s *MemoryPendingStore) Get(_ context.Context, conversationID string) (*PendingInteraction, error) {
	pending, ok := s.lru.Get(conversationID)
	if !ok {
		return nil, nil
	}
	copied := pending
	return &copied, nil
}

// Put stores the pending interaction for the conversation.
func (s *MemoryPendingStore) Put(_ context.Context, conversationID string, pending *PendingInteraction) error {
	s.lru.Set(conversationID, *pending, 0)
	return nil
}

// Delete clears the pending interaction for the conversation.
func (s *MemoryPendingStore) Delete(_ context.Context, conversationID string) error {
	s.lru.Remove(conversationID)
	return nil
}
