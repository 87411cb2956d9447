package model

import (
	"context"
)

// ConversationStore persists whole conversation states between pipeline
// invocations. Writes are last-write-wins: two concurrent turns against the
// same conversation can race and one appended message may be lost from the
// other's view. The core does not serialize same-conversation requests.
type ConversationStore interface {
	// Get returns the stored state, or nil when the conversation is unknown.
	Get(ctx context.Context, conversationID string) (*ConversationState, error)

	// Put stores the full state, replacing any previous value.
	Put(ctx context.Context, state *ConversationState) error

	// Delete removes the conversation entirely.
	Delete(ctx context.Context, conversationID string) error
}

// ActionStore persists action records with at-least-once semantics.
type ActionStore interface {
	// Create persists a new action in StatusPending.
	Create(ctx context.Context, in CreateActionInput) (*PersistedAction, error)

	// Get returns the action, or nil when unknown.
	Get(ctx context.Context, id string) (*PersistedAction, error)

	// UpdateStatus applies a lifecycle transition. Illegal transitions are
	// rejected with ErrIllegalTransition and leave the record untouched.
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error

	// ListPending returns up to limit actions still in StatusPending.
	ListPending(ctx context.Context, limit int) ([]*PersistedAction, error)
}

// Chunk is one retrieved passage from the semantic store.
type Chunk struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score,omitempty"`
}

// SemanticStore answers similarity queries over indexed knowledge chunks.
type SemanticStore interface {
	// SimilaritySearch returns at most k chunks ordered by relevance. An
	// optional filter restricts results to chunks whose metadata contains
	// every given key/value pair.
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]Chunk, error)
}
