package model

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle of an action:
// pending -> in_progress -> completed | failed, with cancelled reachable
// from pending or in_progress. Terminal statuses never transition again.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// ErrIllegalTransition is returned when a status change violates the
// lifecycle. Callers must never apply such a transition silently.
var ErrIllegalTransition = errors.New("illegal action status transition")

var legalTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusCancelled},
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransitionTo reports whether moving to next is legal from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates and returns the next status, or ErrIllegalTransition.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
	}
	return next, nil
}

// PersistedAction is the durable action record. Its ID equals the in-state
// PendingAction id for the same action.
type PersistedAction struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Type           string         `json:"type"`
	Status         Status         `json:"status"`
	Data           map[string]any `json:"data"`
	Result         map[string]any `json:"result,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CreateActionInput carries everything needed to persist a new action.
// ID is caller-supplied so the durable record and the in-state PendingAction
// share one canonical identifier.
type CreateActionInput struct {
	ID             string
	ConversationID string
	Type           string
	Data           map[string]any
}

// StatusUpdate is the payload for ActionStore.UpdateStatus.
type StatusUpdate struct {
	Status Status
	Result map[string]any
	Error  string
}
