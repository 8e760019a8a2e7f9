// Package audit provides an append-only log of curation changes for
// accountability and incident response. Every manual override of ranking
// fields is recorded with the acting user and the before/after values.
package audit

import (
	"time"
)

// Entry represents a single curation change in the audit log.
type Entry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	EntityType string    `json:"entity_type"` // "dish" or "restaurant"
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	Outcome    string    `json:"outcome"` // "success" or "failure"
	CreatedAt  time.Time `json:"created_at"`

	// Rank transition; nil means the field was unset on that side.
	OldRank *int `json:"old_rank,omitempty"`
	NewRank *int `json:"new_rank,omitempty"`

	// EvictedID is the entity that lost the rank slot, if any.
	EvictedID string `json:"evicted_id,omitempty"`

	// Optional request metadata
	RequestID string `json:"request_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// PreviousHash is the SHA-256 hash of the previous entry, chaining
	// entries for tamper detection.
	PreviousHash string `json:"previous_hash"`
}

// Change is the input for recording a curation change.
type Change struct {
	ActorID    string
	EntityType string
	EntityID   string
	Action     string
	Outcome    string
	OldRank    *int
	NewRank    *int
	EvictedID  string
	RequestID  string
	IPAddress  string
}
