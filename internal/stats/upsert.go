// Package stats provides utilities for tracking rating mutation statistics.
package stats

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// MutationStats tracks cumulative statistics for rating mutations.
// All operations are thread-safe using atomic counters.
type MutationStats struct {
	inserted int64 // New rating entries inserted
	updated  int64 // Existing entries replaced in place
	deleted  int64 // Entries removed
}

// NewMutationStats creates a new MutationStats instance.
func NewMutationStats() *MutationStats {
	return &MutationStats{}
}

// RecordInsert increments the inserted counter.
func (s *MutationStats) RecordInsert() {
	atomic.AddInt64(&s.inserted, 1)
}

// RecordUpdate increments the updated counter.
func (s *MutationStats) RecordUpdate() {
	atomic.AddInt64(&s.updated, 1)
}

// RecordDelete increments the deleted counter.
func (s *MutationStats) RecordDelete() {
	atomic.AddInt64(&s.deleted, 1)
}

// Inserted returns the total number of inserts.
func (s *MutationStats) Inserted() int64 {
	return atomic.LoadInt64(&s.inserted)
}

// Updated returns the total number of updates.
func (s *MutationStats) Updated() int64 {
	return atomic.LoadInt64(&s.updated)
}

// Deleted returns the total number of deletes.
func (s *MutationStats) Deleted() int64 {
	return atomic.LoadInt64(&s.deleted)
}

// Total returns the total number of mutations.
func (s *MutationStats) Total() int64 {
	return s.Inserted() + s.Updated() + s.Deleted()
}

// Reset resets all counters to zero.
func (s *MutationStats) Reset() {
	atomic.StoreInt64(&s.inserted, 0)
	atomic.StoreInt64(&s.updated, 0)
	atomic.StoreInt64(&s.deleted, 0)
}

// String returns a human-readable summary of the statistics.
func (s *MutationStats) String() string {
	return fmt.Sprintf("inserted=%d updated=%d deleted=%d total=%d",
		s.Inserted(), s.Updated(), s.Deleted(), s.Total())
}

// LogSummary logs a summary of mutation statistics at INFO level.
// Useful for periodic reporting.
func (s *MutationStats) LogSummary(logger *slog.Logger, entity string) {
	logger.Info("mutation statistics",
		"entity", entity,
		"inserted", s.Inserted(),
		"updated", s.Updated(),
		"deleted", s.Deleted(),
		"total", s.Total(),
	)
}
