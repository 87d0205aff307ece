// Package tracker maintains per-address sliding-window failure histories.
//
// Eviction is lazy: it happens on record and on count, never on a timer,
// which keeps the engine deterministic under test. The tracker itself is
// not synchronized — the owning jail provides the single mutual-exclusion
// domain for all of its state.
package tracker

import (
	"time"

	"github.com/failguard/failguard/internal/entity"
)

// history is the ordered failure sequence for one address. The eviction
// baseline is the maximum timestamp ever seen for the address, so
// out-of-order inserts never widen the window.
type history struct {
	baseline time.Time
	records  []entity.FailureRecord
}

// Tracker counts failures per address within a trailing window.
type Tracker struct {
	findtime time.Duration
	hist     map[string]*history
}

// New creates a tracker with the given window width. A non-positive
// findtime degenerates to "this instant only": after eviction, only
// records sharing the newest timestamp remain.
func New(findtime time.Duration) *Tracker {
	return &Tracker{
		findtime: findtime,
		hist:     make(map[string]*history),
	}
}

// RecordFailure appends a failure record and evicts everything that fell
// out of the window relative to the address's baseline.
func (t *Tracker) RecordFailure(rec entity.FailureRecord) {
	h, ok := t.hist[rec.IP]
	if !ok {
		h = &history{}
		t.hist[rec.IP] = h
	}
	if rec.Timestamp.After(h.baseline) {
		h.baseline = rec.Timestamp
	}
	h.records = append(h.records, rec)
	t.evict(rec.IP, h)
}

// Count returns the number of failures still inside the window. The
// eviction pass runs first, so reading is side-effecting with respect to
// cleanup.
func (t *Tracker) Count(address string) int {
	h, ok := t.hist[address]
	if !ok {
		return 0
	}
	t.evict(address, h)
	return len(h.records)
}

// Records returns a copy of the non-evicted records for an address.
func (t *Tracker) Records(address string) []entity.FailureRecord {
	h, ok := t.hist[address]
	if !ok {
		return nil
	}
	t.evict(address, h)
	out := make([]entity.FailureRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Reset clears the history for an address. Called after a ban decision so
// the failures that triggered the ban are not double-counted after unban.
func (t *Tracker) Reset(address string) {
	delete(t.hist, address)
}

// Addresses returns the number of addresses with live history.
func (t *Tracker) Addresses() int {
	return len(t.hist)
}

// evict drops records outside (baseline-findtime, baseline]. The boundary
// is exclusive: a record exactly findtime older than the baseline goes.
func (t *Tracker) evict(address string, h *history) {
	var cutoff time.Time
	if t.findtime > 0 {
		cutoff = h.baseline.Add(-t.findtime)
	} else {
		// Degenerate window: keep only records at the baseline instant.
		cutoff = h.baseline.Add(-time.Nanosecond)
	}

	kept := h.records[:0]
	for _, rec := range h.records {
		if rec.Timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	h.records = kept
	if len(h.records) == 0 {
		delete(t.hist, address)
	}
}
