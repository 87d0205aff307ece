package entity

import "time"

// FailureRecord is one matched failure for an address. Records are
// immutable once created and owned by the failure tracker's per-address
// history.
type FailureRecord struct {
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
	Line      string    `json:"line"`
}
