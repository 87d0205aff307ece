package entity

import (
	"time"

	"github.com/google/uuid"
)

// BanEntry represents the current ban state of an address inside one jail.
// Entries are owned by the jail's ban registry; callers only ever receive
// copies.
type BanEntry struct {
	IP        string    `json:"ip"`
	BannedAt  time.Time `json:"banned_at"`
	ExpiresAt time.Time `json:"expires_at"`
	BanCount  int       `json:"ban_count"`
	Reason    string    `json:"reason"`
	Source    string    `json:"source"` // auto, manual
}

// Active reports whether the ban is still in effect at the given instant.
func (b *BanEntry) Active(asOf time.Time) bool {
	return asOf.Before(b.ExpiresAt)
}

// Remaining returns how much ban time is left at the given instant.
// Zero when the ban has already expired.
func (b *BanEntry) Remaining(asOf time.Time) time.Duration {
	if !b.Active(asOf) {
		return 0
	}
	return b.ExpiresAt.Sub(asOf)
}

// IsRecidivist returns true if the address has been banned more than once.
func (b *BanEntry) IsRecidivist() bool {
	return b.BanCount > 1
}

// BanEvent is an audit record emitted on every ban registry mutation.
// The notification layer fans these out to observers (log, websocket,
// external action layers).
type BanEvent struct {
	ID        uuid.UUID  `json:"id"`
	Jail      string     `json:"jail"`
	IP        string     `json:"ip"`
	Action    string     `json:"action"`
	Reason    string     `json:"reason"`
	BanCount  int        `json:"ban_count,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Ban source constants
const (
	BanSourceAuto   = "auto"   // threshold reached via ProcessLine
	BanSourceManual = "manual" // direct BanIP call
)

// Ban action constants (for events)
const (
	BanActionBan    = "ban"
	BanActionUnban  = "unban"
	BanActionExpire = "expire"
)

// NewBanEvent builds an audit event for a registry mutation.
func NewBanEvent(jail, ip, action, reason string, entry *BanEntry, ts time.Time) BanEvent {
	ev := BanEvent{
		ID:        uuid.New(),
		Jail:      jail,
		IP:        ip,
		Action:    action,
		Reason:    reason,
		Timestamp: ts,
	}
	if entry != nil {
		ev.BanCount = entry.BanCount
		expires := entry.ExpiresAt
		ev.ExpiresAt = &expires
	}
	return ev
}
