package entity

// OutcomeKind classifies the result of processing one log line.
// Processing never fails: malformed lines and non-IP extractions are
// encoded here instead of being raised as errors.
type OutcomeKind string

const (
	// OutcomeNoMatch means no registered pattern matched the line.
	OutcomeNoMatch OutcomeKind = "no_match"
	// OutcomeIgnored means an ignore pattern matched before any failure pattern.
	OutcomeIgnored OutcomeKind = "ignored"
	// OutcomeInvalidAddress means a pattern matched but the extracted
	// address is not a syntactically valid IP.
	OutcomeInvalidAddress OutcomeKind = "invalid_address"
	// OutcomeRecorded means the failure was recorded below the ban threshold.
	OutcomeRecorded OutcomeKind = "recorded"
	// OutcomeBanned means this failure pushed the address over the threshold.
	OutcomeBanned OutcomeKind = "banned"
	// OutcomeAlreadyBanned means the address matched while banned; the match
	// is reported but no further failure history accumulates.
	OutcomeAlreadyBanned OutcomeKind = "already_banned"
)

// Outcome is the well-defined result of Jail.ProcessLine for a single line.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	IP      string      `json:"ip,omitempty"`
	Pattern string      `json:"pattern,omitempty"` // source text of the matching pattern
	Matched string      `json:"matched,omitempty"` // full matched span
	Count   int         `json:"count,omitempty"`   // failures in window after this line
	Ban     *BanEntry   `json:"ban,omitempty"`
}

// IsMatch reports whether any failure pattern matched the line,
// regardless of what the jail did with it.
func (o Outcome) IsMatch() bool {
	switch o.Kind {
	case OutcomeInvalidAddress, OutcomeRecorded, OutcomeBanned, OutcomeAlreadyBanned:
		return true
	}
	return false
}
