// Package jail implements the detection-and-banning engine: it feeds log
// lines through compiled failure patterns, keeps per-address sliding-window
// failure counts and owns the ban registry.
package jail

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/failguard/failguard/internal/entity"
	"github.com/failguard/failguard/internal/ipaddr"
	"github.com/failguard/failguard/internal/usecase/pattern"
	"github.com/failguard/failguard/internal/usecase/tracker"
)

// Notifier receives ban registry mutations (ban, unban, expire). The
// engine itself never enforces anything; a firewall/action layer is just
// another Notifier.
type Notifier interface {
	Notify(event entity.BanEvent)
}

// Jail is the orchestrator for one monitored service. All mutable state —
// failure histories and the ban registry — lives behind a single mutex, so
// concurrent ingestion paths can share one Jail. Timing is expressed
// purely through caller-supplied timestamps; the jail never samples the
// wall clock.
type Jail struct {
	name string
	cfg  entity.JailConfig
	log  *slog.Logger

	fail   []*pattern.Matcher
	ignore []*pattern.Matcher

	mu        sync.Mutex
	tracker   *tracker.Tracker
	bans      *registry
	banTotals map[string]int // historical ban counts, survives expiry
	processed uint64
	matched   uint64

	notifier Notifier
}

// Option configures optional jail collaborators.
type Option func(*Jail)

// WithLogger sets the jail's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Jail) { j.log = logger }
}

// WithNotifier sets the observer for ban registry mutations.
func WithNotifier(n Notifier) Option {
	return func(j *Jail) { j.notifier = n }
}

// New validates the configuration, compiles all patterns and returns a
// ready jail. Configuration problems yield *entity.ConfigurationError,
// pattern problems *pattern.PatternError; both are fatal to the call.
func New(cfg entity.JailConfig, opts ...Option) (*Jail, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Patterns) == 0 {
		return nil, &entity.ConfigurationError{Field: "patterns", Reason: "at least one failure pattern is required"}
	}

	j := &Jail{
		name:      cfg.Name,
		cfg:       cfg,
		log:       slog.Default(),
		tracker:   tracker.New(cfg.FindTime),
		bans:      newRegistry(),
		banTotals: make(map[string]int),
	}
	for _, opt := range opts {
		opt(j)
	}

	for _, p := range cfg.Patterns {
		m, err := pattern.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("jail %s: %w", cfg.Name, err)
		}
		j.fail = append(j.fail, m)
	}
	for _, p := range cfg.IgnorePatterns {
		m, err := pattern.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("jail %s: %w", cfg.Name, err)
		}
		j.ignore = append(j.ignore, m)
	}

	return j, nil
}

// Name returns the jail's identifier.
func (j *Jail) Name() string { return j.name }

// Config returns the jail's configuration value.
func (j *Jail) Config() entity.JailConfig { return j.cfg }

// ProcessLine runs one log line through the registered patterns and applies
// the ban decision policy. It never returns an error: malformed lines and
// non-IP extractions are encoded in the outcome.
func (j *Jail) ProcessLine(line string, ts time.Time) entity.Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.processed++

	for _, m := range j.ignore {
		if m.Match(line) != nil {
			return entity.Outcome{Kind: entity.OutcomeIgnored}
		}
	}

	var res *pattern.MatchResult
	var src string
	for _, m := range j.fail {
		if r := m.Match(line); r != nil {
			res, src = r, m.Source()
			break
		}
	}
	if res == nil {
		return entity.Outcome{Kind: entity.OutcomeNoMatch}
	}

	j.matched++

	addr := res.Host
	if !ipaddr.IsValidIP(addr) {
		j.log.Warn("matched line carries no valid address",
			"jail", j.name, "host", addr, "pattern", src)
		return entity.Outcome{
			Kind:    entity.OutcomeInvalidAddress,
			IP:      addr,
			Pattern: src,
			Matched: res.Matched,
		}
	}

	// A banned address does not accumulate further failure history, but the
	// match is still reported.
	if active, expired := j.bans.get(addr, ts); active != nil {
		out := entity.Outcome{
			Kind:    entity.OutcomeAlreadyBanned,
			IP:      addr,
			Pattern: src,
			Matched: res.Matched,
		}
		ban := *active
		out.Ban = &ban
		return out
	} else if expired != nil {
		j.expireLocked(expired, ts)
	}

	j.tracker.RecordFailure(entity.FailureRecord{IP: addr, Timestamp: ts, Line: line})
	count := j.tracker.Count(addr)

	out := entity.Outcome{
		Kind:    entity.OutcomeRecorded,
		IP:      addr,
		Pattern: src,
		Matched: res.Matched,
		Count:   count,
	}

	if count >= j.cfg.MaxRetry {
		entry := j.banLocked(addr, ts, entity.BanSourceAuto,
			fmt.Sprintf("%d failures within %v", count, j.cfg.FindTime))
		out.Kind = entity.OutcomeBanned
		ban := *entry
		out.Ban = &ban
	}

	return out
}

// MatchLine runs the line through the patterns without recording anything.
// Used by the offline regex tester and the match API.
func (j *Jail) MatchLine(line string) entity.Outcome {
	for _, m := range j.ignore {
		if m.Match(line) != nil {
			return entity.Outcome{Kind: entity.OutcomeIgnored}
		}
	}
	for _, m := range j.fail {
		r := m.Match(line)
		if r == nil {
			continue
		}
		out := entity.Outcome{
			Kind:    entity.OutcomeRecorded,
			IP:      r.Host,
			Pattern: m.Source(),
			Matched: r.Matched,
		}
		if !ipaddr.IsValidIP(r.Host) {
			out.Kind = entity.OutcomeInvalidAddress
		}
		return out
	}
	return entity.Outcome{Kind: entity.OutcomeNoMatch}
}

// BanIP bans an address directly, without requiring prior failures. Used
// by callers that decide to ban out-of-band (external deny lists, the API).
func (j *Jail) BanIP(ip string, ts time.Time, reason string) (*entity.BanEntry, error) {
	if !ipaddr.IsValidIP(ip) {
		return nil, fmt.Errorf("ban %q: not a valid IP address", ip)
	}
	if reason == "" {
		reason = "manual ban"
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry := j.banLocked(ip, ts, entity.BanSourceManual, reason)
	ban := *entry
	return &ban, nil
}

// banLocked performs the ban registry mutation shared by the automatic and
// manual paths. Caller holds the lock.
func (j *Jail) banLocked(ip string, ts time.Time, source, reason string) *entity.BanEntry {
	j.banTotals[ip]++
	count := j.banTotals[ip]

	bantime := j.cfg.BanTime
	if j.cfg.BantimeFactor > 1 && count > 1 {
		bantime = time.Duration(float64(bantime) * math.Pow(j.cfg.BantimeFactor, float64(count-1)))
	}

	entry := &entity.BanEntry{
		IP:        ip,
		BannedAt:  ts,
		ExpiresAt: ts.Add(bantime),
		BanCount:  count,
		Reason:    reason,
		Source:    source,
	}
	j.bans.put(entry)
	j.tracker.Reset(ip)

	j.log.Info("address banned",
		"jail", j.name, "ip", ip, "ban_count", count,
		"expires_at", entry.ExpiresAt, "source", source)
	j.notifyLocked(entity.NewBanEvent(j.name, ip, entity.BanActionBan, reason, entry, ts))

	return entry
}

// IsBanned reports whether the address is banned at the given instant.
// Querying passively expires a stale entry, so the registry self-cleans.
func (j *Jail) IsBanned(ip string, asOf time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	active, expired := j.bans.get(ip, asOf)
	if expired != nil {
		j.expireLocked(expired, asOf)
	}
	return active != nil
}

// Unban removes any ban entry for the address regardless of expiry.
// Idempotent: unbanning a clean address has no observable effect.
func (j *Jail) Unban(ip string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := j.bans.remove(ip)
	if entry == nil {
		return
	}

	j.log.Info("address unbanned", "jail", j.name, "ip", ip)
	// The event timestamp is audit metadata only; ban semantics never
	// sample the wall clock.
	j.notifyLocked(entity.NewBanEvent(j.name, ip, entity.BanActionUnban, "explicit unban", entry, time.Now()))
}

// BannedAddresses returns all addresses with a non-expired ban, expiring
// stale entries as a side effect of the scan.
func (j *Jail) BannedAddresses(asOf time.Time) []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	live, expired := j.bans.active(asOf)
	for _, e := range expired {
		j.expireLocked(e, asOf)
	}

	ips := make([]string, len(live))
	for i, e := range live {
		ips[i] = e.IP
	}
	return ips
}

// Status returns a point-in-time snapshot of the jail.
func (j *Jail) Status(asOf time.Time) entity.JailStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	live, expired := j.bans.active(asOf)
	for _, e := range expired {
		j.expireLocked(e, asOf)
	}

	return entity.JailStatus{
		Name:      j.name,
		MaxRetry:  j.cfg.MaxRetry,
		FindTime:  j.cfg.FindTime.String(),
		BanTime:   j.cfg.BanTime.String(),
		Tracked:   j.tracker.Addresses(),
		Banned:    live,
		Processed: j.processed,
		Matched:   j.matched,
	}
}

func (j *Jail) expireLocked(entry *entity.BanEntry, asOf time.Time) {
	j.log.Debug("ban expired", "jail", j.name, "ip", entry.IP)
	j.notifyLocked(entity.NewBanEvent(j.name, entry.IP, entity.BanActionExpire, "ban expired", entry, asOf))
}

func (j *Jail) notifyLocked(ev entity.BanEvent) {
	if j.notifier != nil {
		j.notifier.Notify(ev)
	}
}
