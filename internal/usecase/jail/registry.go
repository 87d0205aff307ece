package jail

import (
	"sort"
	"time"

	"github.com/failguard/failguard/internal/entity"
)

// registry maps banned addresses to their ban entries. It self-cleans:
// queries passively expire stale entries instead of relying on a
// background sweep. Not synchronized — the owning jail's lock covers it.
type registry struct {
	entries map[string]*entity.BanEntry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*entity.BanEntry)}
}

// get returns the entry for an address if it is still active at asOf.
// An expired entry is removed and returned separately so the caller can
// emit an expiry event.
func (r *registry) get(ip string, asOf time.Time) (active, expired *entity.BanEntry) {
	e, ok := r.entries[ip]
	if !ok {
		return nil, nil
	}
	if e.Active(asOf) {
		return e, nil
	}
	delete(r.entries, ip)
	return nil, e
}

// put installs or refreshes a ban entry.
func (r *registry) put(e *entity.BanEntry) {
	r.entries[e.IP] = e
}

// remove deletes an entry regardless of expiry. Returns the removed entry
// or nil; removing an absent address is a no-op.
func (r *registry) remove(ip string) *entity.BanEntry {
	e, ok := r.entries[ip]
	if !ok {
		return nil
	}
	delete(r.entries, ip)
	return e
}

// active returns all entries still in effect at asOf, sorted by address
// for deterministic output, expiring stale entries as it scans. Expired
// entries are returned so the caller can emit events for them.
func (r *registry) active(asOf time.Time) (live []entity.BanEntry, expired []*entity.BanEntry) {
	for ip, e := range r.entries {
		if e.Active(asOf) {
			live = append(live, *e)
			continue
		}
		delete(r.entries, ip)
		expired = append(expired, e)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].IP < live[j].IP })
	return live, expired
}
