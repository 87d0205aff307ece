package jail

import (
	"sort"
	"time"

	"github.com/failguard/failguard/internal/entity"
)

// Manager holds the process's jails by name. The jail set is fixed after
// construction; each jail synchronizes its own state, so the manager needs
// no locking of its own.
type Manager struct {
	jails map[string]*Jail
	order []string
}

// NewManager builds a manager over the given jails, keeping their order.
func NewManager(jails []*Jail) *Manager {
	m := &Manager{jails: make(map[string]*Jail, len(jails))}
	for _, j := range jails {
		if _, dup := m.jails[j.Name()]; dup {
			continue
		}
		m.jails[j.Name()] = j
		m.order = append(m.order, j.Name())
	}
	return m
}

// Get returns a jail by name.
func (m *Manager) Get(name string) (*Jail, bool) {
	j, ok := m.jails[name]
	return j, ok
}

// Names returns the jail names in registration order.
func (m *Manager) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// ProcessLine feeds one line to every jail and returns the per-jail
// outcomes keyed by jail name.
func (m *Manager) ProcessLine(line string, ts time.Time) map[string]entity.Outcome {
	outcomes := make(map[string]entity.Outcome, len(m.order))
	for _, name := range m.order {
		outcomes[name] = m.jails[name].ProcessLine(line, ts)
	}
	return outcomes
}

// Statuses returns a snapshot of every jail, sorted by name.
func (m *Manager) Statuses(asOf time.Time) []entity.JailStatus {
	out := make([]entity.JailStatus, 0, len(m.jails))
	for _, j := range m.jails {
		out = append(out, j.Status(asOf))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
