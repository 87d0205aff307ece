package jail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/failguard/failguard/internal/entity"
)

func TestManagerRoutesLinesToAllJails(t *testing.T) {
	ssh := newTestJail(t, entity.JailConfig{Name: "sshd", MaxRetry: 1})
	web := newTestJail(t, entity.JailConfig{
		Name:     "nginx",
		MaxRetry: 1,
		Patterns: []string{`login failure from <HOST>`},
	})
	m := NewManager([]*Jail{ssh, web})

	assert.Equal(t, []string{"sshd", "nginx"}, m.Names())

	outcomes := m.ProcessLine(failLine("1.2.3.4"), time.Unix(0, 0))
	assert.Equal(t, entity.OutcomeBanned, outcomes["sshd"].Kind)
	assert.Equal(t, entity.OutcomeNoMatch, outcomes["nginx"].Kind)

	j, ok := m.Get("sshd")
	require.True(t, ok)
	assert.True(t, j.IsBanned("1.2.3.4", time.Unix(0, 0)))

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestManagerStatusesSorted(t *testing.T) {
	a := newTestJail(t, entity.JailConfig{Name: "zulu"})
	b := newTestJail(t, entity.JailConfig{Name: "alpha"})
	m := NewManager([]*Jail{a, b})

	sts := m.Statuses(time.Unix(0, 0))
	require.Len(t, sts, 2)
	assert.Equal(t, "alpha", sts[0].Name)
	assert.Equal(t, "zulu", sts[1].Name)
}
