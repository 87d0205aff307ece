package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileInvalidRegex(t *testing.T) {
	_, err := Compile(`Failed password from <HOST> (unclosed`)
	require.Error(t, err)

	var perr *PatternError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Pattern, "unclosed")
}

func TestCompileRejectsConflictingHostGroup(t *testing.T) {
	_, err := Compile(`(?P<host>\S+) did something to <HOST>`)
	var perr *PatternError
	require.True(t, errors.As(err, &perr))
}

func TestCompileRejectsRepeatedPlaceholder(t *testing.T) {
	_, err := Compile(`<HOST> and <HOST>`)
	var perr *PatternError
	require.True(t, errors.As(err, &perr))
}

func TestMatchExtractsIPv4(t *testing.T) {
	m, err := Compile(`Failed password for .* from <HOST>`)
	require.NoError(t, err)

	res := m.Match("Failed password for root from 203.0.113.5")
	require.NotNil(t, res)
	assert.Equal(t, "203.0.113.5", res.Host)
	assert.Equal(t, "Failed password for root from 203.0.113.5", res.Matched)
}

func TestMatchExtractsIPv6(t *testing.T) {
	m := MustCompile(`authentication failure from <HOST>`)

	res := m.Match("sshd: authentication failure from 2001:db8::1 port 22")
	require.NotNil(t, res)
	assert.Equal(t, "2001:db8::1", res.Host)
}

func TestMatchExtractsHostname(t *testing.T) {
	m := MustCompile(`rejected connect from <HOST>`)

	res := m.Match("postfix: rejected connect from mail.example.com")
	require.NotNil(t, res)
	assert.Equal(t, "mail.example.com", res.Host)
}

func TestMatchIsSubstring(t *testing.T) {
	m := MustCompile(`denied for <HOST>`)

	res := m.Match("Jan 12 03:14:15 gw kernel: access denied for 10.9.8.7 on eth0")
	require.NotNil(t, res)
	assert.Equal(t, "10.9.8.7", res.Host)
	assert.Equal(t, "denied for 10.9.8.7", res.Matched)
}

func TestMatchDoesNotSplitNumericTokens(t *testing.T) {
	m := MustCompile(`from <HOST>`)

	// A bare numeric token is not an address and must not be carved up.
	assert.Nil(t, m.Match("login from 12345"))

	// The full dotted quad is taken, not a shorter prefix.
	res := m.Match("login from 10.0.0.123 failed")
	require.NotNil(t, res)
	assert.Equal(t, "10.0.0.123", res.Host)
}

func TestMatchNoMatch(t *testing.T) {
	m := MustCompile(`Failed password for .* from <HOST>`)
	assert.Nil(t, m.Match("Accepted password for ok from 198.51.100.2"))
}

func TestMatchWithoutPlaceholderScansLine(t *testing.T) {
	m := MustCompile(`Failed password`)

	res := m.Match("Failed password for invalid user root from 203.0.113.5 port 2222 ssh2")
	require.NotNil(t, res)
	assert.False(t, m.HasHost())
	assert.Equal(t, "203.0.113.5", res.Host)
	assert.Equal(t, "Failed password", res.Matched)
}

func TestSourceRoundTrip(t *testing.T) {
	src := `Failed password for .* from <HOST>`
	m := MustCompile(src)
	assert.Equal(t, src, m.Source())
}
