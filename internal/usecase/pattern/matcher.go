// Package pattern compiles failure-detection patterns into matchers.
//
// A pattern is arbitrary regex text carrying a literal <HOST> placeholder
// that stands in for the offending address. Compilation expands the
// placeholder into a word-boundary-respecting alternation of IPv4, IPv6 and
// hostname grammars; all syntax problems surface at compile time so that
// line processing can never fail on a bad pattern.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/failguard/failguard/internal/ipaddr"
)

// HostPlaceholder is the literal token a pattern uses where the offending
// address appears.
const HostPlaceholder = "<HOST>"

// hostGroup is the canonical name of the capture group the placeholder
// expands into.
const hostGroup = "host"

// Grammar fragments for the placeholder expansion. The IPv4 and hostname
// alternatives are word-bounded so the placeholder cannot match partially
// inside a longer numeric token; the IPv6 alternative is deliberately loose
// (log text around colons defeats \b) and relies on downstream address
// validation.
const (
	ipv4Expr     = `\b(?:25[0-5]|2[0-4][0-9]|[01]?[0-9]?[0-9])(?:\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9]?[0-9])){3}\b`
	ipv6Expr     = `(?:[0-9A-Fa-f]{0,4}:){2,7}[0-9A-Fa-f]{0,4}(?:\.[0-9]{1,3}){0,3}`
	hostnameExpr = `\b(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)*[A-Za-z](?:[A-Za-z0-9-]{0,62})\b`
)

var hostExpr = fmt.Sprintf(`(?P<%s>%s|%s|%s)`, hostGroup, ipv4Expr, ipv6Expr, hostnameExpr)

// Matcher is a compiled failure pattern. It is immutable after Compile and
// safe for concurrent use.
type Matcher struct {
	source  string
	re      *regexp.Regexp
	hostIdx int // subexpression index of the host group, -1 if absent
}

// PatternError reports an invalid pattern. It is raised only at
// registration time, never during line processing.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// MatchResult carries the extracted address and the full matched span.
type MatchResult struct {
	Host    string // extracted address or hostname, "" if none
	Matched string // full matched span
	Start   int
	End     int
}

// Compile turns pattern text into a Matcher. The placeholder may appear at
// most once; surrounding text is treated as regex. Invalid regex syntax,
// repeated placeholders and a conflicting "host" capture group all yield a
// *PatternError.
func Compile(patternText string) (*Matcher, error) {
	if strings.Count(patternText, HostPlaceholder) > 1 {
		return nil, &PatternError{Pattern: patternText, Err: fmt.Errorf("placeholder %s may appear at most once", HostPlaceholder)}
	}
	if strings.Contains(patternText, "(?P<"+hostGroup+">") {
		return nil, &PatternError{Pattern: patternText, Err: fmt.Errorf("capture group %q conflicts with the %s placeholder", hostGroup, HostPlaceholder)}
	}

	var expanded strings.Builder
	rest := patternText
	for {
		i := strings.Index(rest, HostPlaceholder)
		if i < 0 {
			break
		}
		expanded.WriteString(rest[:i])
		expanded.WriteString(hostExpr)
		rest = rest[i+len(HostPlaceholder):]
	}
	expanded.WriteString(rest)

	re, err := regexp.Compile(expanded.String())
	if err != nil {
		return nil, &PatternError{Pattern: patternText, Err: err}
	}

	hostIdx := -1
	for i, name := range re.SubexpNames() {
		if name == hostGroup {
			hostIdx = i
			break
		}
	}

	return &Matcher{
		source:  patternText,
		re:      re,
		hostIdx: hostIdx,
	}, nil
}

// MustCompile is Compile that panics on error, for fixed patterns.
func MustCompile(patternText string) *Matcher {
	m, err := Compile(patternText)
	if err != nil {
		panic(err)
	}
	return m
}

// Source returns the original pattern text.
func (m *Matcher) Source() string { return m.source }

// HasHost reports whether the pattern contains the <HOST> placeholder.
func (m *Matcher) HasHost() bool { return m.hostIdx >= 0 }

// Match runs the pattern against one line. A substring match is
// sufficient; nil means no match. When the pattern has no placeholder the
// address is recovered by scanning the matched span, then the whole line.
func (m *Matcher) Match(line string) *MatchResult {
	loc := m.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil
	}

	res := &MatchResult{
		Matched: line[loc[0]:loc[1]],
		Start:   loc[0],
		End:     loc[1],
	}

	if m.hostIdx >= 0 && loc[2*m.hostIdx] >= 0 {
		res.Host = line[loc[2*m.hostIdx]:loc[2*m.hostIdx+1]]
		return res
	}

	// No placeholder: fall back to address extraction from the span, then
	// from the whole line.
	if ip := ipaddr.FindFirstIP(res.Matched); ip != "" {
		res.Host = ip
		return res
	}
	res.Host = ipaddr.FindFirstIP(line)
	return res
}
