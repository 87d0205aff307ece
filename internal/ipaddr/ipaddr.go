// Package ipaddr validates and extracts IPv4/IPv6 addresses from free-form
// log text. All functions are pure and safe for concurrent use without
// synchronization.
package ipaddr

import (
	"regexp"
	"strings"
)

// candidateRe captures maximal runs of characters that can appear in an
// IPv4 or IPv6 address. Each run is then validated structurally.
var candidateRe = regexp.MustCompile(`[0-9A-Fa-f:.]+`)

// IsValidIPv4 reports whether s is a dotted-quad IPv4 address: exactly four
// decimal octets in 0-255, no leading zeros, nothing else.
func IsValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if !validOctet(p) {
			return false
		}
	}
	return true
}

func validOctet(p string) bool {
	if len(p) == 0 || len(p) > 3 {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	// "0" is fine, "01" is not: leading zeros are ambiguous (octal reading).
	if len(p) > 1 && p[0] == '0' {
		return false
	}
	if len(p) == 3 {
		if p[0] > '2' {
			return false
		}
		if p[0] == '2' && (p[1] > '5' || (p[1] == '5' && p[2] > '5')) {
			return false
		}
	}
	return true
}

// IsValidIPv6 reports whether s is a valid IPv6 address: colon-separated
// hex groups, at most one "::" zero-compression, optional embedded IPv4
// tail. Zone suffixes are not accepted.
func IsValidIPv6(s string) bool {
	if s == "" || strings.Contains(s, "%") {
		return false
	}
	switch strings.Count(s, "::") {
	case 0:
		n, ok := countGroups(s, true)
		return ok && n == 8
	case 1:
		i := strings.Index(s, "::")
		left, right := s[:i], s[i+2:]
		// "::" must not be adjacent to a further stray colon.
		if strings.HasPrefix(right, ":") || strings.HasSuffix(left, ":") {
			return false
		}
		ln, ok := countGroups(left, false)
		if !ok {
			return false
		}
		rn, ok := countGroups(right, true)
		if !ok {
			return false
		}
		// The compression stands for at least one zero group.
		return ln+rn <= 7
	default:
		return false
	}
}

// countGroups counts the colon-hex groups in a "::"-free fragment. With
// tail, an embedded IPv4 in the last position counts as two groups; an
// IPv4 anywhere else in the address is malformed.
func countGroups(s string, tail bool) (int, bool) {
	if s == "" {
		return 0, true
	}
	parts := strings.Split(s, ":")
	n := 0
	for i, p := range parts {
		if p == "" {
			return 0, false
		}
		if strings.Contains(p, ".") {
			if !tail || i != len(parts)-1 || !IsValidIPv4(p) {
				return 0, false
			}
			n += 2
			continue
		}
		if !validHexGroup(p) {
			return 0, false
		}
		n++
	}
	return n, true
}

func validHexGroup(p string) bool {
	if len(p) == 0 || len(p) > 4 {
		return false
	}
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidIP reports whether s is a valid IPv4 or IPv6 address.
func IsValidIP(s string) bool {
	return IsValidIPv4(s) || IsValidIPv6(s)
}

// FindAllIPs scans free-form text and returns every address-shaped maximal
// substring that validates as IPv4 or IPv6, left to right. Duplicates are
// kept; callers dedupe if they need to.
func FindAllIPs(text string) []string {
	var ips []string
	for _, cand := range candidateRe.FindAllString(text, -1) {
		// Sentence punctuation sticks to candidates ("from 1.2.3.4.").
		cand = strings.TrimRight(cand, ".")
		if cand == "" {
			continue
		}
		if IsValidIP(cand) {
			ips = append(ips, cand)
		}
	}
	return ips
}

// FindFirstIP returns the first valid address in the text, or "".
func FindFirstIP(text string) string {
	for _, cand := range candidateRe.FindAllString(text, -1) {
		cand = strings.TrimRight(cand, ".")
		if cand != "" && IsValidIP(cand) {
			return cand
		}
	}
	return ""
}
