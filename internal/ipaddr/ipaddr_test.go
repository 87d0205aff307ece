package ipaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidIPv4(t *testing.T) {
	valid := []string{
		"192.168.1.1",
		"0.0.0.0",
		"255.255.255.255",
		"203.0.113.5",
		"10.0.0.1",
	}
	for _, s := range valid {
		assert.True(t, IsValidIPv4(s), "expected valid: %s", s)
	}

	invalid := []string{
		"",
		"256.1.1.1",
		"1.2.3",
		"1.2.3.4.5",
		"1.2.3.256",
		"01.2.3.4",
		"1.2.3.04",
		"1.2.3.4a",
		"a.b.c.d",
		"1..2.3",
		"999.203.0.113",
		"::1",
	}
	for _, s := range invalid {
		assert.False(t, IsValidIPv4(s), "expected invalid: %s", s)
	}
}

func TestIsValidIPv6(t *testing.T) {
	valid := []string{
		"::1",
		"::",
		"fe80::1",
		"2001:db8::8a2e:370:7334",
		"2001:0db8:85a3:0000:0000:8a2e:0370:7334",
		"::ffff:192.168.1.1",
		"1:2:3:4:5:6:192.168.1.1",
		"1:2:3:4:5:6:7::",
		"::1:2:3:4:5:6:7",
	}
	for _, s := range valid {
		assert.True(t, IsValidIPv6(s), "expected valid: %s", s)
	}

	invalid := []string{
		"",
		"1.2.3.4",
		"1:2:3:4:5:6:7",
		"1:2:3:4:5:6:7:8:9",
		"1:2:3:4:5:6:7:8::",
		"fe80::1::2",
		"fe80:::1",
		"12345::1",
		"g::1",
		"fe80::1%eth0",
		"1:2:3:4:5:192.168.1.1:6",
		// An embedded IPv4 is only legal as the final tail, never before
		// the compression.
		"1.2.3.4::",
		"a:1.2.3.4::1",
		"1.2.3.4::5",
	}
	for _, s := range invalid {
		assert.False(t, IsValidIPv6(s), "expected invalid: %s", s)
	}
}

func TestIsValidIP(t *testing.T) {
	assert.True(t, IsValidIP("192.168.1.1"))
	assert.True(t, IsValidIP("::1"))
	assert.False(t, IsValidIP("256.1.1.1"))
	assert.False(t, IsValidIP("example.com"))
}

func TestFindAllIPs(t *testing.T) {
	ips := FindAllIPs("connect from 10.0.0.1 and fe80::1 failed")
	assert.Equal(t, []string{"10.0.0.1", "fe80::1"}, ips)
}

func TestFindAllIPsKeepsDuplicatesAndOrder(t *testing.T) {
	ips := FindAllIPs("10.0.0.1 then 203.0.113.5 then 10.0.0.1 again")
	assert.Equal(t, []string{"10.0.0.1", "203.0.113.5", "10.0.0.1"}, ips)
}

func TestFindAllIPsIgnoresNonAddresses(t *testing.T) {
	assert.Empty(t, FindAllIPs("at 12:34:56 pid 4242 version 1.2.3"))
	assert.Empty(t, FindAllIPs(""))

	// Trailing sentence punctuation does not defeat extraction.
	assert.Equal(t, []string{"203.0.113.5"}, FindAllIPs("rejected 203.0.113.5."))
}

func TestFindFirstIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", FindFirstIP("a 10.0.0.1 b fe80::1"))
	assert.Equal(t, "", FindFirstIP("nothing here"))
}
