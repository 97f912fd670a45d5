package converter

import (
	"net/netip"
	"strings"
	"unicode"
)

// Classify infers the tag of a record that arrived without one.
// Addresses written with a suffix prefix are never treated as networks.
func Classify(rec Record) Record {
	if rec.Tag != "" {
		return rec
	}
	switch {
	case !rec.Suffix && isNetwork(rec.Address):
		rec.Tag = TagIPCIDR
	case rec.Suffix:
		rec.Tag = TagDomainSuffix
	default:
		rec.Tag = TagDomain
	}
	return rec
}

// isNetwork reports whether s is an IPv4 or IPv6 network in CIDR form, or a
// bare address standing for a /32 or /128.
func isNetwork(s string) bool {
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Zone() == ""
}

var nonPackageExts = []string{".exe", ".dll", ".app", ".dmg", ".msi", ".deb", ".rpm", ".pkg"}

var packagePrefixes = map[string]bool{
	"com":     true,
	"org":     true,
	"net":     true,
	"edu":     true,
	"gov":     true,
	"mil":     true,
	"android": true,
	"google":  true,
}

// IsPackageIdentifier reports whether text looks like a mobile application
// package (com.example.app) rather than an operating system process name.
func IsPackageIdentifier(text string) bool {
	if text == "" || strings.ContainsAny(text, ` /\`) {
		return false
	}
	lower := strings.ToLower(text)
	for _, ext := range nonPackageExts {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	if !strings.Contains(text, ".") {
		return false
	}

	segments := strings.Split(text, ".")
	for _, seg := range segments {
		if !validSegment(seg) {
			return false
		}
	}

	if packagePrefixes[segments[0]] {
		return true
	}
	return len(segments) >= 2
}

func validSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for i, r := range seg {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
