package domain

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// emailPattern covers the practical RFC 5321/5322 address shapes: a dot-atom
// local part followed by a dotted domain whose labels neither start nor end
// with a hyphen.
var emailPattern = regexp.MustCompile(`^(?i)[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)

// IsValidFormat reports whether email conforms to a standard address grammar.
// It enforces the RFC 5321 length limits (254 total, 64 local, 253 domain)
// on top of the pattern match. It says nothing about deliverability.
func IsValidFormat(email string) bool {
	if len(email) == 0 || len(email) > 254 {
		return false
	}
	if !emailPattern.MatchString(email) {
		return false
	}
	local, dom, ok := splitAddress(email)
	if !ok {
		return false
	}
	if len(local) > 64 || len(dom) > 253 {
		return false
	}
	return true
}

// ExtractDomain returns the lowercased substring after the last '@'.
// ok is false only when the input contains no '@' at all.
func ExtractDomain(email string) (string, bool) {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return "", false
	}
	return strings.ToLower(email[i+1:]), true
}

// ExtractLocalPart returns the substring before the last '@'. No format
// validation is performed; this is pure string splitting.
// ok is false only when the input contains no '@' at all.
func ExtractLocalPart(email string) (string, bool) {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return "", false
	}
	return email[:i], true
}

// Normalize trims surrounding whitespace and lowercases the whole address.
// Lowercasing the local part is technically lossy (local parts may be
// case-sensitive) but it is the documented behavior of this package.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ToASCII converts an internationalized domain to its ASCII (punycode) form.
// On conversion failure the input is returned unchanged so that downstream
// lookups fail on the original name rather than an empty string.
func ToASCII(dom string) string {
	ascii, err := idna.Lookup.ToASCII(dom)
	if err != nil {
		return dom
	}
	return ascii
}

// splitAddress splits on the last '@' without lowercasing either side.
func splitAddress(email string) (local, dom string, ok bool) {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return "", "", false
	}
	return email[:i], email[i+1:], true
}
