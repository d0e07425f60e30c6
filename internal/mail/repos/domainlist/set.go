package domainlist

import (
	"strings"

	"github.com/mailscreen/mailscreen/internal/mail/domain"
)

// Set is an ordered, de-duplicated collection of normalized domain names.
// Every entry is trimmed, lowercased and IDNA-encoded before insertion or
// comparison, so exact-match lookups suffice for case-insensitive semantics.
// Insertion order is preserved for enumeration and export.
//
// Set is not safe for concurrent use; Classifier provides the locking.
type Set struct {
	index map[string]struct{}
	order []string
}

// NewSet creates a Set seeded with the given domains. Duplicates (after
// normalization) collapse to the first occurrence.
func NewSet(domains ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		s.Add(d)
	}
	return s
}

// NormalizeDomain trims surrounding whitespace, lowercases, and converts the
// name to its ASCII form. The result is the canonical storage and lookup key.
func NormalizeDomain(dom string) string {
	return domain.ToASCII(strings.ToLower(strings.TrimSpace(dom)))
}

// Add inserts the domain if absent and reports whether an insertion happened.
// Adding an existing or empty domain is a no-op.
func (s *Set) Add(dom string) bool {
	cn := NormalizeDomain(dom)
	if cn == "" {
		return false
	}
	if _, ok := s.index[cn]; ok {
		return false
	}
	s.index[cn] = struct{}{}
	s.order = append(s.order, cn)
	return true
}

// Remove deletes the domain if present and reports whether a deletion
// happened. Removing an absent domain is a no-op, not an error.
func (s *Set) Remove(dom string) bool {
	cn := NormalizeDomain(dom)
	if _, ok := s.index[cn]; !ok {
		return false
	}
	delete(s.index, cn)
	for i, d := range s.order {
		if d == cn {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports membership of the normalized domain.
func (s *Set) Contains(dom string) bool {
	_, ok := s.index[NormalizeDomain(dom)]
	return ok
}

// Len returns the number of stored domains.
func (s *Set) Len() int { return len(s.order) }

// Domains returns a copy of the stored domains in insertion order.
func (s *Set) Domains() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
