package domain

import "fmt"

// RecordType identifies the DNS record families the validator cares about.
type RecordType uint8

const (
	RecordTypeMX RecordType = iota
	RecordTypeA
	RecordTypeAAAA
)

// String returns a stable string representation of the record type.
func (t RecordType) String() string {
	switch t {
	case RecordTypeMX:
		return "MX"
	case RecordTypeA:
		return "A"
	case RecordTypeAAAA:
		return "AAAA"
	default:
		return fmt.Sprintf("RecordType(%d)", t)
	}
}

// LookupOutcome is the tri-state result of a DNS lookup.
//
// found     - at least one usable record exists
// not-found - the resolver answered authoritatively with no records
// failed    - the lookup itself failed (timeout, network error)
//
// The public validation surface collapses this to a boolean via Bool;
// the distinction exists for logging and detailed reporting.
type LookupOutcome uint8

const (
	LookupNotFound LookupOutcome = iota
	LookupFound
	LookupFailed
)

// Bool collapses the outcome to the boolean contract: anything other
// than a definite hit counts as "no record".
func (o LookupOutcome) Bool() bool { return o == LookupFound }

// String returns a stable string representation of the outcome.
func (o LookupOutcome) String() string {
	switch o {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not-found"
	case LookupFailed:
		return "failed"
	default:
		return fmt.Sprintf("LookupOutcome(%d)", o)
	}
}
