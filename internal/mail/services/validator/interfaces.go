package validator

import (
	"context"

	"github.com/mailscreen/mailscreen/internal/mail/domain"
)

// DisposableChecker decides whether a domain belongs to a throwaway email
// provider. Implemented by the domainlist Classifier.
type DisposableChecker interface {
	IsDisposable(domain string) bool
}

// RecordChecker answers record-presence questions against DNS.
// Implemented by the dnslookup gateway.
type RecordChecker interface {
	Lookup(ctx context.Context, dom string, rt domain.RecordType) domain.LookupOutcome
}

// ResultCache stores boolean MX results. Implemented by the mxcache package.
type ResultCache interface {
	Get(domain string) (hasMX bool, ok bool)
	Put(domain string, hasMX bool)
	Purge()
}
