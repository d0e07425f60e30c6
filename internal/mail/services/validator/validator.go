package validator

import (
	"context"
	"sync/atomic"

	logpkg "github.com/mailscreen/mailscreen/internal/mail/common/log"
	"github.com/mailscreen/mailscreen/internal/mail/domain"
)

// Validator composes the format check, the disposable-domain classifier and
// the MX lookup path into single-address decisions and batch operations.
//
// Batch operations never abort early: a malformed address in a batch is
// reported in its own result and the rest are processed independently.
type Validator struct {
	classifier DisposableChecker
	records    RecordChecker
	cache      ResultCache
	logger     logpkg.Logger

	cachingEnabled atomic.Bool
}

// Options configures a Validator.
type Options struct {
	Classifier DisposableChecker
	Records    RecordChecker
	MXCache    ResultCache   // nil disables MX result caching entirely
	Logger     logpkg.Logger // defaults to the noop logger
	// DisableCache starts the validator with caching off. Caching can be
	// toggled later without purging entries.
	DisableCache bool
}

// New creates a Validator.
func New(opts Options) *Validator {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNoopLogger()
	}
	v := &Validator{
		classifier: opts.Classifier,
		records:    opts.Records,
		cache:      opts.MXCache,
		logger:     opts.Logger,
	}
	v.cachingEnabled.Store(!opts.DisableCache && opts.MXCache != nil)
	return v
}

// HasValidMX reports whether the domain has at least one usable mail
// exchanger. With caching enabled, a hit returns the stored result without a
// network call and a miss stores the fresh result. With caching disabled,
// every call performs a fresh lookup and the cache is neither read nor
// written; existing entries survive until ClearCache.
func (v *Validator) HasValidMX(ctx context.Context, dom string) bool {
	cn := domain.ToASCII(domain.Normalize(dom))

	if v.cachingOn() {
		if hasMX, ok := v.cache.Get(cn); ok {
			return hasMX
		}
	}

	hasMX := v.records.Lookup(ctx, cn, domain.RecordTypeMX).Bool()

	if v.cachingOn() {
		v.cache.Put(cn, hasMX)
	}
	return hasMX
}

// HasValidDNS reports whether the domain resolves to at least one A or AAAA
// record. Unlike HasValidMX, this path never consults or populates the cache.
func (v *Validator) HasValidDNS(ctx context.Context, dom string) bool {
	cn := domain.ToASCII(domain.Normalize(dom))
	if v.records.Lookup(ctx, cn, domain.RecordTypeA).Bool() {
		return true
	}
	return v.records.Lookup(ctx, cn, domain.RecordTypeAAAA).Bool()
}

// SetCachingEnabled toggles MX result caching for future calls. Disabling
// does not purge existing entries; re-enabling resumes reading them.
func (v *Validator) SetCachingEnabled(enabled bool) {
	v.cachingEnabled.Store(enabled && v.cache != nil)
}

// CachingEnabled reports whether MX results are currently cached.
func (v *Validator) CachingEnabled() bool { return v.cachingEnabled.Load() }

// ClearCache removes all cached MX results unconditionally.
func (v *Validator) ClearCache() {
	if v.cache != nil {
		v.cache.Purge()
	}
}

func (v *Validator) cachingOn() bool {
	return v.cache != nil && v.cachingEnabled.Load()
}

// IsValid reports whether the address passes validation, short-circuiting in
// the fixed order format → disposable → MX. The MX stage is skipped entirely
// (treated as passing) when checkMX is false, and never runs when an earlier
// stage already failed.
func (v *Validator) IsValid(ctx context.Context, email string, checkMX bool) bool {
	if !domain.IsValidFormat(email) {
		return false
	}
	dom, _ := domain.ExtractDomain(email)
	if v.classifier.IsDisposable(dom) {
		return false
	}
	if !checkMX {
		return true
	}
	return v.HasValidMX(ctx, dom)
}

// ValidateWithDetails validates an address and reports every failing stage.
// The domain field is computed eagerly even for malformed input (split on the
// last '@'; empty when absent). Disposability and MX are only evaluated when
// the format is valid, so both default to false for malformed addresses.
// Error reasons appear in the fixed order format, disposable, MX.
func (v *Validator) ValidateWithDetails(ctx context.Context, email string, checkMX bool) domain.ValidationResult {
	res := domain.ValidationResult{Email: email}

	if dom, ok := domain.ExtractDomain(email); ok {
		res.Domain = dom
	}

	res.FormatValid = domain.IsValidFormat(email)
	if !res.FormatValid {
		res.Errors = append(res.Errors, domain.ReasonInvalidFormat)
	} else {
		res.Disposable = v.classifier.IsDisposable(res.Domain)
		if res.Disposable {
			res.Errors = append(res.Errors, domain.ReasonDisposableDomain)
		}
		if checkMX {
			res.MXChecked = true
			res.MXValid = v.HasValidMX(ctx, res.Domain)
			if !res.MXValid {
				res.Errors = append(res.Errors, domain.ReasonNoMXRecords)
			}
		}
	}

	res.Valid = res.FormatValid && !res.Disposable && (!res.MXChecked || res.MXValid)
	return res
}

// ValidateMany validates each address and returns the results keyed by the
// exact input string, whitespace and casing included. Duplicate inputs
// collapse to a single entry.
func (v *Validator) ValidateMany(ctx context.Context, emails []string, checkMX bool) map[string]domain.ValidationResult {
	out := make(map[string]domain.ValidationResult, len(emails))
	for _, email := range emails {
		out[email] = v.ValidateWithDetails(ctx, email, checkMX)
	}
	return out
}

// FilterValid returns the addresses that pass IsValid, preserving input
// order and duplicates.
func (v *Validator) FilterValid(ctx context.Context, emails []string, checkMX bool) []string {
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		if v.IsValid(ctx, email, checkMX) {
			out = append(out, email)
		}
	}
	return out
}

// FilterInvalid returns the addresses that fail IsValid, preserving input
// order and duplicates.
func (v *Validator) FilterInvalid(ctx context.Context, emails []string, checkMX bool) []string {
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		if !v.IsValid(ctx, email, checkMX) {
			out = append(out, email)
		}
	}
	return out
}

// Statistics validates a batch and aggregates counts. Categories are counted
// independently per address; NoMX is only counted when checkMX is set.
func (v *Validator) Statistics(ctx context.Context, emails []string, checkMX bool) domain.Stats {
	stats := domain.Stats{Total: len(emails)}
	for _, email := range emails {
		res := v.ValidateWithDetails(ctx, email, checkMX)
		if res.Valid {
			stats.Valid++
		} else {
			stats.Invalid++
		}
		if !res.FormatValid {
			stats.InvalidFormat++
		}
		if res.Disposable {
			stats.Disposable++
		}
		if res.MXChecked && !res.MXValid {
			stats.NoMX++
		}
	}
	return stats
}
