package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailscreen/mailscreen/internal/mail/domain"
	"github.com/mailscreen/mailscreen/internal/mail/repos/mxcache"
)

// fakeClassifier marks configured domains as disposable.
type fakeClassifier struct {
	disposable map[string]bool
}

func (f *fakeClassifier) IsDisposable(dom string) bool { return f.disposable[dom] }

// fakeRecords serves scripted outcomes and counts resolver calls per type.
type fakeRecords struct {
	mx      map[string]domain.LookupOutcome
	ip4     map[string]domain.LookupOutcome
	ip6     map[string]domain.LookupOutcome
	mxCalls int
	ipCalls int
}

func (f *fakeRecords) Lookup(_ context.Context, dom string, rt domain.RecordType) domain.LookupOutcome {
	switch rt {
	case domain.RecordTypeMX:
		f.mxCalls++
		return f.mx[dom]
	case domain.RecordTypeA:
		f.ipCalls++
		return f.ip4[dom]
	case domain.RecordTypeAAAA:
		f.ipCalls++
		return f.ip6[dom]
	}
	return domain.LookupNotFound
}

func newTestValidator(t *testing.T, classifier *fakeClassifier, records *fakeRecords) *Validator {
	t.Helper()
	cache, err := mxcache.New(64)
	require.NoError(t, err)
	if classifier == nil {
		classifier = &fakeClassifier{disposable: map[string]bool{}}
	}
	return New(Options{
		Classifier: classifier,
		Records:    records,
		MXCache:    cache,
	})
}

func TestHasValidMX_CachesResult(t *testing.T) {
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"example.com": domain.LookupFound}}
	v := newTestValidator(t, nil, records)

	assert.True(t, v.HasValidMX(context.Background(), "example.com"))
	require.Equal(t, 1, records.mxCalls)

	// flip the live answer; the cached result must win and no call happen
	records.mx["example.com"] = domain.LookupNotFound
	assert.True(t, v.HasValidMX(context.Background(), "example.com"))
	assert.Equal(t, 1, records.mxCalls)
}

func TestHasValidMX_ClearCacheAllowsFreshAnswer(t *testing.T) {
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"example.com": domain.LookupFound}}
	v := newTestValidator(t, nil, records)

	assert.True(t, v.HasValidMX(context.Background(), "example.com"))

	records.mx["example.com"] = domain.LookupNotFound
	v.ClearCache()

	assert.False(t, v.HasValidMX(context.Background(), "example.com"))
	assert.Equal(t, 2, records.mxCalls)
}

func TestHasValidMX_DisabledCachingBypassesCache(t *testing.T) {
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"example.com": domain.LookupFound}}
	v := newTestValidator(t, nil, records)

	// prime the cache, then disable caching
	assert.True(t, v.HasValidMX(context.Background(), "example.com"))
	v.SetCachingEnabled(false)
	assert.False(t, v.CachingEnabled())

	// every call is now a fresh lookup; the cache is neither read nor written
	records.mx["example.com"] = domain.LookupNotFound
	assert.False(t, v.HasValidMX(context.Background(), "example.com"))
	assert.False(t, v.HasValidMX(context.Background(), "example.com"))
	assert.Equal(t, 3, records.mxCalls)

	// re-enabling resumes reading the stale pre-disable entry
	v.SetCachingEnabled(true)
	assert.True(t, v.HasValidMX(context.Background(), "example.com"))
	assert.Equal(t, 3, records.mxCalls)
}

func TestHasValidMX_FailureCollapsesToFalse(t *testing.T) {
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"down.example": domain.LookupFailed}}
	v := newTestValidator(t, nil, records)

	assert.False(t, v.HasValidMX(context.Background(), "down.example"))
}

func TestHasValidMX_NormalizesDomain(t *testing.T) {
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"example.com": domain.LookupFound}}
	v := newTestValidator(t, nil, records)

	assert.True(t, v.HasValidMX(context.Background(), "  Example.COM "))
	assert.True(t, v.HasValidMX(context.Background(), "example.com"))
	// both spellings resolve to one cache entry
	assert.Equal(t, 1, records.mxCalls)
}

func TestHasValidDNS_NeverCached(t *testing.T) {
	records := &fakeRecords{
		ip4: map[string]domain.LookupOutcome{"example.com": domain.LookupFound},
	}
	v := newTestValidator(t, nil, records)

	assert.True(t, v.HasValidDNS(context.Background(), "example.com"))
	assert.True(t, v.HasValidDNS(context.Background(), "example.com"))
	assert.Equal(t, 2, records.ipCalls)
}

func TestHasValidDNS_FallsBackToAAAA(t *testing.T) {
	records := &fakeRecords{
		ip6: map[string]domain.LookupOutcome{"v6only.example": domain.LookupFound},
	}
	v := newTestValidator(t, nil, records)

	assert.True(t, v.HasValidDNS(context.Background(), "v6only.example"))
	// A miss, then AAAA hit
	assert.Equal(t, 2, records.ipCalls)

	assert.False(t, v.HasValidDNS(context.Background(), "nowhere.example"))
}

func TestIsValid_ShortCircuits(t *testing.T) {
	classifier := &fakeClassifier{disposable: map[string]bool{"tempmail.com": true}}
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"example.com": domain.LookupFound}}
	v := newTestValidator(t, classifier, records)

	// bad format never reaches the resolver
	assert.False(t, v.IsValid(context.Background(), "invalid-email", true))
	assert.Equal(t, 0, records.mxCalls)

	// disposable never reaches the resolver either
	assert.False(t, v.IsValid(context.Background(), "user@tempmail.com", true))
	assert.Equal(t, 0, records.mxCalls)

	// checkMX false skips the MX stage entirely
	assert.True(t, v.IsValid(context.Background(), "user@unresolvable.example", false))
	assert.Equal(t, 0, records.mxCalls)

	assert.True(t, v.IsValid(context.Background(), "user@example.com", true))
	assert.Equal(t, 1, records.mxCalls)
}

func TestValidateWithDetails_InvalidFormat(t *testing.T) {
	v := newTestValidator(t, nil, &fakeRecords{})

	res := v.ValidateWithDetails(context.Background(), "invalid-email", false)
	assert.False(t, res.Valid)
	assert.False(t, res.FormatValid)
	assert.False(t, res.Disposable)
	assert.Empty(t, res.Domain)
	assert.Equal(t, []string{"Invalid email format"}, res.Errors)
}

func TestValidateWithDetails_DomainIsEager(t *testing.T) {
	v := newTestValidator(t, nil, &fakeRecords{})

	// malformed, but the last '@' still yields a domain
	res := v.ValidateWithDetails(context.Background(), "user@@Example.COM", false)
	assert.False(t, res.FormatValid)
	assert.Equal(t, "example.com", res.Domain)
	// lists are never consulted for malformed input
	assert.False(t, res.Disposable)
}

func TestValidateWithDetails_ErrorOrder(t *testing.T) {
	classifier := &fakeClassifier{disposable: map[string]bool{"tempmail.com": true}}
	records := &fakeRecords{} // no MX anywhere
	v := newTestValidator(t, classifier, records)

	res := v.ValidateWithDetails(context.Background(), "user@tempmail.com", true)
	assert.False(t, res.Valid)
	assert.True(t, res.FormatValid)
	assert.True(t, res.Disposable)
	assert.True(t, res.MXChecked)
	assert.False(t, res.MXValid)
	assert.Equal(t, []string{"Disposable email domain", "No valid MX records"}, res.Errors)
}

func TestValidateWithDetails_ValidAddress(t *testing.T) {
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"example.com": domain.LookupFound}}
	v := newTestValidator(t, nil, records)

	res := v.ValidateWithDetails(context.Background(), "user@example.com", true)
	assert.True(t, res.Valid)
	assert.True(t, res.FormatValid)
	assert.False(t, res.Disposable)
	assert.True(t, res.MXChecked)
	assert.True(t, res.MXValid)
	assert.Empty(t, res.Errors)
}

func TestValidateMany_KeysAreExactInputs(t *testing.T) {
	v := newTestValidator(t, nil, &fakeRecords{})

	emails := []string{" User@Example.com ", "bad", " User@Example.com "}
	got := v.ValidateMany(context.Background(), emails, false)

	// duplicates collapse; keys keep whitespace and casing
	require.Len(t, got, 2)
	_, ok := got[" User@Example.com "]
	assert.True(t, ok)
	assert.False(t, got["bad"].Valid)
}

func TestFilters_PreserveOrderAndDuplicates(t *testing.T) {
	classifier := &fakeClassifier{disposable: map[string]bool{"tempmail.com": true}}
	v := newTestValidator(t, classifier, &fakeRecords{})

	emails := []string{"a@gmail.com", "bad", "a@gmail.com", "b@tempmail.com"}
	valid := v.FilterValid(context.Background(), emails, false)
	invalid := v.FilterInvalid(context.Background(), emails, false)

	assert.Equal(t, []string{"a@gmail.com", "a@gmail.com"}, valid)
	assert.Equal(t, []string{"bad", "b@tempmail.com"}, invalid)
}

func TestStatistics(t *testing.T) {
	classifier := &fakeClassifier{disposable: map[string]bool{"tempmail.com": true}}
	v := newTestValidator(t, classifier, &fakeRecords{})

	emails := []string{"a@gmail.com", "b@tempmail.com", "bad", "c@example.com"}
	stats := v.Statistics(context.Background(), emails, false)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Valid)
	assert.Equal(t, 2, stats.Invalid)
	assert.Equal(t, 1, stats.InvalidFormat)
	assert.Equal(t, 1, stats.Disposable)
	assert.Equal(t, 0, stats.NoMX)
}

func TestStatistics_WithMXChecks(t *testing.T) {
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"gmail.com": domain.LookupFound}}
	v := newTestValidator(t, nil, records)

	emails := []string{"a@gmail.com", "b@unresolvable.example"}
	stats := v.Statistics(context.Background(), emails, true)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 1, stats.Invalid)
	assert.Equal(t, 1, stats.NoMX)
}

func TestValidator_NilCacheActsDisabled(t *testing.T) {
	records := &fakeRecords{mx: map[string]domain.LookupOutcome{"example.com": domain.LookupFound}}
	v := New(Options{
		Classifier: &fakeClassifier{disposable: map[string]bool{}},
		Records:    records,
	})

	assert.False(t, v.CachingEnabled())
	assert.True(t, v.HasValidMX(context.Background(), "example.com"))
	assert.True(t, v.HasValidMX(context.Background(), "example.com"))
	assert.Equal(t, 2, records.mxCalls)

	// enabling without a cache stays off
	v.SetCachingEnabled(true)
	assert.False(t, v.CachingEnabled())
	v.ClearCache()
}
