package domainlist

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// bloomMinEntries is the block-set size at which the negative prefilter
// starts paying for itself. Below it every lookup goes straight to the map.
const bloomMinEntries = 1024

// bloomFPRate is the target false-positive rate for the prefilter.
// False positives only cost a map lookup, never a wrong decision.
const bloomFPRate = 0.001

// Classifier decides whether a domain should be treated as disposable.
// It owns two domain sets: a blocklist of known disposable domains and an
// allowlist that unconditionally overrides the blocklist.
//
// A Bloom filter fronts the blocklist once it grows large enough; a negative
// answer skips the map entirely. The filter is append-only between rebuilds,
// so removals leave stale maybe-positives behind until the next bulk update.
// The allow set is never bloomed: precedence decisions must stay exact.
//
// All methods are safe for concurrent use.
type Classifier struct {
	mu    sync.RWMutex
	block *Set
	allow *Set
	bloom *bitsbloom.BloomFilter
}

// NewClassifier creates a Classifier with empty block and allow sets.
func NewClassifier() *Classifier {
	return &Classifier{
		block: NewSet(),
		allow: NewSet(),
	}
}

// IsDisposable reports whether the domain should be treated as disposable.
// Allowlist membership always wins, regardless of blocklist membership.
// A domain in neither set is never disposable. Lookup normalizes the input,
// so callers may pass raw, mixed-case domains.
func (c *Classifier) IsDisposable(dom string) bool {
	cn := NormalizeDomain(dom)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allow.Contains(cn) {
		return false
	}
	if c.bloom != nil && !c.bloom.TestString(cn) {
		return false
	}
	return c.block.Contains(cn)
}

// IsBlocklisted reports raw blocklist membership. It does not consult the
// allow set; use IsDisposable for the precedence-aware decision.
func (c *Classifier) IsBlocklisted(dom string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.block.Contains(dom)
}

// IsAllowlisted reports raw allowlist membership.
func (c *Classifier) IsAllowlisted(dom string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allow.Contains(dom)
}

// AddToBlocklist inserts a domain into the blocklist. Repeated adds are
// no-ops. Returns the Classifier for chaining.
func (c *Classifier) AddToBlocklist(dom string) *Classifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.block.Add(dom) && c.bloom != nil {
		c.bloom.AddString(NormalizeDomain(dom))
	}
	return c
}

// AddToAllowlist inserts a domain into the allowlist. Repeated adds are
// no-ops. Returns the Classifier for chaining.
func (c *Classifier) AddToAllowlist(dom string) *Classifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allow.Add(dom)
	return c
}

// AddAllToBlocklist bulk-inserts domains into the blocklist and rebuilds
// the prefilter when the set is large enough to warrant one.
func (c *Classifier) AddAllToBlocklist(domains []string) *Classifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range domains {
		c.block.Add(d)
	}
	c.rebuildBloomLocked()
	return c
}

// AddAllToAllowlist bulk-inserts domains into the allowlist.
func (c *Classifier) AddAllToAllowlist(domains []string) *Classifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range domains {
		c.allow.Add(d)
	}
	return c
}

// AddDisposableDomains bulk-inserts feed entries into the blocklist.
// Non-fluent form consumed by the remote list updater.
func (c *Classifier) AddDisposableDomains(domains []string) {
	c.AddAllToBlocklist(domains)
}

// RemoveFromBlocklist deletes a domain from the blocklist if present.
// The prefilter keeps its stale maybe-positive; membership stays correct
// because the map is authoritative on positives.
func (c *Classifier) RemoveFromBlocklist(dom string) *Classifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block.Remove(dom)
	return c
}

// RemoveFromAllowlist deletes a domain from the allowlist if present.
func (c *Classifier) RemoveFromAllowlist(dom string) *Classifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allow.Remove(dom)
	return c
}

// BlocklistSize returns the number of blocklisted domains.
func (c *Classifier) BlocklistSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.block.Len()
}

// AllowlistSize returns the number of allowlisted domains.
func (c *Classifier) AllowlistSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allow.Len()
}

// Blocklist returns the blocklisted domains in insertion order.
func (c *Classifier) Blocklist() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.block.Domains()
}

// Allowlist returns the allowlisted domains in insertion order.
func (c *Classifier) Allowlist() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allow.Domains()
}

// rebuildBloomLocked resizes and repopulates the prefilter from the current
// block set, or drops it when the set is too small. Caller holds the lock.
func (c *Classifier) rebuildBloomLocked() {
	n := c.block.Len()
	if n < bloomMinEntries {
		c.bloom = nil
		return
	}
	bf := bitsbloom.NewWithEstimates(uint(n)*2, bloomFPRate)
	for _, d := range c.block.Domains() {
		bf.AddString(d)
	}
	c.bloom = bf
}
