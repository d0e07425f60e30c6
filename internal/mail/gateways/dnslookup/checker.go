package dnslookup

import (
	"context"
	"errors"
	"net"
	"time"

	logpkg "github.com/mailscreen/mailscreen/internal/mail/common/log"
	"github.com/mailscreen/mailscreen/internal/mail/domain"
)

const defaultTimeout = 5 * time.Second

// Resolver is the subset of net.Resolver the checker needs.
// net.DefaultResolver satisfies it; tests substitute fakes.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Checker answers record-presence questions against live DNS.
// Lookups never surface errors to callers: failures are reported as the
// LookupFailed outcome and collapse to false at the boolean surface.
type Checker struct {
	resolver Resolver
	timeout  time.Duration
	logger   logpkg.Logger
}

// Options configures a Checker.
type Options struct {
	Resolver Resolver      // defaults to net.DefaultResolver
	Timeout  time.Duration // per-lookup upper bound, defaults to 5s
	Logger   logpkg.Logger // defaults to the noop logger
}

// New creates a Checker with the given options.
func New(opts Options) *Checker {
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNoopLogger()
	}
	return &Checker{
		resolver: opts.Resolver,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// Lookup reports whether the domain has at least one usable record of the
// given type. The domain is IDNA-encoded before the query. When the context
// carries no deadline, the checker's own timeout applies.
func (c *Checker) Lookup(ctx context.Context, dom string, rt domain.RecordType) domain.LookupOutcome {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	dom = domain.ToASCII(dom)

	var outcome domain.LookupOutcome
	switch rt {
	case domain.RecordTypeMX:
		outcome = c.lookupMX(ctx, dom)
	case domain.RecordTypeA:
		outcome = c.lookupIP(ctx, "ip4", dom)
	case domain.RecordTypeAAAA:
		outcome = c.lookupIP(ctx, "ip6", dom)
	default:
		outcome = domain.LookupNotFound
	}

	if outcome == domain.LookupFailed {
		c.logger.Debug(map[string]any{
			"domain": dom,
			"type":   rt.String(),
		}, "dns_lookup_failed")
	}
	return outcome
}

// HasRecords collapses Lookup to the boolean contract: failures count as
// "no record".
func (c *Checker) HasRecords(ctx context.Context, dom string, rt domain.RecordType) bool {
	return c.Lookup(ctx, dom, rt).Bool()
}

// lookupMX queries MX records. A null MX ("." target, RFC 7505) announces
// that the domain accepts no mail and counts as not found.
func (c *Checker) lookupMX(ctx context.Context, dom string) domain.LookupOutcome {
	records, err := c.resolver.LookupMX(ctx, dom)
	usable := 0
	for _, mx := range records {
		if mx != nil && mx.Host != "" && mx.Host != "." {
			usable++
		}
	}
	// partial answers with usable hosts still count
	if usable > 0 {
		return domain.LookupFound
	}
	if err != nil {
		return classifyErr(err)
	}
	return domain.LookupNotFound
}

// lookupIP queries A or AAAA records depending on network.
func (c *Checker) lookupIP(ctx context.Context, network, dom string) domain.LookupOutcome {
	ips, err := c.resolver.LookupIP(ctx, network, dom)
	if len(ips) > 0 {
		return domain.LookupFound
	}
	if err != nil {
		return classifyErr(err)
	}
	return domain.LookupNotFound
}

// classifyErr maps resolver errors to outcomes: an authoritative NXDOMAIN is
// a definite not-found, everything else (timeout, refused, network error) is
// a lookup failure.
func classifyErr(err error) domain.LookupOutcome {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return domain.LookupNotFound
	}
	return domain.LookupFailed
}
