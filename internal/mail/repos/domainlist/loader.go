package domainlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	logpkg "github.com/mailscreen/mailscreen/internal/mail/common/log"
)

// Loader reads line-oriented domain list files and memoizes the parsed
// result per path. The cache is owned by the Loader instance, not shared
// process-wide, so independent loaders stay isolated and tests cannot
// interfere with each other through load order.
type Loader struct {
	mu     sync.Mutex
	cache  map[string][]string
	logger logpkg.Logger
}

// NewLoader constructs a Loader with an empty file cache.
func NewLoader(logger logpkg.Logger) *Loader {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	return &Loader{
		cache:  make(map[string][]string),
		logger: logger,
	}
}

// Load returns the domains from the file at path, in file order. Repeated
// loads of the same path are served from the cache without touching disk.
// A missing or unreadable file is reported to the caller; classification
// never triggers this error class.
func (l *Loader) Load(path string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.cache[path]; ok {
		l.logger.Debug(map[string]any{"path": path, "count": len(cached)}, "list_load_cached")
		out := make([]string, len(cached))
		copy(out, cached)
		return out, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domain list %s: %w", path, err)
	}
	defer f.Close()

	domains, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("parse domain list %s: %w", path, err)
	}

	l.cache[path] = domains
	l.logger.Debug(map[string]any{"path": path, "count": len(domains)}, "list_load_done")

	out := make([]string, len(domains))
	copy(out, domains)
	return out, nil
}

// ClearCache drops all memoized file contents. The next Load for any path
// re-reads from disk.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.cache = make(map[string][]string)
	l.mu.Unlock()
}

// ParseList reads a plain domain list: one domain per line, lines starting
// with '#' or ';' are comments, blank lines are skipped, retained lines are
// trimmed and lowercased. Duplicates collapse to the first occurrence while
// preserving order.
func ParseList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	seen := make(map[string]struct{})
	out := make([]string, 0, 256)
	for scanner.Scan() {
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		dom := strings.ToLower(trimmed)
		if _, ok := seen[dom]; ok {
			continue
		}
		seen[dom] = struct{}{}
		out = append(out, dom)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveList writes domains to path in the flat list format: deduplicated,
// trimmed, lowercased, sorted bytewise, one domain per line. The result
// round-trips through Load into a sorted, deduplicated list regardless of
// input casing, duplication or whitespace.
func SaveList(path string, domains []string) error {
	seen := make(map[string]struct{}, len(domains))
	cleaned := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		cleaned = append(cleaned, d)
	}
	sort.Strings(cleaned)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create domain list %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, d := range cleaned {
		if _, err := w.WriteString(d + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("write domain list %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush domain list %s: %w", path, err)
	}
	return f.Close()
}
