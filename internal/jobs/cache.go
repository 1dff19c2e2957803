package jobs

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Searcher runs a job search. *Fetcher implements it.
type Searcher interface {
	Fetch(ctx context.Context, role string) (*Result, error)
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL   time.Duration
	MaxEntries int
	// FetchTimeout bounds a shared upstream search. It runs detached from
	// any single caller's context.
	FetchTimeout time.Duration
	SkipCache    bool // For testing or forcing fresh fetches
}

const defaultFetchTimeout = 20 * time.Second

// DefaultCachedFetcherConfig keeps results for CacheMaxAge.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL:     CacheMaxAge,
		MaxEntries:   256,
		FetchTimeout: defaultFetchTimeout,
	}
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
	seq       uint64 // insertion order, lowest is evicted first
}

// CachedFetcher wraps a Searcher with an in-memory cache keyed by role.
// Concurrent searches for the same role share one upstream request. Errors
// are never cached, so a missing credential is re-checked on every call.
type CachedFetcher struct {
	next   Searcher
	config *CachedFetcherConfig
	now    func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]cacheEntry
	nextSeq uint64
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(next Searcher, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = CacheMaxAge
	}
	if config.FetchTimeout == 0 {
		config.FetchTimeout = defaultFetchTimeout
	}
	return &CachedFetcher{
		next:    next,
		config:  config,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(role string) string {
	return strings.Join(strings.Fields(strings.ToLower(role)), " ")
}

// Fetch returns a fresh cached result for role or searches upstream.
//
// The upstream search is shared by every caller waiting on the same role and
// is not cancelled when one of them goes away. Each caller stops waiting as
// soon as its own ctx is done.
func (f *CachedFetcher) Fetch(ctx context.Context, role string) (*Result, error) {
	if f.config.SkipCache {
		return f.next.Fetch(ctx, role)
	}

	key := cacheKey(role)
	if result, ok := f.lookup(key); ok {
		return result, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(shared, f.config.FetchTimeout)
		defer cancel()

		result, err := f.next.Fetch(fetchCtx, role)
		if err != nil {
			return nil, err
		}
		f.store(key, result)
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	case <-ctx.Done():
		return nil, &UpstreamError{Message: "job search abandoned", Cause: ctx.Err()}
	}
}

func (f *CachedFetcher) lookup(key string) (*Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[key]
	if !ok {
		return nil, false
	}
	if !f.now().Before(entry.expiresAt) {
		delete(f.entries, key)
		return nil, false
	}
	return entry.result, true
}

func (f *CachedFetcher) store(key string, result *Result) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	delete(f.entries, key)
	if f.config.MaxEntries > 0 && len(f.entries) >= f.config.MaxEntries {
		for k, e := range f.entries {
			if !now.Before(e.expiresAt) {
				delete(f.entries, k)
			}
		}
		for len(f.entries) >= f.config.MaxEntries {
			delete(f.entries, f.oldestKey())
		}
	}

	f.nextSeq++
	f.entries[key] = cacheEntry{result: result, expiresAt: now.Add(f.config.CacheTTL), seq: f.nextSeq}
}

// oldestKey must be called with mu held on a non-empty cache
func (f *CachedFetcher) oldestKey() string {
	var (
		oldest string
		minSeq uint64
		found  bool
	)
	for k, e := range f.entries {
		if !found || e.seq < minSeq {
			oldest, minSeq, found = k, e.seq, true
		}
	}
	return oldest
}

// Invalidate drops every cached result, e.g. after credentials change.
func (f *CachedFetcher) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.entries)
}
