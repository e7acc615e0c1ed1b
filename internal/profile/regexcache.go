package profile

import (
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/solwick/cascade/internal/parseerr"
)

// RegexCache is a bounded cache of compiled regular expressions, used by
// ad hoc regex profiles supplied at the CLI so repeated patterns are
// compiled once regardless of how many lines reference them.
type RegexCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewRegexCache builds a RegexCache holding up to capacity compiled
// patterns, evicting least-recently-used entries beyond that.
func NewRegexCache(capacity int) (*RegexCache, error) {
	c, err := lru.New[string, *regexp.Regexp](capacity)
	if err != nil {
		return nil, &parseerr.ConfigurationError{Parameter: "regex_cache_capacity", ErrorMessage: err.Error()}
	}
	return &RegexCache{cache: c}, nil
}

// Compile returns the compiled regexp for pattern, compiling and caching
// it on first use.
func (c *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if re, ok := c.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &parseerr.RegexError{Pattern: pattern, ErrorMessage: err.Error()}
	}
	c.cache.Add(pattern, re)
	return re, nil
}

// Len reports the number of compiled patterns currently cached.
func (c *RegexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
