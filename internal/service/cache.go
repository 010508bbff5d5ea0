package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
	"unicode"

	gocache "github.com/patrickmn/go-cache"
)

// NormalizeQuestion folds case, punctuation and whitespace variance so that
// materially identical questions share one cache key. This is textual
// dedup, not semantic matching.
func NormalizeQuestion(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	space := false
	for _, r := range strings.ToLower(q) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QuestionKey hashes a normalized question into a fixed-size cache key.
func QuestionKey(q string) string {
	sum := sha256.Sum256([]byte(NormalizeQuestion(q)))
	return hex.EncodeToString(sum[:])
}

// AnswerCache memoizes (tenant, normalized question) -> answer. Each tenant
// gets its own cache instance, so entries cannot leak across tenants and a
// whole tenant can be invalidated in one swap.
type AnswerCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	tenants map[string]*gocache.Cache
}

// NewAnswerCache creates a cache whose entries expire after ttl. Expired
// entries are purged every ten minutes.
func NewAnswerCache(ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AnswerCache{
		ttl:     ttl,
		tenants: make(map[string]*gocache.Cache),
	}
}

// Lookup returns the cached answer for a question, if present.
func (c *AnswerCache) Lookup(tenantID, question string) (string, bool) {
	c.mu.RLock()
	tc := c.tenants[tenantID]
	c.mu.RUnlock()

	if tc == nil {
		return "", false
	}

	if v, found := tc.Get(QuestionKey(question)); found {
		return v.(string), true
	}
	return "", false
}

// Store memoizes an answer. Writes are last-writer-wins and idempotent.
func (c *AnswerCache) Store(tenantID, question, answer string) {
	c.mu.RLock()
	tc := c.tenants[tenantID]
	c.mu.RUnlock()

	if tc == nil {
		c.mu.Lock()
		if tc = c.tenants[tenantID]; tc == nil {
			tc = gocache.New(c.ttl, 10*time.Minute)
			c.tenants[tenantID] = tc
		}
		c.mu.Unlock()
	}

	tc.Set(QuestionKey(question), answer, gocache.DefaultExpiration)
}

// InvalidateTenant drops every cached answer for one tenant. Called after
// each successful ingest, because the grounding data changed.
func (c *AnswerCache) InvalidateTenant(tenantID string) {
	c.mu.Lock()
	delete(c.tenants, tenantID)
	c.mu.Unlock()
}
