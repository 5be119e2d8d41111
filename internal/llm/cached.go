package llm

import (
	"context"
	"time"

	"github.com/ppiankov/globechat/internal/cache"
)

// CachedProvider memoizes successful generations for identical payloads.
// Failures are never stored.
type CachedProvider struct {
	inner Provider
	cache cache.Cache[GenerateResponse]
	ttl   time.Duration
}

// NewCachedProvider wraps inner with a response cache
func NewCachedProvider(inner Provider, c cache.Cache[GenerateResponse], ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c, ttl: ttl}
}

// Name returns the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (p *CachedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Stats reports cache effectiveness
func (p *CachedProvider) Stats() cache.Stats {
	return p.cache.Stats()
}

// Generate returns a cached answer when one exists, otherwise calls through
func (p *CachedProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	key := cache.Key(p.inner.Name(), req.Model, req.Payload.Instruction(), req.Payload.Question())

	if hit, ok := p.cache.Get(key); ok {
		hit.Cached = true
		return &hit, nil
	}

	resp, err := p.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	stored := *resp
	stored.Cached = false
	p.cache.Set(key, stored, p.ttl)
	return resp, nil
}
