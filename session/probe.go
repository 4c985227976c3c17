package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jmcleod/vrchatbot/internal/metrics"
	"github.com/jmcleod/vrchatbot/vrchat"
)

// DefaultProbeTTL is how long a usability result is reused.
const DefaultProbeTTL = 10 * time.Second

type probeResult struct {
	usable  bool
	expires time.Time
}

// Prober checks whether a client's session is still authorized by listing
// at most one friend. Results are cached per client for the TTL.
type Prober struct {
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Collector

	mu      sync.Mutex
	results map[*vrchat.Client]probeResult
}

// NewProber returns a Prober caching results for ttl. A ttl of zero
// disables caching.
func NewProber(ttl time.Duration, m *metrics.Collector) *Prober {
	return &Prober{
		ttl:     ttl,
		now:     time.Now,
		metrics: m,
		results: make(map[*vrchat.Client]probeResult),
	}
}

// Usable reports whether c can make authenticated calls. Only an
// unauthorized answer yields false; other failures are returned as errors
// and are not cached.
func (p *Prober) Usable(ctx context.Context, c *vrchat.Client) (bool, error) {
	if usable, ok := p.cached(c); ok {
		p.metrics.RecordProbe(metrics.ProbeCached)
		return usable, nil
	}

	_, err := c.Friends(ctx, false, 1, 0)
	var usable bool
	switch {
	case err == nil:
		usable = true
		p.metrics.RecordProbe(metrics.ProbeUsable)
	case errors.Is(err, vrchat.ErrUnauthorized):
		p.metrics.RecordProbe(metrics.ProbeUnusable)
	default:
		p.metrics.RecordProbe(metrics.ProbeError)
		return false, err
	}
	p.store(c, usable)
	return usable, nil
}

// Forget drops the cached result for c.
func (p *Prober) Forget(c *vrchat.Client) {
	p.mu.Lock()
	delete(p.results, c)
	p.mu.Unlock()
}

func (p *Prober) cached(c *vrchat.Client) (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.results[c]
	if !ok {
		return false, false
	}
	if !p.now().Before(r.expires) {
		delete(p.results, c)
		return false, false
	}
	return r.usable, true
}

func (p *Prober) store(c *vrchat.Client, usable bool) {
	if p.ttl <= 0 {
		return
	}
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, r := range p.results {
		if !now.Before(r.expires) {
			delete(p.results, k)
		}
	}
	p.results[c] = probeResult{usable: usable, expires: now.Add(p.ttl)}
}
