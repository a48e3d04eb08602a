package useragent

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync/atomic"
)

// DefaultPool holds desktop browser User-Agents that search engines serve the
// full HTML results page to. Results pages degrade to a "basic" layout for
// unknown or outdated agents, which breaks the result selectors.
var DefaultPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Strategy selects how the next User-Agent is picked.
type Strategy string

const (
	Sequential Strategy = "sequential"
	Random     Strategy = "random"
)

// Pool hands out User-Agent strings. It is safe for concurrent use.
type Pool struct {
	uas      []string
	strategy Strategy
	counter  atomic.Uint64
}

// NewPool creates a pool rotating sequentially over uas. Blank entries are
// dropped; an empty list falls back to DefaultPool.
func NewPool(uas []string) *Pool {
	return NewPoolWithStrategy(uas, Sequential)
}

// NewPoolWithStrategy is NewPool with an explicit pick strategy.
func NewPoolWithStrategy(uas []string, strategy Strategy) *Pool {
	cleaned := make([]string, 0, len(uas))
	for _, ua := range uas {
		if ua = strings.TrimSpace(ua); ua != "" {
			cleaned = append(cleaned, ua)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultPool...)
	}
	if strategy != Random {
		strategy = Sequential
	}
	return &Pool{uas: cleaned, strategy: strategy}
}

// Next returns a User-Agent according to the pool's strategy.
func (p *Pool) Next() string {
	if p.strategy == Random {
		return p.GetRandom()
	}
	return p.GetSequential()
}

// GetSequential returns the next User-Agent in round-robin order.
func (p *Pool) GetSequential() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// GetRandom returns a User-Agent chosen with crypto/rand, falling back to
// round-robin if the random source fails.
func (p *Pool) GetRandom() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.GetSequential()
	}
	return p.uas[n.Int64()]
}

// Len reports the number of agents in the pool.
func (p *Pool) Len() int {
	return len(p.uas)
}
