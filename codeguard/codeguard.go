// Package codeguard rejects replays of one-time OAuth authorization codes.
package codeguard

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mager/tastebud/config"
)

// Guard remembers consumed authorization codes. A code is remembered
// whether or not its exchange later succeeded, so a retry after a failed
// exchange is rejected as well.
//
// Memory is bounded: codes are forgotten after ttl, and once capacity is
// reached the oldest code is dropped first.
type Guard struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

// New builds a Guard. A zero capacity means unbounded and a zero ttl means
// codes never expire.
func New(capacity int, ttl time.Duration) *Guard {
	return &Guard{
		seen: expirable.NewLRU[string, struct{}](capacity, nil, ttl),
	}
}

// Admit reports whether code is presented for the first time and records
// it. The check and the insert happen in one critical section.
func (g *Guard) Admit(code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen.Peek(code); ok {
		return false
	}
	g.seen.Add(code, struct{}{})
	return true
}

// Len reports how many codes are currently remembered.
func (g *Guard) Len() int {
	return g.seen.Len()
}

func ProvideGuard(cfg config.Config) *Guard {
	return New(cfg.CodeCapacity, cfg.CodeTTL)
}

var Options = ProvideGuard
