package survey

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator mints entity ids. kind is "service", "panel" or "breaker";
// generators may use it as a prefix or ignore it.
type IDGenerator interface {
	NewID(kind string) string
}

// UUIDGenerator mints random UUIDs.
type UUIDGenerator struct{}

// NewID returns a fresh UUID string.
func (UUIDGenerator) NewID(string) string { return uuid.NewString() }

// Counter mints "kind-N" ids from a monotonic sequence. Each Counter is
// independent, so separate snapshots (or tests) never share state.
type Counter struct {
	mu sync.Mutex
	n  int
}

// NewCounter returns a counter starting at 1.
func NewCounter() *Counter { return &Counter{} }

// NewID returns the next id in the sequence.
func (c *Counter) NewID(kind string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	if kind == "" {
		return strconv.Itoa(c.n)
	}
	return kind + "-" + strconv.Itoa(c.n)
}

// usedIDs returns every service, panel and breaker id in s.
func (s Survey) usedIDs() map[string]bool {
	used := make(map[string]bool)
	for _, svc := range s.Services {
		used[svc.ID] = true
	}
	for _, p := range s.Panels {
		used[p.ID] = true
		for _, b := range p.Breakers {
			used[b.ID] = true
		}
	}
	return used
}
