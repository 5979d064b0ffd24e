// Package testutil provides deterministic time and identity sources for
// tests. Replica convergence tests compare canonical encodings byte for
// byte, so every timestamp and record id a scenario produces has to be
// reproducible across runs.
package testutil

import (
	"fmt"
	"sync"
	"time"
)

// Stamper is a thread-safe deterministic wall clock for tests. Each call
// to Next advances by a fixed step, so the same scenario produces the same
// write stamps on every run.
type Stamper struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int64
}

// NewStamper creates a stamper starting at base. The first call to Next
// returns base + step.
func NewStamper(base time.Time, step time.Duration) *Stamper {
	return &Stamper{base: base.UTC(), step: step}
}

// Next advances the clock one step and returns the new time.
func (s *Stamper) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.base.Add(time.Duration(s.n) * s.step)
}

// Current returns the current time without advancing.
func (s *Stamper) Current() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.Add(time.Duration(s.n) * s.step)
}

// Reset rewinds the stamper to its base time.
func (s *Stamper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}

// IDGenerator issues sequential record identifiers like "mem-000001".
// Used where random UUIDs would break golden comparisons.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewIDGenerator creates a generator with the given prefix. An empty
// prefix defaults to "mem".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "mem"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}
