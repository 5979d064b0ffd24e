package record

import (
	"time"

	"github.com/google/uuid"
)

// Importance classifies how much a memory matters to retention decisions.
type Importance string

// Importance levels, weakest to strongest.
const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

// Memory is the plain knowledge record as the rest of the system sees it:
// no replication machinery, just current values.
//
// Timestamps are carried at microsecond precision in UTC; replication
// round-trips preserve exactly that much.
type Memory struct {
	// ID uniquely identifies the record. Immutable once assigned.
	ID string

	// Content is the knowledge payload.
	Content string

	// Summary is a short human-readable digest of Content.
	Summary string

	// ValidFrom and ValidUntil bound when the content holds true.
	// Zero values mean unbounded.
	ValidFrom  time.Time
	ValidUntil time.Time

	// Confidence in [0, 1]. Only explicit boosts replicate.
	Confidence float64

	// Importance level.
	Importance Importance

	// AccessCount accumulates across all agents.
	AccessCount int64

	// LastAccessed is the most recent access on any replica.
	LastAccessed time.Time

	// Tags are free-form labels.
	Tags []string

	// LinkedContexts and LinkedFiles reference related artifacts.
	LinkedContexts []string
	LinkedFiles    []string

	// Supersedes lists record IDs this one replaces; SupersededBy points
	// the other way.
	Supersedes   []string
	SupersededBy string

	// Archived marks the record as retired from active recall.
	Archived bool

	// CreatedAt and SourceAgent are set at creation and never change.
	CreatedAt   time.Time
	SourceAgent string

	// Conflicted is set by Snapshot when concurrent content writes have
	// not been resolved yet. It is derived state, never stored.
	Conflicted bool
}

// NewMemory creates a plain record with a fresh UUID, owned by agent.
func NewMemory(content, summary, agent string, now time.Time) Memory {
	return Memory{
		ID:          uuid.NewString(),
		Content:     content,
		Summary:     summary,
		Confidence:  0.5,
		Importance:  ImportanceMedium,
		CreatedAt:   now.UTC().Truncate(time.Microsecond),
		SourceAgent: agent,
	}
}

// stampOf converts a time to the unix-microsecond stamp used by the
// replicated primitives. The zero time maps to stamp 0.
func stampOf(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// timeOf is the inverse of stampOf.
func timeOf(stamp int64) time.Time {
	if stamp == 0 {
		return time.Time{}
	}
	return time.UnixMicro(stamp).UTC()
}

// clamp01 clamps v to [0, 1]. Out-of-range values from a misbehaving peer
// degrade gracefully instead of halting convergence.
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
