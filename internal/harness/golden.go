package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/cortexmem/cortex/internal/codec"
	"github.com/cortexmem/cortex/internal/graph"
)

// GoldenBytes renders the first replica's resolved state as canonical
// JSON. Scenarios assert convergence before goldens are compared, so any
// replica would serve.
//
// The golden captures resolved values only, not CRDT internals: it is the
// outcome a reader of the scenario can predict, and stays stable across
// representation changes.
func (r *Result) GoldenBytes() ([]byte, error) {
	var doc any
	if r.Graphs != nil {
		doc = goldenGraphDoc(r.graphFor(""))
	} else {
		doc = goldenRecordDoc(r)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return codec.Canonicalize(raw)
}

func goldenRecordDoc(r *Result) map[string]any {
	rec := r.recordFor("")
	snap := rec.Snapshot()
	return map[string]any{
		"id":              snap.ID,
		"content":         rec.Content.Values(),
		"conflicted":      snap.Conflicted,
		"summary":         snap.Summary,
		"importance":      string(snap.Importance),
		"archived":        snap.Archived,
		"confidence":      snap.Confidence,
		"access_count":    snap.AccessCount,
		"tags":            sorted(snap.Tags),
		"linked_contexts": sorted(snap.LinkedContexts),
		"linked_files":    sorted(snap.LinkedFiles),
	}
}

func goldenGraphDoc(g *graph.CausalGraph) map[string]any {
	edges := make([]any, 0, g.EdgeCount())
	for _, e := range g.EdgeList() {
		strength, _ := g.Strength(e.Source, e.Target, e.Relation)
		edges = append(edges, map[string]any{
			"source":   e.Source,
			"target":   e.Target,
			"relation": e.Relation,
			"strength": strength,
		})
	}
	return map[string]any{"edges": edges}
}

// RunWithGolden executes a scenario, verifies its assertions, and
// compares the resolved outcome against testdata/golden/{name}.golden.
// Regenerate goldens with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if err := Verify(result); err != nil {
		return err
	}

	outcome, err := result.GoldenBytes()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, outcome)
	return nil
}
