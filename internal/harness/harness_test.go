package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Scripted Runs
// ============================================================================

func runScenario(t *testing.T, yaml string) *Result {
	t.Helper()
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	return result
}

func TestRun_LWWTieBreak(t *testing.T) {
	result := runScenario(t, `
name: tie
description: concurrent equal-stamp writes resolve by agent order
agents: [agent-1, agent-2]
record: {id: mem-1, content: c, summary: s}
steps:
  - {agent: agent-1, op: set_summary, value: one, at: 10}
  - {agent: agent-2, op: set_summary, value: two, at: 10}
sync:
  - between: [agent-1, agent-2]
assertions:
  - {type: converged}
  - {type: summary, value: two}
`)
	require.NoError(t, Verify(result))

	// Both replicas resolve identically.
	assert.Equal(t, "two", result.Records["agent-1"].Snapshot().Summary)
	assert.Equal(t, "two", result.Records["agent-2"].Snapshot().Summary)
}

func TestRun_InlineSyncMakesHistoryShared(t *testing.T) {
	result := runScenario(t, `
name: add-wins
description: concurrent re-add survives a remove of shared history
agents: [agent-1, agent-2]
record: {id: mem-1, content: c}
steps:
  - {agent: agent-1, op: add_tag, value: deploy}
  - {op: sync, with: [agent-1, agent-2]}
  - {agent: agent-1, op: remove_tag, value: deploy}
  - {agent: agent-2, op: add_tag, value: deploy}
  - {op: sync, with: [agent-1, agent-2]}
assertions:
  - {type: converged}
  - {type: tags, values: [deploy]}
`)
	require.NoError(t, Verify(result))
}

func TestRun_AccessCountsAccrue(t *testing.T) {
	result := runScenario(t, `
name: accrue
description: counters sum contributions from every replica
agents: [agent-1, agent-2, agent-3]
record: {id: mem-1, content: c}
steps:
  - {agent: agent-1, op: touch, at: 1}
  - {agent: agent-1, op: touch, at: 2}
  - {agent: agent-2, op: touch, at: 3}
  - {agent: agent-2, op: touch, at: 4}
  - {agent: agent-3, op: touch, at: 5}
  - {agent: agent-3, op: touch, at: 6}
sync:
  - between: [agent-1, agent-2, agent-3]
assertions:
  - {type: converged}
  - {type: access_count, count: 6}
`)
	require.NoError(t, Verify(result))
}

func TestRun_GraphRepair(t *testing.T) {
	result := runScenario(t, `
name: repair
description: merge-introduced cycle loses its weaker edge on all replicas
kind: graph
agents: [agent-1, agent-2]
steps:
  - {agent: agent-1, op: add_edge, source: a, target: b, relation: causes, strength: 0.9}
  - {agent: agent-2, op: add_edge, source: b, target: a, relation: causes, strength: 0.3}
sync:
  - between: [agent-1, agent-2]
assertions:
  - {type: converged}
  - {type: acyclic}
  - {type: edge, source: a, target: b, relation: causes, bool: true, number: 0.9}
  - {type: edge, source: b, target: a, relation: causes, bool: false}
  - {type: edge_count, count: 1}
`)
	require.NoError(t, Verify(result))
	assert.NotEmpty(t, result.Removed, "repair must report the removed edge")
}

func TestRun_UnknownOpFails(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad
description: unknown op fails the run with a step error
agents: [agent-1]
record: {id: mem-1, content: c}
steps:
  - {agent: agent-1, op: frobnicate}
assertions:
  - {type: converged}
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Index)
}

func TestVerify_FailureNamesAssertion(t *testing.T) {
	result := runScenario(t, `
name: fail
description: a wrong expectation produces a typed assertion error
agents: [agent-1]
record: {id: mem-1, content: c, summary: actual}
steps:
  - {agent: agent-1, op: touch, at: 1}
assertions:
  - {type: summary, value: expected-but-wrong}
`)

	err := Verify(result)
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertSummary, ae.Type)
	assert.Equal(t, 0, ae.Index)
}

// ============================================================================
// Randomized Convergence
// ============================================================================

func TestRandomized_TwoAgentsConverge(t *testing.T) {
	replicas, err := RunRandomized(RandomConfig{Agents: 2, Ops: 200, Seed: 7, GossipEvery: 10})
	require.NoError(t, err)
	require.NoError(t, CheckConvergence(replicas))
}

func TestRandomized_FiveAgentsHeavyLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("heavy randomized run")
	}
	replicas, err := RunRandomized(RandomConfig{Agents: 5, Ops: 2000, Seed: 42, GossipEvery: 50})
	require.NoError(t, err)
	require.NoError(t, CheckConvergence(replicas))
}

func TestRandomized_SameSeedSameOutcome(t *testing.T) {
	cfg := RandomConfig{Agents: 3, Ops: 100, Seed: 13, GossipEvery: 25}

	first, err := RunRandomized(cfg)
	require.NoError(t, err)
	second, err := RunRandomized(cfg)
	require.NoError(t, err)

	for agent := range first {
		assert.True(t, first[agent].Equal(second[agent]),
			"agent %s: same seed must reproduce the same state", agent)
	}
}

func TestRandomized_DifferentSeedsStillConverge(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		replicas, err := RunRandomized(RandomConfig{Agents: 3, Ops: 150, Seed: seed, GossipEvery: 20})
		require.NoError(t, err)
		require.NoError(t, CheckConvergence(replicas), "seed %d", seed)
	}
}
