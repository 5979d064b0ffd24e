package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
			assert.NotEmpty(t, s.Agents)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: a field typo must fail loudly
agents: [agent-1]
record: {id: mem-1, content: x}
steps:
  - {agent: agent-1, op: touch}
assertion:
  - type: converged
`))
	require.Error(t, err, "misspelled 'assertions' must be rejected")
}

func TestParseScenario_RequiredFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", `
description: d
agents: [a]
record: {id: m, content: c}
steps: [{agent: a, op: touch}]
assertions: [{type: converged}]
`},
		{"missing description", `
name: n
agents: [a]
record: {id: m, content: c}
steps: [{agent: a, op: touch}]
assertions: [{type: converged}]
`},
		{"missing agents", `
name: n
description: d
record: {id: m, content: c}
steps: [{agent: a, op: touch}]
assertions: [{type: converged}]
`},
		{"missing record for record kind", `
name: n
description: d
agents: [a]
steps: [{agent: a, op: touch}]
assertions: [{type: converged}]
`},
		{"missing record id", `
name: n
description: d
agents: [a]
record: {content: c}
steps: [{agent: a, op: touch}]
assertions: [{type: converged}]
`},
		{"empty steps", `
name: n
description: d
agents: [a]
record: {id: m, content: c}
assertions: [{type: converged}]
`},
		{"empty assertions", `
name: n
description: d
agents: [a]
record: {id: m, content: c}
steps: [{agent: a, op: touch}]
`},
		{"unknown kind", `
name: n
description: d
kind: queue
agents: [a]
steps: [{agent: a, op: touch}]
assertions: [{type: converged}]
`},
		{"unknown step agent", `
name: n
description: d
agents: [a]
record: {id: m, content: c}
steps: [{agent: b, op: touch}]
assertions: [{type: converged}]
`},
		{"sync step with one agent", `
name: n
description: d
agents: [a]
record: {id: m, content: c}
steps: [{op: sync, with: [a]}]
assertions: [{type: converged}]
`},
		{"unknown assertion type", `
name: n
description: d
agents: [a]
record: {id: m, content: c}
steps: [{agent: a, op: touch}]
assertions: [{type: eventually}]
`},
		{"edge assertion missing relation", `
name: n
description: d
kind: graph
agents: [a]
steps: [{agent: a, op: add_edge, source: x, target: y, relation: causes}]
assertions: [{type: edge, source: x, target: y}]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestParseScenario_DefaultsKindToRecord(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: n
description: d
agents: [a]
record: {id: m, content: c}
steps: [{agent: a, op: touch}]
assertions: [{type: converged}]
`))
	require.NoError(t, err)
	assert.Equal(t, KindRecord, s.Kind)
}
