package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario kinds.
const (
	KindRecord = "record"
	KindGraph  = "graph"
)

// Scenario defines a scripted convergence test: a set of agents, a seed,
// per-agent operations, synchronization exchanges, and assertions on the
// outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Kind selects what is being replicated: "record" or "graph".
	// Defaults to "record".
	Kind string `yaml:"kind,omitempty"`

	// Agents lists the replica identities. Every replica starts from the
	// same seed state.
	Agents []string `yaml:"agents"`

	// Record seeds the replicated record. Required for record scenarios.
	Record *RecordSeed `yaml:"record,omitempty"`

	// Steps are the per-agent operations, applied in order.
	Steps []Step `yaml:"steps"`

	// Sync lists synchronization exchanges, applied after the steps in
	// order. Each exchange merges every listed replica into every other.
	Sync []SyncStep `yaml:"sync,omitempty"`

	// Assertions validate the final replica state.
	Assertions []Assertion `yaml:"assertions"`
}

// RecordSeed is the initial record shared by all replicas.
type RecordSeed struct {
	ID      string `yaml:"id"`
	Content string `yaml:"content"`
	Summary string `yaml:"summary,omitempty"`

	// Source is the agent the record is attributed to. Defaults to the
	// first agent.
	Source string `yaml:"source,omitempty"`
}

// Step is a single operation performed by one agent on its replica.
type Step struct {
	// Agent names the replica the operation runs on.
	Agent string `yaml:"agent"`

	// Op is the operation name. Record operations: set_content,
	// resolve_content, set_summary, set_importance, set_archived,
	// boost_confidence, touch, add_tag, remove_tag, add_linked_context,
	// remove_linked_context, add_linked_file, remove_linked_file.
	// Graph operations: add_edge, remove_edge, update_strength.
	//
	// The special op "sync" exchanges state between the replicas in With,
	// mid-script, so later steps run concurrently against shared history.
	Op string `yaml:"op"`

	// With lists the replicas a "sync" step exchanges between.
	With []string `yaml:"with,omitempty"`

	// Value is the string argument for record operations that take one.
	Value string `yaml:"value,omitempty"`

	// Number is the numeric argument (boost_confidence).
	Number float64 `yaml:"number,omitempty"`

	// At is the operation's wall-clock offset from the scenario base
	// instant, in seconds. Operations that carry a write stamp use it;
	// two concurrent writes at the same offset tie on timestamp.
	At int64 `yaml:"at,omitempty"`

	// Edge arguments for graph operations.
	Source   string  `yaml:"source,omitempty"`
	Target   string  `yaml:"target,omitempty"`
	Relation string  `yaml:"relation,omitempty"`
	Strength float64 `yaml:"strength,omitempty"`
}

// SyncStep is one synchronization exchange. Every listed replica merges
// the state of every other, in two passes so that late arrivals propagate
// back.
type SyncStep struct {
	Between []string `yaml:"between"`
}

// Assertion validates one aspect of the final state.
type Assertion struct {
	// Type selects the check:
	//   converged      - all replicas hold byte-identical canonical state
	//   summary        - resolved summary equals Value
	//   content        - resolved content values equal Values
	//   conflicted     - record conflict flag equals Bool
	//   importance     - resolved importance equals Value
	//   archived       - archived flag equals Bool
	//   confidence     - confidence equals Number
	//   access_count   - total access count equals Count
	//   tags           - present tags equal Values
	//   linked_contexts, linked_files - same, for those sets
	//   edge           - edge (Source, Target, Relation) presence equals
	//                    Bool; if Number is set, strength must equal it
	//   edge_count     - number of present edges equals Count
	//   acyclic        - the merged graph contains no cycle
	Type string `yaml:"type"`

	// Agent scopes the check to one replica. Empty means the first agent,
	// which is enough once convergence has been asserted.
	Agent string `yaml:"agent,omitempty"`

	Value  string   `yaml:"value,omitempty"`
	Values []string `yaml:"values,omitempty"`
	Bool   bool     `yaml:"bool,omitempty"`
	Number float64  `yaml:"number,omitempty"`
	Count  int64    `yaml:"count,omitempty"`

	Source   string `yaml:"source,omitempty"`
	Target   string `yaml:"target,omitempty"`
	Relation string `yaml:"relation,omitempty"`
}

// Assertion type constants.
const (
	AssertConverged      = "converged"
	AssertSummary        = "summary"
	AssertContent        = "content"
	AssertConflicted     = "conflicted"
	AssertImportance     = "importance"
	AssertArchived       = "archived"
	AssertConfidence     = "confidence"
	AssertAccessCount    = "access_count"
	AssertTags           = "tags"
	AssertLinkedContexts = "linked_contexts"
	AssertLinkedFiles    = "linked_files"
	AssertEdge           = "edge"
	AssertEdgeCount      = "edge_count"
	AssertAcyclic        = "acyclic"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so that typos fail loudly instead of silently skipping checks.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Kind == "" {
		scenario.Kind = KindRecord
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Kind != KindRecord && s.Kind != KindGraph {
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if len(s.Agents) == 0 {
		return fmt.Errorf("agents list is required and must be non-empty")
	}
	if s.Kind == KindRecord {
		if s.Record == nil {
			return fmt.Errorf("record seed is required for record scenarios")
		}
		if s.Record.ID == "" {
			return fmt.Errorf("record.id is required")
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	agents := make(map[string]bool, len(s.Agents))
	for _, a := range s.Agents {
		if a == "" {
			return fmt.Errorf("agents must be non-empty strings")
		}
		agents[a] = true
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if step.Op == "sync" {
			if len(step.With) < 2 {
				return fmt.Errorf("steps[%d]: sync needs at least two agents in with", i)
			}
			for _, a := range step.With {
				if !agents[a] {
					return fmt.Errorf("steps[%d]: unknown agent %q", i, a)
				}
			}
			continue
		}
		if step.Agent == "" {
			return fmt.Errorf("steps[%d]: agent is required", i)
		}
		if !agents[step.Agent] {
			return fmt.Errorf("steps[%d]: unknown agent %q", i, step.Agent)
		}
	}

	for i, sync := range s.Sync {
		if len(sync.Between) < 2 {
			return fmt.Errorf("sync[%d]: between needs at least two agents", i)
		}
		for _, a := range sync.Between {
			if !agents[a] {
				return fmt.Errorf("sync[%d]: unknown agent %q", i, a)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, agents); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion, agents map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Agent != "" && !agents[a.Agent] {
		return fmt.Errorf("assertions[%d]: unknown agent %q", index, a.Agent)
	}

	switch a.Type {
	case AssertConverged, AssertConflicted, AssertArchived, AssertAcyclic:
	case AssertSummary, AssertImportance:
	case AssertContent, AssertTags, AssertLinkedContexts, AssertLinkedFiles:
	case AssertConfidence:
	case AssertAccessCount, AssertEdgeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertEdge:
		if a.Source == "" || a.Target == "" || a.Relation == "" {
			return fmt.Errorf("assertions[%d]: edge assertions need source, target and relation", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
