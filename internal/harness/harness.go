package harness

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cortexmem/cortex/internal/graph"
	"github.com/cortexmem/cortex/internal/record"
)

// scenarioBase is the fixed wall-clock epoch every scenario runs against.
// Step offsets are relative to it.
var scenarioBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Result holds the final replica state after a scenario run.
type Result struct {
	Scenario *Scenario

	// Records maps agent to its record replica. Populated for record
	// scenarios.
	Records map[string]*record.Replicated

	// Graphs maps agent to its graph replica. Populated for graph
	// scenarios.
	Graphs map[string]*graph.CausalGraph

	// Removed collects the edges cycle repair removed during sync
	// exchanges, in removal order.
	Removed []graph.Edge
}

// StepError reports a step that could not be applied.
type StepError struct {
	Index int
	Step  Step
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s by %s): %v", e.Index, e.Step.Op, e.Step.Agent, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run executes a scenario: seed, steps, sync exchanges. Assertions are
// not evaluated here; see Verify.
func Run(s *Scenario) (*Result, error) {
	result := &Result{Scenario: s}

	switch s.Kind {
	case KindGraph:
		result.Graphs = make(map[string]*graph.CausalGraph, len(s.Agents))
		for _, agent := range s.Agents {
			result.Graphs[agent] = graph.New(agent)
		}
	default:
		source := s.Record.Source
		if source == "" {
			source = s.Agents[0]
		}
		seed := record.Memory{
			ID:          s.Record.ID,
			Content:     s.Record.Content,
			Summary:     s.Record.Summary,
			Confidence:  0.5,
			Importance:  record.ImportanceMedium,
			CreatedAt:   scenarioBase,
			SourceAgent: source,
		}
		base := record.FromMemory(seed, source, scenarioBase)

		result.Records = make(map[string]*record.Replicated, len(s.Agents))
		for _, agent := range s.Agents {
			result.Records[agent] = base.Rebind(agent)
		}
	}

	for i, step := range s.Steps {
		slog.Debug("applying scenario step",
			"scenario", s.Name, "step", i, "agent", step.Agent, "op", step.Op)
		if step.Op == "sync" {
			exchange(result, step.With)
			continue
		}
		if err := applyStep(result, step); err != nil {
			return nil, &StepError{Index: i, Step: step, Err: err}
		}
	}

	for _, sync := range s.Sync {
		exchange(result, sync.Between)
	}
	return result, nil
}

// exchange merges every listed replica into every other, twice, so state
// introduced late in the first pass still reaches every replica.
func exchange(result *Result, agents []string) {
	for pass := 0; pass < 2; pass++ {
		for _, a := range agents {
			for _, b := range agents {
				if a == b {
					continue
				}
				if result.Records != nil {
					// Identity always matches here: every replica was
					// seeded from the same record.
					_ = result.Records[a].Merge(result.Records[b])
				}
				if result.Graphs != nil {
					removed := result.Graphs[a].Merge(result.Graphs[b])
					result.Removed = append(result.Removed, removed...)
				}
			}
		}
	}
}

func applyStep(result *Result, step Step) error {
	if result.Graphs != nil {
		return applyGraphStep(result.Graphs[step.Agent], step)
	}
	return applyRecordStep(result.Records[step.Agent], step)
}

func applyRecordStep(r *record.Replicated, step Step) error {
	at := scenarioBase.Add(time.Duration(step.At) * time.Second)

	switch step.Op {
	case "set_content":
		r.SetContent(step.Value, at)
	case "resolve_content":
		r.ResolveContent(step.Value)
	case "set_summary":
		r.SetSummary(step.Value, at)
	case "set_importance":
		r.SetImportance(record.Importance(step.Value), at)
	case "set_archived":
		archived, err := strconv.ParseBool(step.Value)
		if err != nil {
			return fmt.Errorf("set_archived wants a boolean value: %w", err)
		}
		r.SetArchived(archived, at)
	case "boost_confidence":
		r.BoostConfidence(step.Number)
	case "touch":
		r.Touch(at)
	case "add_tag":
		r.AddTag(step.Value)
	case "remove_tag":
		r.RemoveTag(step.Value)
	case "add_linked_context":
		r.AddLinkedContext(step.Value)
	case "remove_linked_context":
		r.RemoveLinkedContext(step.Value)
	case "add_linked_file":
		r.AddLinkedFile(step.Value)
	case "remove_linked_file":
		r.RemoveLinkedFile(step.Value)
	case "record_hop":
		r.RecordHop(step.Value, at)
	default:
		return fmt.Errorf("unknown record operation %q", step.Op)
	}
	return nil
}

func applyGraphStep(g *graph.CausalGraph, step Step) error {
	switch step.Op {
	case "add_edge":
		return g.AddEdge(step.Source, step.Target, step.Relation, step.Strength)
	case "remove_edge":
		g.RemoveEdge(step.Source, step.Target, step.Relation)
	case "update_strength":
		g.UpdateStrength(step.Source, step.Target, step.Relation, step.Strength)
	default:
		return fmt.Errorf("unknown graph operation %q", step.Op)
	}
	return nil
}
