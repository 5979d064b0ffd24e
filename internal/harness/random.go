package harness

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/cortexmem/cortex/internal/codec"
	"github.com/cortexmem/cortex/internal/record"
	"github.com/cortexmem/cortex/internal/testutil"
)

// RandomConfig drives a seeded randomized convergence run.
type RandomConfig struct {
	// Agents is the number of replicas.
	Agents int

	// Ops is the number of random operations each replica performs.
	Ops int

	// Seed makes the whole run reproducible.
	Seed int64

	// GossipEvery inserts a random pairwise exchange after this many
	// operations per agent. Zero disables mid-run gossip.
	GossipEvery int
}

// RunRandomized seeds one record, fans it out to cfg.Agents replicas,
// applies cfg.Ops random operations per replica with optional interleaved
// gossip, and finishes with a full exchange so every replica has seen
// every update. Returns the replicas keyed by agent.
func RunRandomized(cfg RandomConfig) (map[string]*record.Replicated, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	agents := make([]string, cfg.Agents)
	for i := range agents {
		agents[i] = fmt.Sprintf("agent-%d", i+1)
	}

	seed := record.Memory{
		ID:          testutil.NewIDGenerator("mem").Next(),
		Content:     "seed content",
		Summary:     "seed summary",
		Confidence:  0.5,
		Importance:  record.ImportanceMedium,
		CreatedAt:   scenarioBase,
		SourceAgent: agents[0],
	}
	base := record.FromMemory(seed, agents[0], scenarioBase)

	replicas := make(map[string]*record.Replicated, cfg.Agents)
	for _, agent := range agents {
		replicas[agent] = base.Rebind(agent)
	}

	for op := 0; op < cfg.Ops; op++ {
		for _, agent := range agents {
			randomOp(replicas[agent], rng)
		}
		if cfg.GossipEvery > 0 && (op+1)%cfg.GossipEvery == 0 {
			a := agents[rng.Intn(len(agents))]
			b := agents[rng.Intn(len(agents))]
			if a != b {
				if err := replicas[a].Merge(replicas[b]); err != nil {
					return nil, err
				}
			}
		}
	}

	// Full exchange, twice, so updates received late in the first pass
	// still reach every replica.
	for pass := 0; pass < 2; pass++ {
		for _, a := range agents {
			for _, b := range agents {
				if a == b {
					continue
				}
				if err := replicas[a].Merge(replicas[b]); err != nil {
					return nil, err
				}
			}
		}
	}
	return replicas, nil
}

// CheckConvergence verifies all replicas encode to identical canonical
// bytes under a neutral observer identity.
func CheckConvergence(replicas map[string]*record.Replicated) error {
	var reference []byte
	var refAgent string

	for agent, r := range replicas {
		encoded, err := codec.EncodeReplica(r.Rebind("observer"))
		if err != nil {
			return fmt.Errorf("encoding %s: %w", agent, err)
		}
		if reference == nil {
			reference, refAgent = encoded, agent
			continue
		}
		if !bytes.Equal(reference, encoded) {
			return fmt.Errorf("replicas %s and %s diverged", refAgent, agent)
		}
	}
	return nil
}

func randomOp(r *record.Replicated, rng *rand.Rand) {
	at := scenarioBase.Add(time.Duration(rng.Intn(100000)) * time.Millisecond)
	labels := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	label := labels[rng.Intn(len(labels))]

	switch rng.Intn(10) {
	case 0:
		r.SetContent(fmt.Sprintf("content %d", rng.Intn(1000)), at)
	case 1:
		r.SetSummary(fmt.Sprintf("summary %d", rng.Intn(1000)), at)
	case 2:
		levels := []record.Importance{
			record.ImportanceLow, record.ImportanceMedium,
			record.ImportanceHigh, record.ImportanceCritical,
		}
		r.SetImportance(levels[rng.Intn(len(levels))], at)
	case 3:
		r.SetArchived(rng.Intn(2) == 0, at)
	case 4:
		r.BoostConfidence(rng.Float64())
	case 5:
		r.Touch(at)
	case 6:
		r.AddTag(label)
	case 7:
		r.RemoveTag(label)
	case 8:
		r.AddLinkedContext("ctx-" + label)
	case 9:
		r.AddLinkedFile("file-" + label)
	}
}
