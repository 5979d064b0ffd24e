// Package harness executes multi-agent convergence scenarios.
//
// A scenario is a YAML file describing a set of agents, a seed record or
// graph, a sequence of per-agent operations, and the synchronization
// exchanges between replicas. After the script runs, assertions check the
// merged outcome: converged state, resolved field values, edge presence,
// acyclicity.
//
// Scenarios are fully deterministic. Operations carry explicit time
// offsets from a fixed base instant, so the same file produces the same
// resolved state on every run, which is what the golden files under
// testdata/golden capture.
//
// The randomized runner in random.go complements the scripted scenarios:
// it drives seeded random operation and gossip schedules across replicas
// and checks that all of them converge to byte-identical canonical
// encodings.
package harness
