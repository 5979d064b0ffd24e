package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/cortexmem/cortex/internal/clock"
	"github.com/cortexmem/cortex/internal/crdt"
	"github.com/cortexmem/cortex/internal/graph"
	"github.com/cortexmem/cortex/internal/record"
)

// Wire format identifiers. Every document carries one in its "format"
// field; decoding rejects anything it does not recognize.
const (
	FormatReplica = "cortex.replica.v1"
	FormatGraph   = "cortex.graph.v1"
)

// DecodeError signals a document that could not be decoded.
type DecodeError struct {
	// Format is the expected wire format.
	Format string

	// Message describes what was wrong with the document.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Format, e.Message, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Format, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is a DecodeError. Uses errors.As to
// handle wrapped errors.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// ----------------------------------------------------------------------------
// Wire shapes
// ----------------------------------------------------------------------------

type tagDoc struct {
	Agent string `json:"agent"`
	Seq   uint64 `json:"seq"`
}

type lwwDoc[T any] struct {
	Value T      `json:"value"`
	Stamp int64  `json:"stamp"`
	Agent string `json:"agent"`
}

type tripleDoc struct {
	Value string `json:"value"`
	Stamp int64  `json:"stamp"`
	Agent string `json:"agent"`
}

type setEntryDoc struct {
	Elem string   `json:"elem"`
	Tags []tagDoc `json:"tags"`
}

type setDoc struct {
	Adds       []setEntryDoc `json:"adds"`
	Tombstones []tagDoc      `json:"tombstones"`
}

type hopDoc struct {
	Agent  string `json:"agent"`
	Action string `json:"action"`
	At     int64  `json:"at"`
}

type replicaDoc struct {
	Format      string `json:"format"`
	ID          string `json:"id"`
	CreatedAt   int64  `json:"created_at"`
	SourceAgent string `json:"source_agent"`
	LocalAgent  string `json:"local_agent"`

	Content      []tripleDoc    `json:"content"`
	Summary      lwwDoc[string] `json:"summary"`
	ValidFrom    lwwDoc[int64]  `json:"valid_from"`
	ValidUntil   lwwDoc[int64]  `json:"valid_until"`
	Importance   lwwDoc[string] `json:"importance"`
	Archived     lwwDoc[bool]   `json:"archived"`
	SupersededBy lwwDoc[string] `json:"superseded_by"`

	Confidence   float64          `json:"confidence"`
	LastAccessed int64            `json:"last_accessed"`
	AccessCount  map[string]int64 `json:"access_count"`

	Tags           setDoc `json:"tags"`
	LinkedContexts setDoc `json:"linked_contexts"`
	LinkedFiles    setDoc `json:"linked_files"`
	Supersedes     setDoc `json:"supersedes"`

	Provenance []hopDoc          `json:"provenance"`
	Clock      map[string]uint64 `json:"clock"`
	Seqs       map[string]uint64 `json:"seqs"`
}

type edgeDoc struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

type edgeEntryDoc struct {
	Edge edgeDoc  `json:"edge"`
	Tags []tagDoc `json:"tags"`
}

type strengthDoc struct {
	Edge     edgeDoc `json:"edge"`
	Strength float64 `json:"strength"`
}

type graphDoc struct {
	Format     string `json:"format"`
	LocalAgent string `json:"local_agent"`

	Edges      []edgeEntryDoc    `json:"edges"`
	Tombstones []tagDoc          `json:"tombstones"`
	Strengths  []strengthDoc     `json:"strengths"`
	Seqs       map[string]uint64 `json:"seqs"`
}

// ----------------------------------------------------------------------------
// Record replicas
// ----------------------------------------------------------------------------

// EncodeReplica serializes a record replica to canonical JSON. For equal
// replica state the output is byte-identical, including across agents
// once LocalAgent matches.
func EncodeReplica(r *record.Replicated) ([]byte, error) {
	doc := replicaDoc{
		Format:      FormatReplica,
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		SourceAgent: r.SourceAgent,
		LocalAgent:  r.LocalAgent,

		Content:      encodeTriples(r.Content.Triples()),
		Summary:      lwwDoc[string]{Value: r.Summary.Value, Stamp: r.Summary.Stamp, Agent: r.Summary.Agent},
		ValidFrom:    lwwDoc[int64]{Value: r.ValidFrom.Value, Stamp: r.ValidFrom.Stamp, Agent: r.ValidFrom.Agent},
		ValidUntil:   lwwDoc[int64]{Value: r.ValidUntil.Value, Stamp: r.ValidUntil.Stamp, Agent: r.ValidUntil.Agent},
		Importance:   lwwDoc[string]{Value: r.Importance.Value, Stamp: r.Importance.Stamp, Agent: r.Importance.Agent},
		Archived:     lwwDoc[bool]{Value: r.Archived.Value, Stamp: r.Archived.Stamp, Agent: r.Archived.Agent},
		SupersededBy: lwwDoc[string]{Value: r.SupersededBy.Value, Stamp: r.SupersededBy.Stamp, Agent: r.SupersededBy.Agent},

		Confidence:   r.Confidence.Get(),
		LastAccessed: r.LastAccessed.Get(),
		AccessCount:  r.AccessCount.Slots(),

		Tags:           encodeSet(r.Tags),
		LinkedContexts: encodeSet(r.LinkedContexts),
		LinkedFiles:    encodeSet(r.LinkedFiles),
		Supersedes:     encodeSet(r.Supersedes),

		Provenance: encodeHops(r.Provenance),
		Clock:      r.Clock.Counts(),
		Seqs:       map[string]uint64(r.Seqs),
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return Canonicalize(raw)
}

// DecodeReplica reconstructs a record replica from its encoding. The
// result carries the full internal state and merges exactly like the
// replica that was encoded.
func DecodeReplica(data []byte) (*record.Replicated, error) {
	var doc replicaDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Format: FormatReplica, Message: "invalid JSON", Err: err}
	}
	if doc.Format != FormatReplica {
		return nil, &DecodeError{Format: FormatReplica, Message: fmt.Sprintf("unexpected format %q", doc.Format)}
	}
	if doc.ID == "" {
		return nil, &DecodeError{Format: FormatReplica, Message: "missing record id"}
	}

	counter, err := crdt.GCounterFromSlots(doc.AccessCount)
	if err != nil {
		return nil, &DecodeError{Format: FormatReplica, Message: "invalid access count", Err: err}
	}

	r := &record.Replicated{
		ID:          doc.ID,
		CreatedAt:   doc.CreatedAt,
		SourceAgent: doc.SourceAgent,
		LocalAgent:  doc.LocalAgent,

		Content:      crdt.MVRegisterFromTriples(decodeTriples(doc.Content)),
		Summary:      crdt.NewLWWRegister(doc.Summary.Value, doc.Summary.Stamp, doc.Summary.Agent),
		ValidFrom:    crdt.NewLWWRegister(doc.ValidFrom.Value, doc.ValidFrom.Stamp, doc.ValidFrom.Agent),
		ValidUntil:   crdt.NewLWWRegister(doc.ValidUntil.Value, doc.ValidUntil.Stamp, doc.ValidUntil.Agent),
		Importance:   crdt.NewLWWRegister(doc.Importance.Value, doc.Importance.Stamp, doc.Importance.Agent),
		Archived:     crdt.NewLWWRegister(doc.Archived.Value, doc.Archived.Stamp, doc.Archived.Agent),
		SupersededBy: crdt.NewLWWRegister(doc.SupersededBy.Value, doc.SupersededBy.Stamp, doc.SupersededBy.Agent),

		Confidence:   crdt.NewMaxRegister(clamp01(doc.Confidence)),
		LastAccessed: crdt.NewMaxRegister(doc.LastAccessed),
		AccessCount:  counter,

		Tags:           decodeSet(doc.Tags),
		LinkedContexts: decodeSet(doc.LinkedContexts),
		LinkedFiles:    decodeSet(doc.LinkedFiles),
		Supersedes:     decodeSet(doc.Supersedes),

		Provenance: decodeHops(doc.Provenance),
		Clock:      clock.FromMap(doc.Clock),
		Seqs:       decodeSeqs(doc.Seqs),
	}
	return r, nil
}

// ----------------------------------------------------------------------------
// Causal graphs
// ----------------------------------------------------------------------------

// EncodeGraph serializes a graph replica to canonical JSON.
func EncodeGraph(g *graph.CausalGraph) ([]byte, error) {
	doc := graphDoc{
		Format:     FormatGraph,
		LocalAgent: g.LocalAgent,
		Seqs:       map[string]uint64(g.Seqs),
	}

	entries := g.Edges.Entries()
	edges := make([]graph.Edge, 0, len(entries))
	for e := range entries {
		edges = append(edges, e)
	}
	slices.SortFunc(edges, graph.Edge.Compare)
	// Empty slices must stay non-nil: a nil slice marshals as null, which
	// canonical JSON rejects.
	doc.Edges = make([]edgeEntryDoc, 0, len(edges))
	for _, e := range edges {
		doc.Edges = append(doc.Edges, edgeEntryDoc{
			Edge: edgeDoc{Source: e.Source, Target: e.Target, Relation: e.Relation},
			Tags: encodeTags(entries[e]),
		})
	}
	doc.Tombstones = encodeTags(g.Edges.Tombstones())

	strengthEdges := make([]graph.Edge, 0, len(g.Strengths))
	for e := range g.Strengths {
		strengthEdges = append(strengthEdges, e)
	}
	slices.SortFunc(strengthEdges, graph.Edge.Compare)
	doc.Strengths = make([]strengthDoc, 0, len(strengthEdges))
	for _, e := range strengthEdges {
		reg := g.Strengths[e]
		doc.Strengths = append(doc.Strengths, strengthDoc{
			Edge:     edgeDoc{Source: e.Source, Target: e.Target, Relation: e.Relation},
			Strength: reg.Get(),
		})
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return Canonicalize(raw)
}

// DecodeGraph reconstructs a graph replica from its encoding.
func DecodeGraph(data []byte) (*graph.CausalGraph, error) {
	var doc graphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Format: FormatGraph, Message: "invalid JSON", Err: err}
	}
	if doc.Format != FormatGraph {
		return nil, &DecodeError{Format: FormatGraph, Message: fmt.Sprintf("unexpected format %q", doc.Format)}
	}

	adds := make(map[graph.Edge][]crdt.Tag, len(doc.Edges))
	for _, entry := range doc.Edges {
		e := graph.Edge{Source: entry.Edge.Source, Target: entry.Edge.Target, Relation: entry.Edge.Relation}
		adds[e] = decodeTags(entry.Tags)
	}

	g := graph.New(doc.LocalAgent)
	g.Edges = crdt.ORSetFromState(adds, decodeTags(doc.Tombstones))
	for _, s := range doc.Strengths {
		e := graph.Edge{Source: s.Edge.Source, Target: s.Edge.Target, Relation: s.Edge.Relation}
		g.Strengths[e] = crdt.NewMaxRegister(clamp01(s.Strength))
	}
	g.Seqs = decodeSeqs(doc.Seqs)
	return g, nil
}

// ----------------------------------------------------------------------------
// Shared pieces
// ----------------------------------------------------------------------------

// clamp01 clamps v to [0, 1]. Bounded fields are clamped on decode, not
// trusted from the wire: an out-of-range value would otherwise win every
// max-wins merge from then on.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func encodeTags(tags []crdt.Tag) []tagDoc {
	out := make([]tagDoc, len(tags))
	for i, t := range tags {
		out[i] = tagDoc{Agent: t.Agent, Seq: t.Seq}
	}
	return out
}

func decodeTags(docs []tagDoc) []crdt.Tag {
	out := make([]crdt.Tag, len(docs))
	for i, d := range docs {
		out[i] = crdt.Tag{Agent: d.Agent, Seq: d.Seq}
	}
	return out
}

func encodeTriples(triples []crdt.Triple[string]) []tripleDoc {
	out := make([]tripleDoc, len(triples))
	for i, t := range triples {
		out[i] = tripleDoc{Value: t.Value, Stamp: t.Stamp, Agent: t.Agent}
	}
	return out
}

func decodeTriples(docs []tripleDoc) []crdt.Triple[string] {
	out := make([]crdt.Triple[string], len(docs))
	for i, d := range docs {
		out[i] = crdt.Triple[string]{Value: d.Value, Stamp: d.Stamp, Agent: d.Agent}
	}
	return out
}

func encodeSet(s *crdt.ORSet[string]) setDoc {
	entries := s.Entries()
	elems := make([]string, 0, len(entries))
	for elem := range entries {
		elems = append(elems, elem)
	}
	// Deterministic output needs a fixed entry order; the tag lists from
	// Entries are already sorted.
	slices.Sort(elems)

	doc := setDoc{
		Adds:       make([]setEntryDoc, 0, len(elems)),
		Tombstones: encodeTags(s.Tombstones()),
	}
	for _, elem := range elems {
		doc.Adds = append(doc.Adds, setEntryDoc{Elem: elem, Tags: encodeTags(entries[elem])})
	}
	return doc
}

func decodeSet(doc setDoc) *crdt.ORSet[string] {
	adds := make(map[string][]crdt.Tag, len(doc.Adds))
	for _, entry := range doc.Adds {
		adds[entry.Elem] = decodeTags(entry.Tags)
	}
	return crdt.ORSetFromState(adds, decodeTags(doc.Tombstones))
}

func encodeHops(hops []record.Hop) []hopDoc {
	out := make([]hopDoc, len(hops))
	for i, h := range hops {
		out[i] = hopDoc{Agent: h.Agent, Action: h.Action, At: h.At}
	}
	return out
}

func decodeHops(docs []hopDoc) []record.Hop {
	out := make([]record.Hop, len(docs))
	for i, d := range docs {
		out[i] = record.Hop{Agent: d.Agent, Action: d.Action, At: d.At}
	}
	return out
}

func decodeSeqs(m map[string]uint64) crdt.TagSequence {
	seqs := crdt.NewTagSequence()
	for agent, seq := range m {
		seqs.Observe(crdt.Tag{Agent: agent, Seq: seq})
	}
	return seqs
}
