package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexmem/cortex/internal/record"
)

// RecordInspection is the resolved view of a record replica.
type RecordInspection struct {
	ID          string   `json:"id"`
	SourceAgent string   `json:"source_agent"`
	LocalAgent  string   `json:"local_agent"`
	CreatedAt   string   `json:"created_at"`
	Content     string   `json:"content"`
	Conflicted  bool     `json:"conflicted"`
	ContentAll  []string `json:"content_all,omitempty"`
	Summary     string   `json:"summary"`
	Importance  string   `json:"importance"`
	Archived    bool     `json:"archived"`
	Confidence  float64  `json:"confidence"`
	AccessCount int64    `json:"access_count"`
	Tags        []string `json:"tags,omitempty"`
	Linked      []string `json:"linked_contexts,omitempty"`
	Clock       string   `json:"clock"`
}

// GraphInspection is the resolved view of a graph replica.
type GraphInspection struct {
	LocalAgent string          `json:"local_agent"`
	Nodes      []string        `json:"nodes"`
	Edges      []InspectedEdge `json:"edges"`
}

// InspectedEdge is one present edge with its strength.
type InspectedEdge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation"`
	Strength float64 `json:"strength"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the resolved state of a replica file",
		Long: `Decode a replica file and print its resolved state.

Record replicas show the projected field values plus any unresolved
content conflict; graph replicas show the present edges and strengths.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	doc, err := LoadDocument(path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Loaded %s (%s)", path, doc.Format)

	if doc.Graph != nil {
		return inspectGraph(formatter, doc)
	}
	return inspectRecord(formatter, doc.Replica)
}

func inspectRecord(f *OutputFormatter, r *record.Replicated) error {
	snap := r.Snapshot()
	view := RecordInspection{
		ID:          snap.ID,
		SourceAgent: snap.SourceAgent,
		LocalAgent:  r.LocalAgent,
		CreatedAt:   time.UnixMicro(r.CreatedAt).UTC().Format(time.RFC3339),
		Content:     snap.Content,
		Conflicted:  snap.Conflicted,
		Summary:     snap.Summary,
		Importance:  string(snap.Importance),
		Archived:    snap.Archived,
		Confidence:  snap.Confidence,
		AccessCount: snap.AccessCount,
		Tags:        snap.Tags,
		Linked:      snap.LinkedContexts,
		Clock:       r.Clock.String(),
	}
	if snap.Conflicted {
		view.ContentAll = r.Content.Values()
	}

	if f.Format == "json" {
		return f.Success(view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Record %s (source %s, created %s)\n", view.ID, view.SourceAgent, view.CreatedAt)
	fmt.Fprintf(&b, "  content:     %s\n", view.Content)
	if view.Conflicted {
		fmt.Fprintf(&b, "  conflicted:  yes, %d concurrent values\n", len(view.ContentAll))
	}
	fmt.Fprintf(&b, "  summary:     %s\n", view.Summary)
	fmt.Fprintf(&b, "  importance:  %s\n", view.Importance)
	fmt.Fprintf(&b, "  confidence:  %.2f\n", view.Confidence)
	fmt.Fprintf(&b, "  accesses:    %d\n", view.AccessCount)
	if len(view.Tags) > 0 {
		fmt.Fprintf(&b, "  tags:        %s\n", strings.Join(view.Tags, ", "))
	}
	if view.Archived {
		fmt.Fprintf(&b, "  archived:    true\n")
	}
	fmt.Fprintf(&b, "  clock:       %s", view.Clock)
	return f.Success(b.String())
}

func inspectGraph(f *OutputFormatter, doc *Document) error {
	g := doc.Graph
	view := GraphInspection{
		LocalAgent: g.LocalAgent,
		Nodes:      g.Nodes(),
		Edges:      make([]InspectedEdge, 0, g.EdgeCount()),
	}
	for _, e := range g.EdgeList() {
		strength, _ := g.Strength(e.Source, e.Target, e.Relation)
		view.Edges = append(view.Edges, InspectedEdge{
			Source: e.Source, Target: e.Target, Relation: e.Relation, Strength: strength,
		})
	}

	if f.Format == "json" {
		return f.Success(view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Graph (%d nodes, %d edges)\n", len(view.Nodes), len(view.Edges))
	for _, e := range view.Edges {
		fmt.Fprintf(&b, "  %s -[%s %.2f]-> %s\n", e.Source, e.Relation, e.Strength, e.Target)
	}
	return f.Success(strings.TrimRight(b.String(), "\n"))
}
