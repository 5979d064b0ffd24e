package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cortexmem/cortex/internal/codec"
)

// RepairResult summarizes a cycle repair pass. The output graph is always
// acyclic; AlreadyAcyclic reports whether the input needed no repair.
type RepairResult struct {
	AlreadyAcyclic bool     `json:"already_acyclic"`
	RemovedEdges   []string `json:"removed_edges,omitempty"`
	Output         string   `json:"output,omitempty"`
}

// NewRepairCommand creates the repair command.
func NewRepairCommand(rootOpts *RootOptions) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "repair <graph-file>",
		Short: "Remove cycles from a causal graph replica",
		Long: `Run deterministic cycle repair on a graph replica: every cycle loses
its weakest edge, ties broken by the smallest (source, target, relation).

The repaired encoding is written to --output, or stdout. A graph that is
already acyclic passes through unchanged.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(rootOpts, args[0], outputPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runRepair(opts *RootOptions, path, outputPath string, cmd *cobra.Command) error {
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
	if doc.Graph == nil {
		return NewExitError(ExitCommandError, "repair works on graph replicas only")
	}

	result := RepairResult{Output: outputPath}
	for _, e := range doc.Graph.ResolveCycles() {
		result.RemovedEdges = append(result.RemovedEdges, e.String())
	}
	result.AlreadyAcyclic = len(result.RemovedEdges) == 0
	formatter.VerboseLog("removed %d edge(s)", len(result.RemovedEdges))

	encoded, err := codec.EncodeGraph(doc.Graph)
	if err != nil {
		return WrapExitError(ExitFailure, "encoding repaired graph", err)
	}
	if err := writeOutput(formatter, outputPath, encoded); err != nil {
		return err
	}

	if outputPath == "" {
		return nil
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if len(result.RemovedEdges) == 0 {
		return formatter.Success("graph is acyclic, nothing removed")
	}
	return formatter.Success(fmt.Sprintf("removed %d edge(s): %s",
		len(result.RemovedEdges), strings.Join(result.RemovedEdges, ", ")))
}
