package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexmem/cortex/internal/codec"
	"github.com/cortexmem/cortex/internal/record"
)

// MergeResult summarizes a merge for JSON output.
type MergeResult struct {
	Inputs       int      `json:"inputs"`
	Output       string   `json:"output,omitempty"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "merge <file> <file>...",
		Short: "Merge replica files into one",
		Long: `Merge two or more replica files of the same record, or two or more
graph files, and write the merged canonical encoding.

Record inputs must all carry the same record id. Graph merges repair any
cycle the union introduces and report the removed edges.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(rootOpts, args, outputPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runMerge(opts *RootOptions, paths []string, outputPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	docs, err := LoadDocuments(paths)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Merging %d %s file(s)", len(docs), docs[0].Format)

	summary := MergeResult{Inputs: len(docs), Output: outputPath}

	var encoded []byte
	if docs[0].Graph != nil {
		merged := docs[0].Graph.Clone()
		for _, doc := range docs[1:] {
			for _, e := range merged.Merge(doc.Graph) {
				summary.RemovedEdges = append(summary.RemovedEdges, e.String())
			}
		}
		encoded, err = codec.EncodeGraph(merged)
	} else {
		merged := docs[0].Replica.Clone()
		for _, doc := range docs[1:] {
			if mergeErr := merged.Merge(doc.Replica); mergeErr != nil {
				var ie *record.IdentityError
				if errors.As(mergeErr, &ie) {
					return WrapExitError(ExitFailure,
						fmt.Sprintf("%s holds a different record", doc.Path), mergeErr)
				}
				return WrapExitError(ExitFailure, "merge failed", mergeErr)
			}
		}
		encoded, err = codec.EncodeReplica(merged)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "encoding merged state", err)
	}

	if err := writeOutput(formatter, outputPath, encoded); err != nil {
		return err
	}
	if outputPath != "" && opts.Format == "json" {
		return formatter.Success(summary)
	}
	for _, removed := range summary.RemovedEdges {
		formatter.VerboseLog("cycle repair removed %s", removed)
	}
	return nil
}
