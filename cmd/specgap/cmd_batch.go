package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/pipeline"
)

var batchFlags struct {
	analysisFlags
	workers int
}

var batchCmd = &cobra.Command{
	Use:   "batch <document>...",
	Short: "Analyse many documents concurrently",
	Long: `Run the full analysis on every document with a bounded worker pool.
A failing document does not stop the others; the report lists it with
its error and the command exits non-zero.`,
	Args: argsValidator(cobra.MinimumNArgs(1)),
	RunE: runBatch,
}

func init() {
	batchFlags.register(batchCmd, pipeline.StagePlan)
	batchCmd.Flags().IntVarP(&batchFlags.workers, "workers", "w", 4, "Documents analysed in parallel")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if batchFlags.workers < 1 {
		return model.InvalidInput("--workers must be at least 1")
	}
	opts, err := batchFlags.options(ctx, pipeline.StagePlan)
	if err != nil {
		return err
	}

	jobs := make([]pipeline.Job, 0, len(args))
	for _, path := range args {
		if path == "-" {
			return model.InvalidInput("batch reads files only; standard input is not supported")
		}
		doc, err := readDocument(cmd, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, pipeline.Job{Name: path, Document: doc})
	}

	analyzer, err := newAnalyzer()
	if err != nil {
		return err
	}
	b, err := analyzer.RunBatch(ctx, jobs, opts, batchFlags.workers)
	if err != nil {
		return fmt.Errorf("batch %s interrupted: %w", b.RunID, err)
	}
	if err := batchFlags.emit(cmd, b); err != nil {
		return err
	}
	if b.Failed == 0 {
		return nil
	}
	for _, jr := range b.Results {
		if jr.Err != nil {
			return fmt.Errorf("%d of %d documents failed, first %s: %w", b.Failed, len(b.Results), jr.Name, jr.Err)
		}
	}
	return nil
}
