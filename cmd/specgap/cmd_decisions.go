package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/pipeline"
	"github.com/HendryAvila/specgap/internal/report"
)

var decisionsFlags struct {
	analysisFlags
	element  string
	document string
}

var decisionsCmd = &cobra.Command{
	Use:   "decisions [history|latest|report]",
	Short: "Show recorded decisions",
	Long: `Show the decision log.

  history  every record, oldest first (--element filters one element)
  latest   the authoritative decision of --element
  report   the latest decision per element grouped by kind (default);
           with --document, deferrals of high or critical risks are flagged`,
	Args:      argsValidator(cobra.MaximumNArgs(1)),
	ValidArgs: []string{"history", "latest", "report"},
	RunE:      runDecisions,
}

func init() {
	decisionsFlags.register(decisionsCmd, pipeline.StageRisk)
	f := decisionsCmd.Flags()
	f.StringVar(&decisionsFlags.element, "element", "", "Element id, e.g. UE-003")
	f.StringVar(&decisionsFlags.document, "document", "", "Specification to link deferrals to risk levels (report view)")
}

func runDecisions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	view := "report"
	if len(args) == 1 {
		view = args[0]
	}
	if _, err := report.ParseFormat(decisionsFlags.format); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	switch view {
	case "history":
		var records []model.Decision
		if decisionsFlags.element != "" {
			records, err = store.History(ctx, decisionsFlags.element)
		} else {
			records, err = store.All(ctx)
		}
		if err != nil {
			return err
		}
		return decisionsFlags.emit(cmd, records)

	case "latest":
		if decisionsFlags.element == "" {
			return model.InvalidInput("--element is required for the latest view")
		}
		d, ok, err := store.Latest(ctx, decisionsFlags.element)
		if err != nil {
			return err
		}
		if !ok {
			return model.InvalidInput("no decision recorded for %s", decisionsFlags.element)
		}
		return decisionsFlags.emit(cmd, []model.Decision{d})

	case "report":
		all, err := store.All(ctx)
		if err != nil {
			return err
		}
		var risks *model.RiskAnalysisResult
		if decisionsFlags.document != "" {
			res, err := runStage(cmd, &decisionsFlags.analysisFlags, pipeline.StageRisk, decisionsFlags.document)
			if err != nil {
				return fmt.Errorf("assessing %s: %w", decisionsFlags.document, err)
			}
			risks = res.Risks
		}
		return decisionsFlags.emit(cmd, report.DecisionReport(all, risks))

	default:
		return model.InvalidInput("unknown view %q: must be history, latest or report", view)
	}
}
