package main

import (
	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/pipeline"
)

var (
	parseFlags      analysisFlags
	extractFlags    analysisFlags
	assessRiskFlags analysisFlags
	recommendFlags  analysisFlags
)

var parseCmd = newStageCmd(&parseFlags, pipeline.StageParse, &cobra.Command{
	Use:   "parse <document|->",
	Short: "Split a specification into sentences, entities, actions and requirements",
}, func(res *pipeline.Result) any { return res.Parsed })

var extractCmd = newStageCmd(&extractFlags, pipeline.StageExtract, &cobra.Command{
	Use:   "extract <document|->",
	Short: "List the elements a specification leaves undefined",
	Long: `Find undefined elements: missing data types and constraints, vague
non-functional requirements, unhandled failures, unclear behavior and
integration gaps. Each element carries clarification questions.`,
}, func(res *pipeline.Result) any { return res.Elements })

var assessRiskCmd = newStageCmd(&assessRiskFlags, pipeline.StageRisk, &cobra.Command{
	Use:   "assess-risk <document|->",
	Short: "Score the risk of every undefined element",
	Long: `Score each undefined element on probability, impact, detectability and
remediation cost, weighted by the project's phase and criticality. The
project status comes from --project, or from .specgap/project.yaml in the
working directory or any parent.`,
}, func(res *pipeline.Result) any { return res.Risks })

var recommendCmd = newStageCmd(&recommendFlags, pipeline.StagePlan, &cobra.Command{
	Use:   "recommend <document|->",
	Short: "Plan the remediation of every risk",
	Long: `Build a remediation plan: the phase each gap belongs to, its urgency,
staffed action steps, effort against the budget and alternatives to
fixing it now. With --decisions, recorded decisions are attached.`,
}, func(res *pipeline.Result) any { return res.Plan })

// newStageCmd completes cmd as a command that runs the pipeline through
// stage and reports the part of the result pick selects.
func newStageCmd(flags *analysisFlags, stage pipeline.Stage, cmd *cobra.Command, pick func(*pipeline.Result) any) *cobra.Command {
	cmd.Args = argsValidator(cobra.ExactArgs(1))
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		res, err := runStage(cmd, flags, stage, args[0])
		if err != nil {
			return err
		}
		return flags.emit(cmd, pick(res))
	}
	flags.register(cmd, stage)
	return cmd
}

// runStage validates the flags, reads the document and runs it.
func runStage(cmd *cobra.Command, flags *analysisFlags, stage pipeline.Stage, path string) (*pipeline.Result, error) {
	ctx := cmd.Context()
	opts, err := flags.options(ctx, stage)
	if err != nil {
		return nil, err
	}
	doc, err := readDocument(cmd, path)
	if err != nil {
		return nil, err
	}
	analyzer, err := newAnalyzer()
	if err != nil {
		return nil, err
	}
	return analyzer.Run(ctx, doc, opts)
}
