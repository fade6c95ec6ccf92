// Package pipeline runs the four analysis stages over a document:
// parse, extract, assess risk and recommend. Each run loads the current
// configuration bundle once and uses it for every stage, so a reload in
// the middle of a run never mixes tables.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/detector"
	"github.com/HendryAvila/specgap/internal/logging"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/parser"
	"github.com/HendryAvila/specgap/internal/remediation"
	"github.com/HendryAvila/specgap/internal/risk"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Stage names one step of the pipeline.
type Stage string

const (
	StageParse   Stage = "parse"
	StageExtract Stage = "extract"
	StageRisk    Stage = "assess_risk"
	StagePlan    Stage = "recommend"
)

// Stages lists the stages in run order.
var Stages = []Stage{StageParse, StageExtract, StageRisk, StagePlan}

func (s Stage) index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// StageError reports the stage a run failed in. The Result returned with
// it holds the output of every stage that completed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result is the output of one run. Stages that did not run are nil.
type Result struct {
	Parsed   *model.ParsedRequirement  `json:"parsed,omitempty"`
	Elements *model.UndefinedElements  `json:"elements,omitempty"`
	Risks    *model.RiskAnalysisResult `json:"risks,omitempty"`
	Plan     *model.RemediationPlan    `json:"plan,omitempty"`
}

// Options configure one run.
type Options struct {
	Parser   parser.Options
	Detector detector.Options
	Project  model.ProjectStatus
	// Incidents replaces the knowledge base's incident list when set.
	Incidents risk.IncidentSource
	Planning  remediation.Options
	// Through is the last stage to run. Empty means every stage.
	Through Stage
}

// DefaultOptions returns options running every stage with the default
// project status.
func DefaultOptions() Options {
	return Options{
		Parser:   parser.DefaultOptions(),
		Detector: detector.DefaultOptions(),
		Project:  model.DefaultProjectStatus(),
		Through:  StagePlan,
	}
}

// Analyzer runs documents through the pipeline.
type Analyzer struct {
	holder *config.Holder
	logger *slog.Logger
}

// NewAnalyzer returns an Analyzer reading configuration from holder.
func NewAnalyzer(holder *config.Holder) *Analyzer {
	return &Analyzer{holder: holder, logger: logging.New("pipeline")}
}

// stages holds the constructed stage objects of one run. Stages past
// Through stay nil.
type stages struct {
	parser    *parser.Parser
	detector  *detector.Detector
	evaluator *risk.Evaluator
	planner   *remediation.Planner
}

// prepare builds every stage needed up to last, so invalid options or
// tables fail before any stage runs. The error carries the stage whose
// construction failed.
func prepare(bundle *config.Bundle, opts Options, last int) (stages, Stage, error) {
	var (
		st  stages
		err error
	)
	if st.parser, err = parser.New(bundle.Lexicon, opts.Parser); err != nil {
		return st, StageParse, err
	}
	if last < StageExtract.index() {
		return st, "", nil
	}
	if st.detector, err = detector.New(bundle.Rules, opts.Detector); err != nil {
		return st, StageExtract, err
	}
	if last < StageRisk.index() {
		return st, "", nil
	}
	var ropts []risk.Option
	if opts.Incidents != nil {
		ropts = append(ropts, risk.WithIncidentSource(opts.Incidents))
	}
	if st.evaluator, err = risk.New(bundle.Knowledge, opts.Project, ropts...); err != nil {
		return st, StageRisk, err
	}
	if last < StagePlan.index() {
		return st, "", nil
	}
	if st.planner, err = remediation.New(bundle.Planning, opts.Project); err != nil {
		return st, StagePlan, err
	}
	return st, "", nil
}

// Run analyses one document up to opts.Through. Every stage is built
// before the first one runs, so a configuration error returns an empty
// Result. On a later failure it returns the partial Result together with
// a *StageError.
func (a *Analyzer) Run(ctx context.Context, doc model.Document, opts Options) (*Result, error) {
	through := opts.Through
	if through == "" {
		through = StagePlan
	}
	last := through.index()
	if last < 0 {
		return nil, model.InvalidInput("unknown stage %q", through)
	}

	res := &Result{}
	fail := func(st Stage, err error) (*Result, error) {
		a.logger.Debug("stage failed", "stage", st, "error", err)
		return res, &StageError{Stage: st, Err: err}
	}

	sts, failed, err := prepare(a.holder.Load(), opts, last)
	if err != nil {
		return fail(failed, err)
	}

	step := func(st Stage, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := timeNow()
		if err := fn(); err != nil {
			return err
		}
		a.logger.Debug("stage complete", "stage", st, "elapsed", timeNow().Sub(start))
		return nil
	}

	if err := step(StageParse, func() (err error) {
		res.Parsed, err = sts.parser.Parse(doc)
		return err
	}); err != nil {
		return fail(StageParse, err)
	}
	if last < StageExtract.index() {
		return res, nil
	}

	if err := step(StageExtract, func() (err error) {
		res.Elements, err = sts.detector.Extract(res.Parsed)
		return err
	}); err != nil {
		return fail(StageExtract, err)
	}
	if last < StageRisk.index() {
		return res, nil
	}

	if err := step(StageRisk, func() (err error) {
		res.Risks, err = sts.evaluator.Analyze(ctx, res.Elements)
		return err
	}); err != nil {
		return fail(StageRisk, err)
	}
	if last < StagePlan.index() {
		return res, nil
	}

	if err := step(StagePlan, func() (err error) {
		res.Plan, err = sts.planner.Generate(res.Risks, opts.Planning)
		return err
	}); err != nil {
		return fail(StagePlan, err)
	}

	a.logger.Debug("analysis complete",
		"document", res.Parsed.DocumentID,
		"elements", len(res.Elements.Elements),
		"risks", len(res.Risks.Risks))
	return res, nil
}
