package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/config"
	"github.com/HendryAvila/specgap/internal/model"
)

var initFlags struct {
	name        string
	phase       string
	criticality string
	budget      float64
	force       bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write .specgap/project.yaml in the working directory",
	Long: `Create the project status file the risk and planning stages read when
no --project is given. Every command run below this directory finds it.`,
	Args: argsValidator(cobra.NoArgs),
	RunE: runInit,
}

func init() {
	f := initCmd.Flags()
	f.StringVar(&initFlags.name, "name", "", "Project name")
	f.StringVar(&initFlags.phase, "phase", string(model.PhaseRequirementDefinition), "Current phase: requirement_definition, design, implementation, testing, operation")
	f.StringVar(&initFlags.criticality, "criticality", string(model.CriticalityMedium), "Criticality: low, medium, high, critical")
	f.Float64Var(&initFlags.budget, "budget-hours", 0, "Effort budget in hours (0: none)")
	f.BoolVar(&initFlags.force, "force", false, "Overwrite an existing project file")
}

func runInit(cmd *cobra.Command, _ []string) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	if config.ProjectExists(root) && !initFlags.force {
		return model.InvalidInput("%s already exists; use --force to overwrite", config.ProjectPath(root))
	}
	if initFlags.budget < 0 {
		return model.InvalidInput("--budget-hours must not be negative")
	}

	status := model.ProjectStatus{
		Name:         initFlags.name,
		CurrentPhase: model.Phase(initFlags.phase),
		Criticality:  model.Criticality(initFlags.criticality),
		Constraints:  model.ProjectConstraints{BudgetHours: initFlags.budget},
	}
	if err := config.SaveProject(root, status); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", config.ProjectPath(root))
	return nil
}
