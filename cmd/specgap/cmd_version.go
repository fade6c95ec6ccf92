package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/server"
	"github.com/HendryAvila/specgap/internal/updater"
)

// newChecker is a package-level var to allow test injection.
var newChecker = updater.NewChecker

var versionFlags struct {
	check bool
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  argsValidator(cobra.NoArgs),
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionFlags.check, "check", false, "Also check GitHub for a newer release")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "specgap %s\n", server.Version)
	if !versionFlags.check {
		return nil
	}

	res, err := newChecker().Check(cmd.Context(), server.Version)
	if err != nil {
		return &model.DependencyError{Dependency: "GitHub releases", Err: err}
	}
	if res.UpdateAvailable {
		fmt.Fprintf(out, "Update available: %s -> %s\n  Release: %s\n", res.CurrentVersion, res.LatestVersion, res.ReleaseURL)
		return nil
	}
	fmt.Fprintf(out, "Latest release: %s\n", res.LatestVersion)
	return nil
}
