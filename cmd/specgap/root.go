package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/HendryAvila/specgap/internal/decisions"
	"github.com/HendryAvila/specgap/internal/logging"
	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/server"
)

var rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "specgap",
	Short: "Find what a specification leaves undefined",
	Long: `specgap reads a natural-language requirements document and reports the
elements it leaves undefined, how risky each gap is for the project, and
a remediation plan ordered by urgency.

Every command runs the same deterministic pipeline:
parse -> extract -> assess-risk -> recommend.`,
	Args:              cobra.ArbitraryArgs,
	RunE:              runRoot,
	PersistentPreRunE: initLogging,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configDir, "config-dir", "", "Directory overriding the built-in rules.yaml, knowledge.yaml, planning.yaml, lexicon.yaml")
	pf.StringVar(&rootFlags.dataDir, "data-dir", decisions.DefaultConfig().DataDir, "Directory of the decision log")
	pf.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return model.InvalidInput("%v", err)
	})

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(assessRiskCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(decisionsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = server.Version
}

// runRoot prints help when called bare. Cobra only reaches it with
// arguments when they name no subcommand.
func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	return model.InvalidInput("unknown command %q for %q", args[0], cmd.CommandPath())
}

func initLogging(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(rootFlags.logLevel)
	if err != nil {
		return model.InvalidInput("%v", err)
	}
	switch rootFlags.logFormat {
	case "text", "json":
	default:
		return model.InvalidInput("unknown log format %q: must be text or json", rootFlags.logFormat)
	}
	logging.Init(level, rootFlags.logFormat, cmd.ErrOrStderr())
	return nil
}

// argsValidator makes cobra's argument count errors invalid input.
func argsValidator(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return model.InvalidInput("%v", err)
		}
		return nil
	}
}

// resetFlags restores every flag of cmd and its children to its default.
// Flag values are package state, so repeated runs in one process need it.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
