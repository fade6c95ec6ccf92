package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/specgap/internal/model"
)

var decideFlags struct {
	reason string
	actor  string
}

var decideCmd = &cobra.Command{
	Use:   "decide <element-id> <resolve|accept|defer|need_more_info>",
	Short: "Record a decision about an undefined element",
	Long: `Append a stakeholder decision to the decision log. The log is
append-only: a later decision about the same element supersedes the
earlier one without erasing it.`,
	Args: argsValidator(cobra.ExactArgs(2)),
	RunE: runDecide,
}

func init() {
	f := decideCmd.Flags()
	f.StringVar(&decideFlags.reason, "reason", "", "Why the decision was taken")
	f.StringVar(&decideFlags.actor, "actor", "", "Who took the decision")
}

func runDecide(cmd *cobra.Command, args []string) error {
	d := model.Decision{
		ElementID: args[0],
		Kind:      model.DecisionKind(args[1]),
		Reason:    decideFlags.reason,
		Actor:     decideFlags.actor,
	}
	if err := model.ValidateDecisionKind(d.Kind); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	d, err = store.Append(cmd.Context(), d)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Decision #%d recorded: %s is %s\n", d.ID, d.ElementID, d.Kind)
	return nil
}
