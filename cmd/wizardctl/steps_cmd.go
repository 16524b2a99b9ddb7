package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/onboarding/modules/stepper/presentation/mappers"
)

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps [wizard]",
		Short: "List the wizards, or the steps of one wizard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				out := make([]any, 0)
				for _, def := range registry.List() {
					out = append(out, mappers.WizardToViewModel(def))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			def, err := registry.Get(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), mappers.WizardToViewModel(def))
		},
	}
}
