package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/iota-uz/onboarding/pkg/routing"
)

type urlOutput struct {
	URL      string       `json:"url"`
	Wizard   string       `json:"wizard"`
	RecordID int64        `json:"recordId,omitempty"`
	Step     int          `json:"step"`
	Mode     routing.Mode `json:"mode"`
}

func newURLCmd() *cobra.Command {
	var (
		wizard   string
		recordID int64
		stepIdx  int
		mode     string
	)

	cmd := &cobra.Command{
		Use:   "url [deep-link]",
		Short: "Parse a wizard deep link, or build one from flags",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			routes := registry.Routes()

			var st routing.State
			if len(args) == 1 {
				if st, err = routes.Parse(args[0]); err != nil {
					return err
				}
			} else {
				if wizard == "" {
					return errors.New("either a deep link or --wizard is required")
				}
				st = routing.State{Wizard: wizard, RecordID: recordID, Step: stepIdx, Mode: routing.Mode(mode)}
			}
			link, err := routes.URL(st)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), urlOutput{
				URL:      link,
				Wizard:   st.Wizard,
				RecordID: st.RecordID,
				Step:     st.Step,
				Mode:     st.Mode,
			})
		},
	}

	cmd.Flags().StringVar(&wizard, "wizard", "", "Wizard name, e.g. capital-partner")
	cmd.Flags().Int64Var(&recordID, "id", 0, "Record id (0 for a new record)")
	cmd.Flags().IntVar(&stepIdx, "step", 0, "Zero based step index")
	cmd.Flags().StringVar(&mode, "mode", "", "create, edit or view")
	return cmd
}
