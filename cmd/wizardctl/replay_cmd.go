package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/step"
	"github.com/iota-uz/onboarding/modules/stepper/infrastructure/refdata"
	"github.com/iota-uz/onboarding/modules/stepper/infrastructure/workflow"
	"github.com/iota-uz/onboarding/modules/stepper/services"
	"github.com/iota-uz/onboarding/pkg/apiclient"
	"github.com/iota-uz/onboarding/pkg/configuration"
	"github.com/iota-uz/onboarding/pkg/logging"
	"github.com/iota-uz/onboarding/pkg/routing"
)

// replayPlan is the file a replay runs. JSON is valid YAML, so both work.
//
//	wizard: capital-partner
//	steps:
//	  profile:
//	    investorFirstName: Asha
type replayPlan struct {
	Wizard   string                    `yaml:"wizard"`
	RecordID int64                     `yaml:"recordId"`
	Steps    map[string]map[string]any `yaml:"steps"`
}

func readPlan(path string) (replayPlan, error) {
	var plan replayPlan
	data, err := os.ReadFile(path)
	if err != nil {
		return plan, err
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("parse %s: %w", path, err)
	}
	if plan.Wizard == "" {
		return plan, fmt.Errorf("%s: wizard is required", path)
	}
	return plan, nil
}

func (p replayPlan) check(def *step.Definition) error {
	for key := range p.Steps {
		if _, ok := def.StepByKey(key); !ok {
			return fmt.Errorf("%w: %s has no step %q", services.ErrUnknownStep, def.Name, key)
		}
	}
	return nil
}

func newReplayCmd() *cobra.Command {
	var (
		file    string
		baseURL string
		token   string
		submit  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Drive a wizard from a YAML or JSON record file against the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := readPlan(file)
			if err != nil {
				return err
			}
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			def, err := registry.Get(plan.Wizard)
			if err != nil {
				return err
			}
			if err := plan.check(def); err != nil {
				return err
			}

			level := logrus.WarnLevel
			if verbose {
				level = logrus.DebugLevel
			}
			logger := logrus.NewEntry(logging.ConsoleLogger(level)).WithField("wizard", def.Name)

			apiOpts := configuration.Use().API
			if baseURL != "" {
				apiOpts.BaseURL = baseURL
			}
			if token != "" {
				apiOpts.Token = token
			}
			client := apiclient.New(apiclient.Options{
				BaseURL:    apiOpts.BaseURL,
				Token:      apiOpts.Token,
				Timeout:    apiOpts.Timeout,
				GetRetries: apiOpts.GetRetries,
				MaxBackoff: apiOpts.MaxBackoff,
				Logger:     logger.WithField("component", "apiclient"),
			})
			ctrl := services.NewController(services.ControllerOptions{
				Definition: def,
				Client:     client,
				Catalogs:   refdata.NewProvider(client, refdata.Options{Logger: logger}),
				Submitter:  workflow.NewSubmitter(client),
				Routes:     registry.Routes(),
				Logger:     logger,
			})

			snap, err := replay(cmd.Context(), ctrl, plan, submit, logger)
			if werr := writeJSON(cmd.OutOrStdout(), snap); werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Record file (YAML or JSON, required)")
	cmd.Flags().StringVar(&baseURL, "api", "", "API base URL (defaults to API_BASE_URL)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token (defaults to API_TOKEN)")
	cmd.Flags().BoolVar(&submit, "submit", false, "Submit the workflow request after the last step")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// replay walks the wizard from its first step, applying the plan's fields of
// each step before advancing. Without submit it stops on the review step.
func replay(ctx context.Context, ctrl *services.Controller, plan replayPlan, submit bool, logger *logrus.Entry) (services.Snapshot, error) {
	mode := routing.ModeCreate
	if plan.RecordID > 0 {
		mode = routing.ModeEdit
	}
	snap, err := ctrl.Start(ctx, services.StartOptions{RecordID: plan.RecordID, Mode: mode})
	if err != nil {
		return snap, err
	}
	last := ctrl.Definition().Last()
	for {
		if fields := plan.Steps[snap.StepKey]; len(fields) > 0 {
			if snap, err = ctrl.Update(ctx, record.Record(fields)); err != nil {
				return snap, fmt.Errorf("step %s: %w", snap.StepKey, err)
			}
		}
		if snap.Step == last && !submit {
			return snap, nil
		}
		key := snap.StepKey
		if snap, err = ctrl.Next(ctx); err != nil {
			return snap, fmt.Errorf("step %s: %w", key, err)
		}
		for _, w := range snap.Warnings {
			logger.WithField("kind", w.Kind).Warn(w.Message)
		}
		if snap.Submitted {
			logger.WithField("workflowRequestId", snap.WorkflowRequestID).Info("submitted")
			return snap, nil
		}
	}
}
