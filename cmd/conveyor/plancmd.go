package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/plan"
)

// newValidateCmd — команда проверки YAML-описания плана.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plan.yaml>",
		Short: "Validate a plan YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.LoadFile(args[0])
			if err != nil {
				return err
			}
			cmd.Printf("OK: %d steps, strategy %s, estimated %s\n",
				len(p.Steps), p.Strategy, p.EstimatedTotalDuration.Round(time.Second))
			return nil
		},
	}
}

// newPlanCmd — команда генерации исследовательского плана.
func newPlanCmd() *cobra.Command {
	var sections int

	cmd := &cobra.Command{
		Use:   "plan <topic>",
		Short: "Print the standard research plan for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.NewResearchPlan(args[0], sections)
			if err != nil {
				return err
			}

			cmd.Printf("План: %s (стратегия %s, оценка %s)\n\n",
				p.Topic, p.Strategy, p.EstimatedTotalDuration.Round(time.Second))
			for _, s := range p.Steps {
				deps := "—"
				if len(s.Dependencies) > 0 {
					deps = fmt.Sprint(s.Dependencies)
				}
				cmd.Printf("%-20s %-18s prio=%d est=%-5s deps=%s\n",
					s.ID, s.Kind, s.Priority, s.EstimatedDuration, deps)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&sections, "sections", 0, "number of report sections")
	return cmd
}
