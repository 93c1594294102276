package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/config"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/plan"
	"github.com/shaiso/Conveyor/internal/report"
)

// newRunCmd — команда выполнения плана.
func newRunCmd(cfgFn func() (config.Config, error), logger *slog.Logger) *cobra.Command {
	var planFile string
	var topic string
	var sections int
	var strategy string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a plan from YAML or build a research plan by topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cfgFn()
			if err != nil {
				return err
			}

			p, err := loadPlan(planFile, topic, sections, strategy)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			startMetricsServer(cfg.MetricsAddr, logger)

			eng, err := buildEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer eng.close()

			summary, err := eng.sched.Execute(ctx, p)
			if err != nil {
				return err
			}

			path, err := report.Export(cfg.ReportDir, p, summary)
			if err != nil {
				logger.Warn("failed to export report", "error", err)
			} else {
				logger.Info("report exported", "path", path)
			}

			printSummary(cmd, p, summary)

			for name, st := range eng.retrier.AllStats() {
				logger.Debug("operation stats",
					"operation", name,
					"calls", st.TotalCalls,
					"retries", st.TotalRetries,
					"success_rate", st.SuccessRate(),
				)
			}

			if !summary.Success {
				return fmt.Errorf("plan finished with %d failed steps", summary.FailedCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&planFile, "plan", "", "path to plan YAML file")
	cmd.Flags().StringVar(&topic, "topic", "", "research topic (builds the standard research plan)")
	cmd.Flags().IntVar(&sections, "sections", 0, "number of report sections")
	cmd.Flags().StringVar(&strategy, "strategy", "", "override execution strategy: sequential | parallel | adaptive")

	return cmd
}

// loadPlan строит план из файла или по теме.
func loadPlan(planFile, topic string, sections int, strategy string) (*domain.Plan, error) {
	var p *domain.Plan
	var err error

	switch {
	case planFile != "":
		p, err = plan.LoadFile(planFile)
	case topic != "":
		p, err = plan.NewResearchPlan(topic, sections)
	default:
		return nil, fmt.Errorf("either --plan or --topic is required")
	}
	if err != nil {
		return nil, err
	}

	if strategy != "" {
		s := domain.Strategy(strategy)
		if !s.Valid() {
			return nil, fmt.Errorf("invalid strategy %q", strategy)
		}
		p.Strategy = s
	}
	return p, nil
}

// printSummary печатает итог выполнения.
func printSummary(cmd *cobra.Command, p *domain.Plan, summary *domain.ExecutionSummary) {
	cmd.Printf("\nPlan:      %s (%s)\n", p.Topic, p.ID)
	cmd.Printf("Status:    %s\n", p.Status)
	cmd.Printf("Completed: %d\n", summary.CompletedCount)
	cmd.Printf("Failed:    %d\n", summary.FailedCount)
	cmd.Printf("Duration:  %s\n", summary.TotalDuration.Round(time.Millisecond))
	if len(summary.Errors) > 0 {
		cmd.Println("Errors:")
		for _, e := range summary.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}
}
