package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/config"
	"github.com/shaiso/Conveyor/internal/report"
	"github.com/shaiso/Conveyor/internal/schedule"
)

// newScheduleCmd — команда периодического выполнения плана.
func newScheduleCmd(cfgFn func() (config.Config, error), logger *slog.Logger) *cobra.Command {
	var planFile string
	var topic string
	var sections int
	var cronExpr string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run a plan repeatedly on a cron expression or interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cfgFn()
			if err != nil {
				return err
			}
			if cronExpr == "" && interval <= 0 {
				return fmt.Errorf("either --cron or --every is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			startMetricsServer(cfg.MetricsAddr, logger)

			eng, err := buildEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer eng.close()

			runner := schedule.NewRunner(logger)
			spec := schedule.Spec{CronExpr: cronExpr, Interval: interval}

			job := func(ctx context.Context) {
				// Каждый запуск — новый экземпляр плана: прошлые
				// результаты не мутируются.
				p, err := loadPlan(planFile, topic, sections, "")
				if err != nil {
					logger.Error("failed to build plan", "error", err)
					return
				}
				summary, err := eng.sched.Execute(ctx, p)
				if err != nil {
					logger.Error("scheduled run failed", "error", err)
					return
				}
				if path, err := report.Export(cfg.ReportDir, p, summary); err == nil {
					logger.Info("report exported", "path", path)
				}
			}

			if err := runner.Add("plan", spec, job); err != nil {
				return err
			}

			logger.Info("schedule runner started")
			runner.Start(ctx)
			logger.Info("schedule runner stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&planFile, "plan", "", "path to plan YAML file")
	cmd.Flags().StringVar(&topic, "topic", "", "research topic")
	cmd.Flags().IntVar(&sections, "sections", 0, "number of report sections")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression (5 fields)")
	cmd.Flags().DurationVar(&interval, "every", 0, "interval between runs")

	return cmd
}
