package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/repo"
)

// newHistoryCmd — команда просмотра архива выполненных планов.
func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived plan runs from PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			pool, err := repo.NewPool(ctx)
			if err != nil {
				return fmt.Errorf("archive unavailable: %w", err)
			}
			defer pool.Close()

			records, err := repo.NewPlanRepo(pool).ListSummaries(ctx, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				cmd.Println("Архив пуст.")
				return nil
			}

			for _, rec := range records {
				cmd.Println(formatHistoryRecord(rec))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	return cmd
}

// formatHistoryRecord форматирует одну строку архива.
func formatHistoryRecord(rec repo.SummaryRecord) string {
	status := "FAILED"
	if rec.Success {
		status = "COMPLETED"
	}
	return fmt.Sprintf("%s  %-9s  %d/%d steps  %-10s  %s",
		rec.FinishedAt.Format(time.RFC3339),
		status,
		rec.CompletedCount,
		rec.CompletedCount+rec.FailedCount,
		rec.TotalDuration.Round(time.Millisecond),
		rec.Topic,
	)
}
