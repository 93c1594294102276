// Conveyor — движок выполнения исследовательских планов.
//
// Использование:
//
//	conveyor [--config FILE] <command> [flags]
//
// Команды:
//
//	run       Выполнить план (из YAML или по теме исследования)
//	validate  Проверить YAML-описание плана
//	plan      Сгенерировать исследовательский план по теме
//	schedule  Периодически выполнять план по cron или интервалу
//	history   Показать архив выполненных планов
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/config"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Conveyor — research plan execution engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	cfgFn := func() (config.Config, error) {
		return config.Load(configPath)
	}

	logger := telemetry.NewLogger()

	rootCmd.AddCommand(
		newRunCmd(cfgFn, logger),
		newValidateCmd(),
		newPlanCmd(),
		newScheduleCmd(cfgFn, logger),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
