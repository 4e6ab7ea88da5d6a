package main

import (
	"github.com/spf13/cobra"

	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/infrastructure/memory"
)

func newForecastCmd(a *app) *cobra.Command {
	var historyPath string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Generate a demand forecast from a history file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := loadScenario(historyPath)
			if err != nil {
				return err
			}
			period, err := scenario.forecastPeriod()
			if err != nil {
				return err
			}
			forecastDate, err := scenario.forecastTime()
			if err != nil {
				return err
			}
			history, err := scenario.historicalData()
			if err != nil {
				return err
			}

			service := application.NewPlanningService(
				memory.NewForecastRepository(),
				memory.NewPlanRepository(),
				nil,
				a.logger,
			)
			forecast, err := service.GenerateForecast(cmd.Context(), application.GenerateForecastCommand{
				WarehouseID:    scenario.WarehouseID,
				Period:         period,
				ForecastDate:   forecastDate,
				HistoricalData: history,
			})
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), forecast)
			}
			renderForecast(cmd.OutOrStdout(), forecast)
			return nil
		},
	}

	cmd.Flags().StringVarP(&historyPath, "file", "f", "", "History YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
