package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/temporal"
)

// app carries the state shared by every command
type app struct {
	jsonOutput   bool
	verbose      bool
	logger       *logging.Logger
	dialTemporal func(ctx context.Context, config *temporal.Config) (*temporal.Client, error)
}

func newApp() *app {
	return &app{
		logger: logging.Discard(),
		dialTemporal: func(ctx context.Context, config *temporal.Config) (*temporal.Client, error) {
			return temporal.NewClient(ctx, config, nil, nil)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "planctl",
		Version: version,
		Short:   "Warehouse workload planning from the command line",
		Long: `planctl forecasts warehouse demand, simulates staffing plans and submits
daily planning runs to the workload planning worker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				config := logging.DefaultConfig("planctl")
				config.Level = logging.LevelDebug
				config.Output = cmd.ErrOrStderr()
				a.logger = logging.New(config)
			}
		},
	}

	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log service activity to stderr")

	root.AddCommand(newForecastCmd(a))
	root.AddCommand(newSimulateCmd(a))
	root.AddCommand(newStartRunCmd(a))
	return root
}

func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
