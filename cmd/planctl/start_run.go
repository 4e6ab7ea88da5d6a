package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paklog/workload-planning-service/internal/workflows"
	"github.com/paklog/workload-planning-service/pkg/temporal"
)

func newStartRunCmd(a *app) *cobra.Command {
	var (
		scenarioPath string
		workflowID   string
		taskQueue    string
		hostPort     string
		namespace    string
		approvedBy   string
		autoApprove  bool
		wait         bool
	)

	defaults := temporal.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "start-run",
		Short: "Submit a daily planning run to Temporal",
		Long: `Submit DailyPlanningWorkflow for the scenario's warehouse and plan date.

Without --wait the command prints the workflow and run IDs and returns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			input, err := scenario.workflowInput(autoApprove, approvedBy)
			if err != nil {
				return err
			}
			if workflowID == "" {
				workflowID = fmt.Sprintf("daily-planning-%s-%s", input.WarehouseID, input.PlanDate.Format(dateLayout))
			}

			config := temporal.DefaultConfig()
			config.HostPort = hostPort
			config.Namespace = namespace
			config.Identity = "planctl"

			ctx := cmd.Context()
			client, err := a.dialTemporal(ctx, config)
			if err != nil {
				return err
			}
			defer client.Close()

			if !wait {
				run, err := client.StartWorkflow(ctx, workflowID, taskQueue, temporal.WorkflowNames.DailyPlanning, input)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), map[string]string{
						"workflowId": run.GetID(),
						"runId":      run.GetRunID(),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), field("Workflow", run.GetID()))
				fmt.Fprintln(cmd.OutOrStdout(), field("Run", run.GetRunID()))
				return nil
			}

			var result workflows.DailyPlanningResult
			if _, err := client.ExecuteWorkflow(ctx, workflowID, taskQueue, temporal.WorkflowNames.DailyPlanning, &result, input); err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			renderRunResult(cmd.OutOrStdout(), workflowID, &result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "f", "", "Scenario YAML file")
	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "Workflow ID (default daily-planning-<warehouse>-<date>)")
	cmd.Flags().StringVar(&taskQueue, "task-queue", temporal.TaskQueues.WorkloadPlanning, "Temporal task queue")
	cmd.Flags().StringVar(&hostPort, "temporal-host", getEnv("TEMPORAL_HOST", defaults.HostPort), "Temporal frontend address")
	cmd.Flags().StringVar(&namespace, "namespace", getEnv("TEMPORAL_NAMESPACE", defaults.Namespace), "Temporal namespace")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Approve the plan when it comes out balanced")
	cmd.Flags().StringVar(&approvedBy, "approved-by", "", "Approver recorded on auto-approval")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the run to finish and print its result")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}
