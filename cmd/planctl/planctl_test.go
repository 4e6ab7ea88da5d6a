package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/internal/workflows"
	"github.com/paklog/workload-planning-service/pkg/temporal"
)

const testScenario = `
warehouseId: WH-1
period: daily
forecastDate: "2026-10-15"
history:
  picking: [400, 420, 380, 410, 400, 390, 400]
  packing: [200, 210, 190]
workers:
  - workerId: W-1
    name: Ana
    skillLevel: expert
    fullTime: true
    hourlyRate: 24
  - workerId: W-2
    name: Ben
    skillLevel: intermediate
    hourlyRate: 19.5
    productivityRates:
      packing: 70
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestParseScenario(t *testing.T) {
	scenario, err := parseScenario([]byte(testScenario))
	require.NoError(t, err)

	assert.Equal(t, "WH-1", scenario.WarehouseID)
	assert.Len(t, scenario.Workers, 2)

	period, err := scenario.forecastPeriod()
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodDaily, period)

	forecastDate, err := scenario.forecastTime()
	require.NoError(t, err)
	planDate, err := scenario.planTime()
	require.NoError(t, err)
	assert.Equal(t, forecastDate, planDate, "plan date defaults to the forecast date")

	history, err := scenario.historicalData()
	require.NoError(t, err)
	assert.Len(t, history[domain.CategoryPicking], 7)

	pool, err := scenario.workerPool()
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, 40, pool[0].MaxHoursPerWeek)
	assert.True(t, pool[1].CanPerform(domain.CategoryPacking))
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing warehouse", "history:\n  picking: [1]\n"},
		{"empty history", "warehouseId: WH-1\n"},
		{"unknown field", "warehouseId: WH-1\nhistory:\n  picking: [1]\nshifts: 3\n"},
		{"malformed yaml", "warehouseId: [WH-1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScenario([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestScenarioRejectsBadValues(t *testing.T) {
	scenario, err := parseScenario([]byte("warehouseId: WH-1\nforecastDate: 15/10/2026\nhistory:\n  sweeping: [1]\nworkers:\n  - workerId: W-1\n    skillLevel: wizard\n"))
	require.NoError(t, err)

	_, err = scenario.forecastTime()
	assert.Error(t, err)
	_, err = scenario.historicalData()
	assert.Error(t, err)
	_, err = scenario.workerPool()
	assert.Error(t, err)
}

func TestWorkflowInput(t *testing.T) {
	scenario, err := parseScenario([]byte(testScenario + "approveBy: ops\n"))
	require.NoError(t, err)

	input, err := scenario.workflowInput(true, "")
	require.NoError(t, err)
	assert.Equal(t, "WH-1", input.WarehouseID)
	assert.Equal(t, "2026-10-15", input.PlanDate.Format(dateLayout))
	assert.True(t, input.AutoApprove)
	assert.Equal(t, "ops", input.ApprovedBy)
	assert.Len(t, input.Workers, 2)

	input, err = scenario.workflowInput(false, "lead-7")
	require.NoError(t, err)
	assert.Equal(t, "lead-7", input.ApprovedBy)
}

func TestForecastCommand(t *testing.T) {
	path := writeScenario(t, testScenario)

	out, err := execute(t, newApp(), "forecast", "-f", path, "--json")
	require.NoError(t, err)

	var forecast application.ForecastDTO
	require.NoError(t, json.Unmarshal([]byte(out), &forecast))
	assert.Equal(t, "WH-1", forecast.WarehouseID)
	assert.Equal(t, "DAILY", forecast.Period)
	assert.NotEmpty(t, forecast.DataPoints)
}

func TestForecastCommandRequiresFile(t *testing.T) {
	_, err := execute(t, newApp(), "forecast")
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	path := writeScenario(t, testScenario)
	xlsxPath := filepath.Join(t.TempDir(), "roster.xlsx")

	out, err := execute(t, newApp(), "simulate", "-f", path, "--xlsx", xlsxPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Forecast")
	assert.Contains(t, out, "WH-1")
	assert.Contains(t, out, "Recommendations")
	assert.Contains(t, out, domain.EventPlanOptimized)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rosterSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, []string{"Shift", "Start", "End", "Worker ID", "Worker", "Category", "Hours"}, rows[1])

	staffing, err := f.GetRows(staffingSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(staffing), 3, "header plus picking and packing")
	assert.Equal(t, "Category", staffing[0][0])
}

func TestFirstError(t *testing.T) {
	assert.NoError(t, firstError())
	assert.NoError(t, firstError(nil, nil))

	second := errors.New("second")
	assert.ErrorIs(t, firstError(nil, assert.AnError, second), assert.AnError)
}

func TestWriteRosterXLSXReportsFailure(t *testing.T) {
	scenario, err := parseScenario([]byte(testScenario))
	require.NoError(t, err)
	result, err := runSimulation(context.Background(), scenario, newApp().logger)
	require.NoError(t, err)

	err = writeRosterXLSX(filepath.Join(t.TempDir(), "missing", "roster.xlsx"), result)
	assert.Error(t, err)
}

func TestRunSimulationEmitsLifecycleEvents(t *testing.T) {
	scenario, err := parseScenario([]byte(testScenario))
	require.NoError(t, err)

	result, err := runSimulation(context.Background(), scenario, newApp().logger)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Events[domain.EventForecastGenerated])
	assert.Equal(t, 1, result.Events[domain.EventPlanCreated])
	assert.Equal(t, 1, result.Events[domain.EventPlanOptimized])
	assert.Equal(t, result.Allocation.Plan.PlanID, result.Plan.PlanID)
	assert.Equal(t, result.Forecast.ForecastID, result.Staffing.ForecastID)
	assert.Equal(t, "DRAFT", result.Plan.Status, "no approver configured")
}

func mockTemporal(starter *mocks.Client) *app {
	a := newApp()
	a.dialTemporal = func(context.Context, *temporal.Config) (*temporal.Client, error) {
		return temporal.NewClientWithStarter(starter, nil), nil
	}
	return a
}

func TestStartRunSubmitsWorkflow(t *testing.T) {
	path := writeScenario(t, testScenario)

	run := &mocks.WorkflowRun{}
	run.On("GetID").Return("daily-planning-WH-1-2026-10-15")
	run.On("GetRunID").Return("run-1")

	starter := &mocks.Client{}
	starter.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
			return opts.ID == "daily-planning-WH-1-2026-10-15" && opts.TaskQueue == temporal.TaskQueues.WorkloadPlanning
		}),
		temporal.WorkflowNames.DailyPlanning,
		mock.MatchedBy(func(input workflows.DailyPlanningInput) bool {
			return input.WarehouseID == "WH-1" && input.AutoApprove && len(input.Workers) == 2
		}),
	).Return(run, nil)

	out, err := execute(t, mockTemporal(starter), "start-run", "-f", path, "--auto-approve", "--json")
	require.NoError(t, err)

	var started map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &started))
	assert.Equal(t, "run-1", started["runId"])
	assert.Equal(t, "daily-planning-WH-1-2026-10-15", started["workflowId"])
	starter.AssertExpectations(t)
}

func TestStartRunWaitsForResult(t *testing.T) {
	path := writeScenario(t, testScenario)

	run := &mocks.WorkflowRun{}
	run.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		*(args.Get(1).(*workflows.DailyPlanningResult)) = workflows.DailyPlanningResult{
			ForecastID:     "FC-1",
			PlanID:         "PLAN-1",
			StaffingStatus: domain.StaffingBalanced,
			Approved:       true,
			Status:         "APPROVED",
		}
	}).Return(nil)

	starter := &mocks.Client{}
	starter.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool { return opts.ID == "custom-run" }),
		temporal.WorkflowNames.DailyPlanning, mock.Anything,
	).Return(run, nil)

	out, err := execute(t, mockTemporal(starter), "start-run", "-f", path, "--workflow-id", "custom-run", "--wait", "--json")
	require.NoError(t, err)

	var result workflows.DailyPlanningResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "PLAN-1", result.PlanID)
	assert.True(t, result.Approved)
}

func TestStartRunReportsSubmitFailure(t *testing.T) {
	path := writeScenario(t, testScenario)

	starter := &mocks.Client{}
	starter.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	_, err := execute(t, mockTemporal(starter), "start-run", "-f", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
