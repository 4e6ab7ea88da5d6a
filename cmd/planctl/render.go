package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/internal/workflows"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7BD88F"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

func field(label string, value interface{}) string {
	return fmt.Sprintf("%s %v", labelStyle.Render(label+":"), value)
}

func statusText(status string) string {
	if status == domain.StaffingBalanced {
		return goodStyle.Render(status)
	}
	return warnStyle.Render(status)
}

func renderForecast(out io.Writer, forecast *application.ForecastDTO) {
	totals := make(map[string]int)
	for _, dp := range forecast.DataPoints {
		totals[dp.Category] += dp.ForecastedVolume
	}

	lines := []string{
		titleStyle.Render("Forecast " + forecast.ForecastID),
		field("Warehouse", forecast.WarehouseID),
		field("Period", forecast.Period),
		field("Date", forecast.ForecastDate.Format(dateLayout)),
		field("Model", forecast.ForecastingModel),
		"",
	}
	for _, category := range sortedKeys(totals) {
		lines = append(lines, fmt.Sprintf("  %-14s %6d", category, totals[category]))
	}

	fmt.Fprintln(out, boxStyle.Render(strings.Join(lines, "\n")))
}

func renderSimulation(out io.Writer, result *simulationResult) {
	renderForecast(out, result.Forecast)

	plan := result.Plan
	summary := []string{
		titleStyle.Render("Plan " + plan.PlanID),
		field("Date", plan.PlanDate),
		field("Status", plan.Status),
		field("Staffing", statusText(plan.StaffingStatus)),
		field("Required hours", plan.TotalRequiredLaborHours),
		field("Available hours", plan.TotalAvailableLaborHours),
		field("Workers", plan.TotalWorkersAssigned),
		field("Utilization", fmt.Sprintf("%.1f%%", plan.UtilizationPercentage)),
		field("Labor cost", fmt.Sprintf("%.2f", plan.EstimatedLaborCost)),
	}
	if len(result.Allocation.SkippedWorkers) > 0 {
		summary = append(summary, field("Skipped", warnStyle.Render(strings.Join(result.Allocation.SkippedWorkers, ", "))))
	}
	fmt.Fprintln(out, boxStyle.Render(strings.Join(summary, "\n")))

	roster := []string{titleStyle.Render("Roster")}
	for _, shift := range domain.ShiftTypes() {
		assignments := plan.ShiftAssignments[shift.String()]
		if len(assignments) == 0 {
			continue
		}
		roster = append(roster, labelStyle.Render(fmt.Sprintf("%s %s-%s", shift, shift.StartTime(), shift.EndTime())))
		for _, a := range assignments {
			roster = append(roster, fmt.Sprintf("  %-10s %-16s %-14s %2dh", a.WorkerID, a.WorkerName, a.PrimaryCategory, a.PlannedHours))
		}
	}
	fmt.Fprintln(out, boxStyle.Render(strings.Join(roster, "\n")))

	staffing := []string{titleStyle.Render("Staffing gaps")}
	for _, category := range sortedKeys(result.Staffing.Categories) {
		c := result.Staffing.Categories[category]
		staffing = append(staffing, fmt.Sprintf("  %-14s need %3d have %3d gap %3d", category, c.RequiredWorkers, c.CurrentWorkers, c.Gap))
	}
	for _, warning := range result.Staffing.Warnings {
		staffing = append(staffing, warnStyle.Render("! "+warning))
	}
	for _, suggestion := range result.Staffing.Suggestions {
		staffing = append(staffing, "- "+suggestion)
	}
	fmt.Fprintln(out, boxStyle.Render(strings.Join(staffing, "\n")))

	recommendations := []string{titleStyle.Render("Recommendations")}
	for _, r := range result.Recommendations.Recommendations {
		recommendations = append(recommendations, "- "+r)
	}
	fmt.Fprintln(out, boxStyle.Render(strings.Join(recommendations, "\n")))

	events := make([]string, 0, len(result.Events))
	for _, eventType := range sortedKeys(result.Events) {
		events = append(events, fmt.Sprintf("%s=%d", eventType, result.Events[eventType]))
	}
	fmt.Fprintln(out, field("Events", strings.Join(events, " ")))
}

func renderRunResult(out io.Writer, workflowID string, result *workflows.DailyPlanningResult) {
	lines := []string{
		titleStyle.Render("Run " + workflowID),
		field("Forecast", result.ForecastID),
		field("Plan", result.PlanID),
		field("Status", result.Status),
		field("Staffing", statusText(result.StaffingStatus)),
		field("Utilization", fmt.Sprintf("%.1f%%", result.Utilization)),
		field("Assigned", result.Assigned),
		field("Approved", result.Approved),
	}
	fmt.Fprintln(out, boxStyle.Render(strings.Join(lines, "\n")))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
