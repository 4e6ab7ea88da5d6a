package main

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/paklog/workload-planning-service/internal/domain"
)

const (
	rosterSheet   = "Roster"
	staffingSheet = "Staffing"
)

// writeRosterXLSX exports the plan roster and the per-category staffing gaps
func writeRosterXLSX(path string, result *simulationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(rosterSheet)
	if err != nil {
		return fmt.Errorf("failed to create roster sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(staffingSheet); err != nil {
		return fmt.Errorf("failed to create staffing sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	plan := result.Plan
	if err := firstError(
		f.SetCellValue(rosterSheet, "A1", fmt.Sprintf("%s %s (%s)", plan.WarehouseID, plan.PlanDate, plan.Status)),
		f.MergeCell(rosterSheet, "A1", "G1"),
		f.SetCellStyle(rosterSheet, "A1", "A1", headerStyle),
		writeRow(f, rosterSheet, 2, "Shift", "Start", "End", "Worker ID", "Worker", "Category", "Hours"),
		f.SetCellStyle(rosterSheet, "A2", "G2", headerStyle),
	); err != nil {
		return fmt.Errorf("failed to write roster header: %w", err)
	}

	row := 3
	for _, shift := range domain.ShiftTypes() {
		for _, a := range plan.ShiftAssignments[shift.String()] {
			if err := writeRow(f, rosterSheet, row,
				shift.String(), shift.StartTime().String(), shift.EndTime().String(),
				a.WorkerID, a.WorkerName, a.PrimaryCategory, a.PlannedHours,
			); err != nil {
				return err
			}
			row++
		}
	}
	if err := firstError(
		f.SetColWidth(rosterSheet, "A", "A", 12),
		f.SetColWidth(rosterSheet, "D", "F", 18),
		writeRow(f, staffingSheet, 1, "Category", "Forecasted", "Required", "Current", "Gap", "Labor hours"),
		f.SetCellStyle(staffingSheet, "A1", "F1", headerStyle),
	); err != nil {
		return fmt.Errorf("failed to format roster: %w", err)
	}

	row = 2
	for _, category := range sortedKeys(result.Staffing.Categories) {
		c := result.Staffing.Categories[category]
		if err := writeRow(f, staffingSheet, row,
			c.Category, c.ForecastedVolume, c.RequiredWorkers, c.CurrentWorkers, c.Gap, c.RequiredLaborHours,
		); err != nil {
			return err
		}
		row++
	}
	if err := f.SetColWidth(staffingSheet, "A", "A", 16); err != nil {
		return fmt.Errorf("failed to format staffing sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// firstError returns the first non-nil error. The calls are evaluated in
// order, so later ones still run against the workbook.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
