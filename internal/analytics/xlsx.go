package analytics

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/adaptiq/internal/content"
)

// Sheet names of the class report workbook.
const (
	SheetHeatmap       = "Heatmap"
	SheetHardest       = "Hardest"
	SheetInterventions = "Interventions"
)

// ExportXLSX writes the class report as a workbook with one sheet per
// section.
func ExportXLSX(w io.Writer, ch content.Chapter, class *ClassAnalytics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetHeatmap); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetHardest, SheetInterventions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	heat := [][]interface{}{{"Chapter", sanitizeForExcel(ch.Title)}, {"Students", class.Students},
		{"Concept ID", "Concept", "Average proficiency (%)", "Students"}}
	for _, h := range class.ConceptHeatmap {
		heat = append(heat, []interface{}{h.ConceptID, sanitizeForExcel(h.ConceptName), h.AverageProficiency, h.Students})
	}
	if err := writeSheet(f, SheetHeatmap, heat); err != nil {
		return err
	}

	hard := [][]interface{}{{"Concept ID", "Concept", "Average attempts"}}
	for _, h := range class.HardestConcepts {
		hard = append(hard, []interface{}{h.ConceptID, sanitizeForExcel(h.ConceptName), h.AverageAttempts})
	}
	if err := writeSheet(f, SheetHardest, hard); err != nil {
		return err
	}

	iv := [][]interface{}{{"Concept ID", "Concept", "Reason"}}
	for _, in := range class.SuggestedInterventions {
		iv = append(iv, []interface{}{in.ConceptID, sanitizeForExcel(in.ConceptName), in.Reason})
	}
	if err := writeSheet(f, SheetInterventions, iv); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream sheet %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet %s: %w", sheet, err)
	}
	return nil
}

// sanitizeForExcel keeps user text from being read as a formula.
func sanitizeForExcel(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
