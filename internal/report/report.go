// Package report exports quiz progress as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-quiz/internal/progress"
)

const (
	SheetSummary   = "Summary"
	SheetQuestions = "Questions"
)

var (
	summaryHeader  = []any{"Topic", "Total", "Completed", "Correct", "Bookmarked", "Completion %", "Progress %"}
	questionHeader = []any{"ID", "Topic", "Title", "Question", "Selected answer", "Correct", "Bookmarked"}
)

// WriteProgress writes a workbook with a per-topic summary sheet and a
// per-question sheet to w.
func WriteProgress(w io.Writer, snap progress.Snapshot, summaries []progress.TopicSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetQuestions); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	summaryRows := make([][]any, 0, len(summaries))
	for _, s := range summaries {
		summaryRows = append(summaryRows, []any{
			s.Topic, s.Total, s.Completed, s.Correct, s.Bookmarked,
			s.CompletionPercent, s.ProgressPercent,
		})
	}
	if err := writeTable(f, SheetSummary, bold, summaryHeader, summaryRows); err != nil {
		return err
	}

	questionRows := make([][]any, 0, len(snap.Items))
	for _, item := range snap.Items {
		selected, answered := snap.Answers[item.ID]
		correct := ""
		if answered {
			correct = strconv.FormatBool(item.IsCorrect(selected))
		}
		questionRows = append(questionRows, []any{
			item.ID, item.Topic, item.Title, item.Question,
			selected, correct, snap.Bookmarks[item.ID],
		})
	}
	if err := writeTable(f, SheetQuestions, bold, questionHeader, questionRows); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetQuestions, "D", "D", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
