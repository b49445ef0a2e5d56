package app

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const scoresSheet = "Scores"

var scoreHeaders = []string{"Date", "Score", "Difficulty", "Correct Answers", "Total Questions", "Success Rate"}

// ExportXLSX renders the score history, newest first, as an Excel workbook.
func (s *ScoreService) ExportXLSX(ctx context.Context) ([]byte, error) {
	history, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(scoresSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, header := range scoreHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(scoresSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIndex, summary := range history {
		row := []any{
			summary.CreatedAt.Format("2006-01-02 15:04"),
			summary.Score,
			summary.Difficulty.Label(),
			summary.CorrectAnswers,
			summary.TotalQuestions,
			fmt.Sprintf("%.0f%%", summary.SuccessRate()),
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIndex+2)
		if err := f.SetSheetRow(scoresSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	s.logger.Debug("exported score history", "rows", len(history))
	return buf.Bytes(), nil
}
