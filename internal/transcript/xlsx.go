package transcript

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"interviewgpt/internal/domain"
)

// SheetName is the worksheet holding the transcript.
const SheetName = "Transcript"

// WriteXLSX writes visible turns to a single-sheet workbook.
func WriteXLSX(out io.Writer, turns []domain.Turn) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for i := range turns {
		if turns[i].Hidden {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := turnToRow(&turns[i], false)
		// Seq stays numeric so the sheet sorts correctly.
		record := []interface{}{turns[i].Seq, values[1], values[2], values[3]}
		if err := f.SetSheetRow(SheetName, cell, &record); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
		row++
	}

	if err := styleSheet(f); err != nil {
		return err
	}
	return f.Write(out)
}

func styleSheet(f *excelize.File) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "D1", bold); err != nil {
		return err
	}

	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	if err := f.SetColStyle(SheetName, "C", wrap); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "C", "C", 100); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "D", "D", 22); err != nil {
		return err
	}
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
