package problem

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Problems"

var exportHeader = []any{"ID", "Topic", "Kind", "Tags", "Prompt", "Recommendations", "Content"}

// WriteWorkbook writes problems as an xlsx workbook with one row per problem.
func WriteWorkbook(w io.Writer, problems []Problem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range problems {
		content, err := MarshalContent(p.Content)
		if err != nil {
			return fmt.Errorf("encode problem %d: %w", p.ID, err)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			p.ID,
			string(p.Topic),
			string(p.Kind()),
			strings.Join(p.Tags, ", "),
			p.Prompt,
			p.Recommendations,
			string(content),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write problem %d: %w", p.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
