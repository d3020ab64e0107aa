package dataset

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"retail-insights/internal/models"
)

const sheetTimestampLayout = "2006-01-02 15:04:05"

func readXLSX(ctx context.Context, path, sheet string) (models.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.RawTable{}, ErrEmpty
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return models.RawTable{}, fmt.Errorf("sheet %q not found (have %s)", sheet, strings.Join(sheets, ", "))
	}

	// Raw values keep numbers unformatted; date columns come back as Excel
	// serials and are converted below.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return models.RawTable{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return models.RawTable{}, err
	}

	headerRow := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return models.RawTable{}, ErrEmpty
	}

	table := models.RawTable{Header: rows[headerRow]}
	dateCols := dateColumns(table.Header)
	for _, row := range rows[headerRow+1:] {
		if blankRow(row) {
			continue
		}
		for _, c := range dateCols {
			if c < len(row) {
				row[c] = serialToTimestamp(row[c])
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func dateColumns(header []string) []int {
	var cols []int
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "date") {
			cols = append(cols, i)
		}
	}
	return cols
}

// serialToTimestamp converts an Excel date serial to a timestamp string the
// cleaner understands. Anything that is not a number is returned untouched.
func serialToTimestamp(cell string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return t.Round(time.Second).Format(sheetTimestampLayout)
}
