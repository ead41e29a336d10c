// Package report renders the ranked jobs dataset into an xlsx file that
// gets mailed to subscribers.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/d9i2r2t1/hh-parser/pkg/etl"
)

const sheetName = "Sheet1"

// headerFillColor matches the report style the subscribers are used to.
const headerFillColor = "D6DCE3"

var columns = []string{"row", "date", "title", "company", "salary", "href"}

// Create writes the report file into dir and returns its path.
func Create(dir, searchText string, jobs []etl.RankedJob, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create report directory")
	}
	filePath := filepath.Join(dir, fileName(searchText, now))

	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	widths := make([]int, len(columns))
	for col, name := range columns {
		if err := setCell(file, col, 0, name, &widths[col]); err != nil {
			return "", err
		}
	}
	for rowIdx, job := range jobs {
		values := []interface{}{job.Row, job.Date.Format("2006-01-02"), job.Title, job.Company, job.Salary, job.URL}
		for col, value := range values {
			if err := setCell(file, col, rowIdx+1, value, &widths[col]); err != nil {
				return "", err
			}
		}
	}

	if err := formatFile(file, len(jobs), widths); err != nil {
		return "", err
	}

	if err := file.SaveAs(filePath); err != nil {
		return "", errors.Wrapf(err, "failed to save report file %s", filePath)
	}
	zap.S().Infof("Report file created: %s", filePath)
	return filePath, nil
}

func fileName(searchText string, now time.Time) string {
	name := fmt.Sprintf("%s_%s.xlsx", searchText, now.Format("20060102_150405"))
	return strings.ReplaceAll(name, " ", "_")
}

func setCell(file *excelize.File, col, row int, value interface{}, width *int) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return errors.Wrap(err, "failed to resolve cell name")
	}
	if err := file.SetCellValue(sheetName, cell, value); err != nil {
		return errors.Wrapf(err, "failed to set cell %s", cell)
	}
	if length := len(fmt.Sprint(value)); length > *width {
		*width = length
	}
	return nil
}

// formatFile highlights the header row and sizes every column to its
// longest value.
func formatFile(file *excelize.File, rowCount int, widths []int) error {
	headerStyle, err := file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create header style")
	}

	lastColumn, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return errors.Wrap(err, "failed to resolve last column")
	}
	if err := file.SetCellStyle(sheetName, "A1", lastColumn+"1", headerStyle); err != nil {
		return errors.Wrap(err, "failed to style header row")
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return errors.Wrap(err, "failed to resolve column name")
		}
		if err := file.SetColWidth(sheetName, name, name, float64(width)+1); err != nil {
			return errors.Wrapf(err, "failed to size column %s", name)
		}
	}
	zap.S().Debug("Report file formatted")
	return nil
}
