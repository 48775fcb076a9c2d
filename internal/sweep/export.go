package sweep

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const sheet = "Power"

// WriteXLSX writes the curve as a workbook with one row per point
func WriteXLSX(w io.Writer, c *Curve) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	// Header row
	headers := []string{string(c.Field), "power", "df", "ncp"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	// Data rows
	for r, p := range c.Points {
		row := []float64{p.Value, p.Power, p.DF, p.NCP}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	_, err = f.WriteTo(w)
	return err
}
