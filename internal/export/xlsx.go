// Package export renders a zone's application history as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/lawn-manager/internal/lawn"
)

const sheet = "Applications"

var headers = []string{
	"Applied On", "Chemical", "Method", "Rate Multiplier",
	"lb / 1,000 sq ft", "oz / 1,000 sq ft", "Total Product (lb)", "Next Due",
}

// ApplicationsXLSX writes one row per record, in the order given, below a
// title row naming the zone.
func ApplicationsXLSX(w io.Writer, zone lawn.Zone, records []lawn.ApplicationRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	title := fmt.Sprintf("%s (%d sq ft, %s)", zone.Name, zone.AreaSqFt, zone.GrassType)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 2)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}

	for r, rec := range records {
		row := []any{
			rec.AppliedOn.Format(lawn.DateLayout),
			rec.Chemical,
			rec.Method,
			rec.RateMultiplier,
			round2(rec.LbPer1000),
			round2(rec.OzPer1000),
			round2(rec.TotalProductLb),
			rec.NextDue().Format(lawn.DateLayout),
		}
		start, _ := excelize.CoordinatesToCellName(1, r+3)
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "H", 18); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
