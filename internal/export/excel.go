// Package export renders a day's bookings as an Excel workbook for the
// operator.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/LikkleOra/TrimTime/internal/config"
	"github.com/LikkleOra/TrimTime/internal/models"
)

var scheduleColumns = []string{"Time", "Customer", "Phone", "Service", "Price", "Duration (min)", "Notes", "Status"}

// DaySchedule writes every booking dated date (YYYY-MM-DD), sorted by
// time label, as one sheet of an xlsx workbook.
func DaySchedule(w io.Writer, bookings []models.Booking, catalog *config.ServicesConfig, date string) error {
	day := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Date == date {
			day = append(day, b)
		}
	}
	sort.SliceStable(day, func(i, j int) bool { return day[i].Time < day[j].Time })

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(date)
	f.SetSheetName("Sheet1", sheet)

	if err := writeRow(f, sheet, 1, toAny(scheduleColumns)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(scheduleColumns), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for i, b := range day {
		if err := writeRow(f, sheet, i+2, bookingRowValues(&b, catalog)); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// sheetName truncates to the 31-char Excel sheet name limit.
func sheetName(date string) string {
	name := "Schedule " + date
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return fmt.Errorf("write cell %s: %w", cell, err)
		}
	}
	return nil
}

func bookingRowValues(b *models.Booking, catalog *config.ServicesConfig) []interface{} {
	serviceName := b.ServiceID
	price := 0.0
	duration := 0
	if svc := catalog.ByID(b.ServiceID); svc != nil {
		serviceName = svc.Name
		price = svc.Price
		duration = svc.Duration
	}
	return []interface{}{
		b.Time,
		b.CustomerName,
		b.CustomerPhone,
		serviceName,
		price,
		duration,
		b.Notes,
		b.Status,
	}
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
