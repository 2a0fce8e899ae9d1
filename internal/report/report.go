// Package report renders spreadsheet exports.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/inovacc/finzana/internal/model"
	"github.com/inovacc/finzana/internal/rules"
	"github.com/xuri/excelize/v2"
)

// DelinquentSheet is the worksheet name of the delinquency export.
const DelinquentSheet = "Cartera vencida"

var delinquentHeaders = []string{
	"Crédito", "CURP", "Cliente", "Monto", "Plazo", "Fecha", "Vencimiento", "Pago semanal", "Días vencido",
}

// Delinquent writes the delinquent credits as an XLSX workbook. names maps
// a CURP to the client's name and may be nil.
func Delinquent(w io.Writer, rows []rules.Delinquency, names map[string]string, asOf time.Time) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(DelinquentSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	f.SetActiveSheet(index)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SetCellValue(DelinquentSheet, "A1", "Corte al "+model.FormatDate(asOf)); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, header := range delinquentHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(DelinquentSheet, cell, header); err != nil {
			return err
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(delinquentHeaders), 2)
	if err := f.SetCellStyle(DelinquentSheet, "A2", last, bold); err != nil {
		return err
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	for i, d := range rows {
		row := i + 3
		c := d.Credit

		monto, _ := c.Monto.Float64()
		weekly, _ := c.PagoSemanal.Float64()

		values := []any{
			c.ID,
			d.Client,
			names[d.Client],
			monto,
			c.Plazo,
			model.FormatDate(c.Fecha),
			model.FormatDate(c.Vencimiento),
			weekly,
			d.Days,
		}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(DelinquentSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}

		if err := f.SetCellStyle(DelinquentSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), money); err != nil {
			return err
		}

		if err := f.SetCellStyle(DelinquentSheet, fmt.Sprintf("H%d", row), fmt.Sprintf("H%d", row), money); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(DelinquentSheet, "A", "C", 22); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}
