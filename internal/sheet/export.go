package sheet

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/xuri/excelize/v2"
)

// HistorySheet is the worksheet name of history exports.
const HistorySheet = "Historial"

// ContentType is the MIME type of xlsx workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var historyHeaders = []string{
	"id", "Orden de compra", "Cliente", "Canal", "SO", "Factura", "Fecha Entrega", "Horario",
	"Estado Final", "Fecha Archivado", "Localidad Destino", "No. Botellas", "No. Cajas",
	"Subtotal", "Notas",
}

// HistoryFilename returns the download name of an export made at t.
func HistoryFilename(t time.Time) string {
	return "historial_logistica_" + t.Format("2006-01-02") + ".xlsx"
}

func historyRow(h order.HistoryEntry) []any {
	subtotal, _ := h.Subtotal.Float64()
	return []any{
		h.ID, h.Ref, h.Client, h.Channel, h.SalesOrder, h.Invoice, h.DeliveryDate, h.DeliveryTime,
		h.FinalStatus.Label(), h.ArchivedAt.Format("2006-01-02 15:04"), h.Destination,
		h.Bottles, h.Cases, subtotal, h.Notes,
	}
}

// WriteHistory writes entries as an xlsx workbook. Each column is as wide as its
// longest value plus two.
func WriteHistory(w io.Writer, entries []order.HistoryEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	widths := make([]int, len(historyHeaders))
	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[col] {
			widths[col] = n
		}
		return f.SetCellValue(HistorySheet, cell, v)
	}

	for i, h := range historyHeaders {
		if err := set(i, 1, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for r, entry := range entries {
		for c, v := range historyRow(entry) {
			if err := set(c, r+2, v); err != nil {
				return fmt.Errorf("writing row %d: %w", r+2, err)
			}
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(HistorySheet, col, col, float64(width+2)); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
