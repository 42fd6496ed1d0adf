package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheetName string, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheetName))
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheetName, cell, v))
		}
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		" Orden de compra ":  "orden_compra",
		"Fecha de entrega":   "fecha_entrega",
		"No. Botellas":       "no_botellas",
		"Localidad Destino":  "localidad_destino",
		"SO":                 "so",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestParseDate(t *testing.T) {
	require.Equal(t, "2026-05-14", ParseDate("14/05/2026"))
	require.Equal(t, "2026-05-04", ParseDate("4/5/2026"))
	require.Equal(t, "2026-05-14", ParseDate("2026-05-14"))
	require.Equal(t, "2026-05-14", ParseDate("14-05-2026"))
	require.Equal(t, "2024-01-01", ParseDate("45292"))
	require.Equal(t, order.DateUnassigned, ParseDate(""))
	require.Equal(t, order.DateUnassigned, ParseDate("soon"))
}

func TestRefOf(t *testing.T) {
	require.Equal(t, "OC-1", RefOf("OC-1", "SO-1"))
	require.Equal(t, "SO-1", RefOf("", "SO-1"))
	require.Equal(t, "SO-1", RefOf("nan", "SO-1"))
	require.Equal(t, "4500123", RefOf("4500123", ""))
	require.Empty(t, RefOf("nan", ""))
}

func TestTitleCase(t *testing.T) {
	require.Equal(t, "Retail", TitleCase("  RETAIL "))
	require.Equal(t, "Venta Directa", TitleCase("venta directa"))
	require.Empty(t, TitleCase(""))
}

func TestParseGeneral(t *testing.T) {
	buf := workbook(t, DefaultSheet, [][]any{
		{"Orden de compra", "SO", "Cliente", "Canal", "Fecha de entrega", "Horario",
			"Localidad Destino", "No. Botellas", "No. Cajas", "Subtotal", "Estatus", "Factura"},
		{"OC-1", "SO-1", "Acme", "retail", "14/05/2026", "09:30", "Santiago", 12, 2, 150.5, "", "F-1"},
		{"", "SO-2", "Beta", "WHOLESALE", "", "", "Talca", "", "", "$1,200.00", "", ""},
		{"OC-3", "", "Gamma", "Retail", "15/05/2026", "", "", 1, 1, 10, "Entregado", ""},
		{"", "", "Nobody", "Retail", "", "", "", "", "", "", "", ""},
	})

	orders, err := ParseGeneral(buf, "")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	require.Equal(t, "OC-1", first.Ref)
	require.Equal(t, "SO-1", first.SalesOrder)
	require.Equal(t, "Retail", first.Channel)
	require.Equal(t, "2026-05-14", first.DeliveryDate)
	require.Equal(t, "09:30", first.DeliveryTime)
	require.Equal(t, 12, first.Bottles)
	require.Equal(t, 2, first.Cases)
	require.True(t, decimal.RequireFromString("150.5").Equal(first.Subtotal))
	require.Equal(t, "F-1", first.Invoice)

	second := orders[1]
	require.Equal(t, "SO-2", second.Ref)
	require.Equal(t, "Wholesale", second.Channel)
	require.Equal(t, order.DateUnassigned, second.DeliveryDate)
	require.True(t, decimal.RequireFromString("1200").Equal(second.Subtotal))
}

func TestParseGeneral_MissingSheet(t *testing.T) {
	buf := workbook(t, "Other", [][]any{{"SO"}, {"SO-1"}})
	_, err := ParseGeneral(buf, DefaultSheet)
	require.Error(t, err)
}

func TestParseRows_TimeFraction(t *testing.T) {
	orders := ParseRows([][]string{
		{"SO", "Horario"},
		{"SO-1", "0.375"},
	})
	require.Len(t, orders, 1)
	require.Equal(t, "09:00", orders[0].DeliveryTime)
}

func TestWriteHistory(t *testing.T) {
	entries := []order.HistoryEntry{{
		ID:           7,
		Ref:          "OC-1",
		Client:       "Acme Distribution",
		Channel:      "Retail",
		DeliveryDate: "2026-05-14",
		Destination:  "Santiago",
		Bottles:      12,
		Cases:        2,
		Subtotal:     decimal.RequireFromString("150.50"),
		FinalStatus:  order.StatusDelivered,
		Notes:        "ok",
		ArchivedAt:   time.Date(2026, 5, 14, 18, 5, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(HistorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Orden de compra", rows[0][1])
	require.Equal(t, "OC-1", rows[1][1])
	require.Equal(t, "Delivered", rows[1][8])
	require.Equal(t, "2026-05-14 18:05", rows[1][9])

	width, err := f.GetColWidth(HistorySheet, "C")
	require.NoError(t, err)
	require.Equal(t, float64(len("Acme Distribution")+2), width)
}

func TestHistoryFilename(t *testing.T) {
	at := time.Date(2026, 5, 14, 23, 0, 0, 0, time.UTC)
	require.Equal(t, "historial_logistica_2026-05-14.xlsx", HistoryFilename(at))
}
