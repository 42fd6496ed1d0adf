// Package sheet reads the logistics workbook and writes history exports.
package sheet

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet orders are imported from.
const DefaultSheet = "General"

// Normalised column names.
const (
	colPurchaseOrder = "orden_compra"
	colSalesOrder    = "so"
	colClient        = "cliente"
	colChannel       = "canal"
	colDeliveryDate  = "fecha_entrega"
	colStatus        = "estatus"
	colInvoice       = "factura"
	colTime          = "horario"
	colDestination   = "localidad_destino"
	colBottles       = "no_botellas"
	colCases         = "no_cajas"
	colSubtotal      = "subtotal"
)

var headerAliases = map[string]string{
	"orden_de_compra":  colPurchaseOrder,
	"fecha_de_entrega": colDeliveryDate,
}

// NormalizeHeader trims and lower-cases a column title, turns spaces into
// underscores and drops dots. Known aliases map to their canonical name.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, ".", "")
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}

// ParseGeneral reads active orders from a workbook sheet. Rows with a non-empty
// estatus or without a purchase or sales order are dropped. An empty sheet name
// reads DefaultSheet.
func ParseGeneral(r io.Reader, sheetName string) ([]order.Order, error) {
	if sheetName == "" {
		sheetName = DefaultSheet
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheetName, err)
	}
	return ParseRows(rows), nil
}

// ParseRows converts raw sheet rows, header first, into orders.
func ParseRows(rows [][]string) []order.Order {
	if len(rows) == 0 {
		return []order.Order{}
	}
	index := map[string]int{}
	for i, h := range rows[0] {
		name := NormalizeHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := []order.Order{}
	for _, row := range rows[1:] {
		if cell(row, colStatus) != "" {
			continue
		}
		ref := RefOf(cell(row, colPurchaseOrder), cell(row, colSalesOrder))
		if ref == "" {
			continue
		}
		out = append(out, order.Order{
			Ref:          ref,
			Client:       cell(row, colClient),
			Channel:      TitleCase(cell(row, colChannel)),
			SalesOrder:   cleanID(cell(row, colSalesOrder)),
			Invoice:      cleanID(cell(row, colInvoice)),
			DeliveryDate: ParseDate(cell(row, colDeliveryDate)),
			DeliveryTime: parseTime(cell(row, colTime)),
			Destination:  cell(row, colDestination),
			Bottles:      parseInt(cell(row, colBottles)),
			Cases:        parseInt(cell(row, colCases)),
			Subtotal:     parseMoney(cell(row, colSubtotal)),
		})
	}
	return out
}

// RefOf returns the purchase order, falling back to the sales order.
func RefOf(purchaseOrder, salesOrder string) string {
	if po := cleanID(purchaseOrder); po != "" {
		return po
	}
	return cleanID(salesOrder)
}

func cleanID(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	// Numeric identifiers come back from raw cells as floats.
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == math.Trunc(f) && !strings.ContainsAny(v, "eE") {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return v
}

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/06",
	"2/1/06",
}

// ParseDate parses a day-first date or an Excel serial into YYYY-MM-DD.
// Anything else is order.DateUnassigned.
func ParseDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return order.DateUnassigned
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if serial < 1 {
			return order.DateUnassigned
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return order.DateUnassigned
		}
		return t.Format("2006-01-02")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return order.DateUnassigned
}

// parseTime keeps text times and converts Excel day fractions to HH:MM.
func parseTime(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f >= 1 {
		return v
	}
	minutes := int(math.Round(f * 24 * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func parseInt(v string) int {
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return int(math.Round(f))
}

func parseMoney(v string) decimal.Decimal {
	v = strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
