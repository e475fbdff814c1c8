package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dealboard/internal/market"
	"github.com/sells-group/dealboard/internal/model"
)

// Output formats accepted by Write.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatXLSX  = "xlsx"
)

var header = []string{"id", "title", "city", "category", "risk", "price", "cap_rate_pct", "discount_pct", "score", "scale"}

// Write renders scored deals in format.
func Write(w io.Writer, format string, deals []model.ScoredProperty) error {
	switch format {
	case FormatTable, "":
		return WriteTable(w, deals)
	case FormatCSV:
		return WriteCSV(w, deals)
	case FormatXLSX:
		return WriteXLSX(w, deals)
	}
	return eris.Errorf("sheet: unsupported format %q", format)
}

// WriteCSV writes one header row and one row per deal. Missing optional
// values are empty cells.
func WriteCSV(w io.Writer, deals []model.ScoredProperty) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "sheet: write CSV header")
	}
	for i := range deals {
		if err := cw.Write(record(&deals[i])); err != nil {
			return eris.Wrap(err, "sheet: write CSV row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "sheet: flush CSV")
}

// WriteXLSX writes a single "Deals" worksheet with numeric cells.
func WriteXLSX(w io.Writer, deals []model.ScoredProperty) error {
	f := xlsx.NewFile()
	ws, err := f.AddSheet("Deals")
	if err != nil {
		return eris.Wrap(err, "sheet: add worksheet")
	}

	row := ws.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}

	for i := range deals {
		d := &deals[i]
		row := ws.AddRow()
		row.AddCell().SetString(d.ID)
		row.AddCell().SetString(d.Title)
		row.AddCell().SetString(d.City)
		row.AddCell().SetString(string(d.Category))
		row.AddCell().SetString(string(d.Risk))
		row.AddCell().SetFloat(d.Price)
		addOptFloat(row, capRatePct(d.CapRate))
		addOptFloat(row, d.DiscountPct)
		row.AddCell().SetFloat(d.Score)
		row.AddCell().SetString(string(d.ScoreScale))
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "sheet: write xlsx")
	}
	return nil
}

func addOptFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

// WriteTable writes a fixed-width text table with formatted money.
func WriteTable(w io.Writer, deals []model.ScoredProperty) error {
	if _, err := fmt.Fprintf(w, "%-10s %-32s %-12s %-20s %-7s %16s %7s %9s %7s\n",
		"ID", "Title", "City", "Category", "Risk", "Price", "Cap %", "Disc %", "Score"); err != nil {
		return eris.Wrap(err, "sheet: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 128)); err != nil {
		return eris.Wrap(err, "sheet: write table separator")
	}

	for i := range deals {
		d := &deals[i]
		title := d.Title
		if len(title) > 32 {
			title = title[:29] + "..."
		}
		line := fmt.Sprintf("%-10s %-32s %-12s %-20s %-7s %16s %7s %9s %7.2f\n",
			d.ID, title, d.City, d.Category, d.Risk,
			market.FormatMoney(d.Price, d.Currency),
			pctOrDash(capRatePct(d.CapRate)), pctOrDash(d.DiscountPct), d.Score)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "sheet: write table row")
		}
	}
	return nil
}

func record(d *model.ScoredProperty) []string {
	return []string{
		d.ID,
		d.Title,
		d.City,
		string(d.Category),
		string(d.Risk),
		strconv.FormatFloat(d.Price, 'f', -1, 64),
		optFloat(capRatePct(d.CapRate)),
		optFloat(d.DiscountPct),
		strconv.FormatFloat(d.Score, 'f', 2, 64),
		string(d.ScoreScale),
	}
}

func capRatePct(v *float64) *float64 {
	if v == nil {
		return nil
	}
	pct := *v * 100
	return &pct
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func pctOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
