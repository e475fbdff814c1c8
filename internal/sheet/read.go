// Package sheet imports deals from spreadsheets and exports scored deal
// lists as a text table, CSV or XLSX.
package sheet

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dealboard/internal/model"
)

// XLSXOptions selects the worksheet to read.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads every row of one worksheet as strings.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

// ReadCSV reads all records from r. Rows may have differing lengths.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read")
	}
	return rows, nil
}

// ReadFile dispatches on extension: .xlsx or .csv.
func ReadFile(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{})
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(f)
	}
	return nil, eris.Errorf("sheet: unsupported file type %q", filepath.Ext(path))
}

type setter func(p *model.Property, v string) error

// columns maps a normalized header to the field it fills.
var columns = map[string]setter{
	"id":               func(p *model.Property, v string) error { p.ID = v; return nil },
	"title":            func(p *model.Property, v string) error { p.Title = v; return nil },
	"company":          func(p *model.Property, v string) error { p.Company = v; return nil },
	"address":          func(p *model.Property, v string) error { p.Address = v; return nil },
	"city":             func(p *model.Property, v string) error { p.City = v; return nil },
	"state":            func(p *model.Property, v string) error { p.State = v; return nil },
	"country":          func(p *model.Property, v string) error { p.Country = v; return nil },
	"marketid":         func(p *model.Property, v string) error { p.MarketID = v; return nil },
	"currency":         func(p *model.Property, v string) error { p.Currency = v; return nil },
	"description":      func(p *model.Property, v string) error { p.Description = v; return nil },
	"status":           func(p *model.Property, v string) error { p.Status = model.DealStatus(v); return nil },
	"risk":             func(p *model.Property, v string) error { p.Risk = model.Risk(strings.ToLower(v)); return nil },
	"category":         func(p *model.Property, v string) error { p.Category = model.Category(strings.ToLower(v)); return nil },
	"lat":              func(p *model.Property, v string) error { return setFloat(&p.Lat, v) },
	"lng":              func(p *model.Property, v string) error { return setFloat(&p.Lng, v) },
	"price":            func(p *model.Property, v string) error { return setFloat(&p.Price, v) },
	"noi":              func(p *model.Property, v string) error { return setOptFloat(&p.NOI, v) },
	"caprate":          func(p *model.Property, v string) error { return setOptFloat(&p.CapRate, v) },
	"marketcaprate":    func(p *model.Property, v string) error { return setOptFloat(&p.MarketCapRate, v) },
	"aiestimatedvalue": func(p *model.Property, v string) error { return setOptFloat(&p.AIEstimatedValue, v) },
	"discountpct":      func(p *model.Property, v string) error { return setOptFloat(&p.DiscountPct, v) },
	"bedrooms":         func(p *model.Property, v string) error { return setOptInt(&p.Bedrooms, v) },
	"bathrooms":        func(p *model.Property, v string) error { return setOptFloat(&p.Bathrooms, v) },
	"sqft":             func(p *model.Property, v string) error { return setOptFloat(&p.Sqft, v) },
	"yearbuilt":        func(p *model.Property, v string) error { return setOptInt(&p.YearBuilt, v) },
	"createdat":        func(p *model.Property, v string) error { return setTime(&p.CreatedAt, v) },
}

func normalizeHeader(h string) string {
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(h)))
}

// ParseDeals converts rows into validated properties. The first row is the
// header; unknown columns are ignored and blank cells leave a field unset.
func ParseDeals(rows [][]string) ([]model.Property, error) {
	if len(rows) == 0 {
		return nil, eris.New("sheet: no header row")
	}

	set := make([]setter, len(rows[0]))
	known := 0
	for i, h := range rows[0] {
		if fn, ok := columns[normalizeHeader(h)]; ok {
			set[i] = fn
			known++
		}
	}
	if known == 0 {
		return nil, eris.New("sheet: header has no recognized columns")
	}

	deals := make([]model.Property, 0, len(rows)-1)
	for r, row := range rows[1:] {
		if blank(row) {
			continue
		}
		var p model.Property
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if i >= len(set) || set[i] == nil || cell == "" {
				continue
			}
			if err := set[i](&p, cell); err != nil {
				return nil, &model.ValidationError{
					Field:   rows[0][i],
					Message: "row " + strconv.Itoa(r+2) + ": " + err.Error(),
				}
			}
		}
		deals = append(deals, p)
	}

	if err := model.ValidateAll(deals); err != nil {
		return nil, err
	}
	return deals, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts thousands separators and a leading currency sign.
func parseNumber(v string) (float64, error) {
	v = strings.TrimLeft(v, "$£€₹")
	v = strings.ReplaceAll(v, ",", "")
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

func setFloat(dst *float64, v string) error {
	f, err := parseNumber(v)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setOptFloat(dst **float64, v string) error {
	f, err := parseNumber(v)
	if err != nil {
		return err
	}
	*dst = &f
	return nil
}

func setTime(dst *time.Time, v string) error {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		t, err = time.Parse(time.DateOnly, v)
	}
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

func setOptInt(dst **int, v string) error {
	f, err := parseNumber(v)
	if err != nil {
		return err
	}
	n := int(f)
	*dst = &n
	return nil
}
