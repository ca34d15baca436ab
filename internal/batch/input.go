// Package batch reads business lists from CSV and XLSX files for bulk
// scanning. Column headers are matched case-insensitively and rows without
// a business name are skipped.
package batch

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/presence-scanner/internal/model"
)

// columnFor maps recognized header names to input fields.
var columnFor = map[string]string{
	"business_name": "name",
	"name":          "name",
	"company":       "name",
	"phone":         "phone",
	"phone_number":  "phone",
	"website":       "website",
	"url":           "website",
	"address":       "address",
	"city":          "city",
	"country":       "country",
	"email":         "email",
}

// ReadFile dispatches on the file extension. .xlsx files go through the
// spreadsheet reader; everything else is treated as CSV.
func ReadFile(path string) ([]model.BusinessInput, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}
	return ReadCSV(path)
}

// ReadCSV parses a CSV file with a header row into business inputs.
func ReadCSV(path string) ([]model.BusinessInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv header")
	}
	fields := headerFields(header)

	var inputs []model.BusinessInput
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read csv row")
		}
		if input, ok := rowToInput(fields, record); ok {
			inputs = append(inputs, input)
		}
	}
	return inputs, nil
}

// ReadXLSX parses the first sheet of an XLSX file into business inputs.
func ReadXLSX(path string) ([]model.BusinessInput, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("batch: xlsx has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("batch: xlsx sheet is empty")
	}

	fields := headerFields(rowStrings(sheet.Rows[0]))

	var inputs []model.BusinessInput
	for _, row := range sheet.Rows[1:] {
		if input, ok := rowToInput(fields, rowStrings(row)); ok {
			inputs = append(inputs, input)
		}
	}
	return inputs, nil
}

func rowStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}

// headerFields resolves each column index to a known field name, or "" for
// unrecognized columns.
func headerFields(header []string) []string {
	fields := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		fields[i] = columnFor[key]
	}
	return fields
}

func rowToInput(fields, record []string) (model.BusinessInput, bool) {
	var input model.BusinessInput
	for i, field := range fields {
		if i >= len(record) {
			break
		}
		val := strings.TrimSpace(record[i])
		switch field {
		case "name":
			input.Name = val
		case "phone":
			input.Phone = val
		case "website":
			input.Website = val
		case "address":
			input.Address = val
		case "city":
			input.City = val
		case "country":
			input.Country = val
		case "email":
			input.Email = val
		}
	}
	return input, input.Name != ""
}
