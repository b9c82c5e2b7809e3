package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"mlsync/internal"
)

// ParseWorkbookFile reads every worksheet of an xlsx file into Sheets. The
// first row of each sheet is the header; sheets without at least one data row
// are dropped. Missing cells default to "" and duplicate rows are kept in
// file order.
func ParseWorkbookFile(path string) ([]internal.Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseSheets(f)
}

// ParseWorkbook is the reader variant, used for uploaded files.
func ParseWorkbook(r io.Reader) ([]internal.Sheet, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseSheets(f)
}

func parseSheets(f *excelize.File) ([]internal.Sheet, error) {
	sheets := make([]internal.Sheet, 0, len(f.GetSheetList()))
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if len(rows) < 2 {
			continue
		}

		columns := make([]string, len(rows[0]))
		for i, col := range rows[0] {
			columns[i] = strings.TrimSpace(col)
		}

		data := make([]internal.Row, 0, len(rows)-1)
		for _, raw := range rows[1:] {
			row := internal.Row{}
			for i, col := range columns {
				if col == "" {
					continue
				}
				if i < len(raw) {
					row[col] = raw[i]
				} else {
					row[col] = ""
				}
			}
			data = append(data, row)
		}
		sheets = append(sheets, internal.Sheet{Name: name, Columns: columns, Rows: data})
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheet with data rows")
	}
	return sheets, nil
}

// FindMarketplaceSheet picks the sheet carrying the Mercado Libre listing
// report, identified by its item-identifier or SKU column.
func FindMarketplaceSheet(sheets []internal.Sheet) (internal.Sheet, error) {
	for _, s := range sheets {
		if hasColumn(s, "ITEM_ID") || hasColumn(s, "SKU") {
			return s, nil
		}
	}
	return internal.Sheet{}, fmt.Errorf("no sheet looks like a Mercado Libre report (missing ITEM_ID/SKU column)")
}

// FindInventorySheet picks the sheet carrying the Odoo inventory/price
// report, identified by its internal-reference column.
func FindInventorySheet(sheets []internal.Sheet) (internal.Sheet, error) {
	for _, s := range sheets {
		if hasColumn(s, "Código Neored") || hasColumn(s, "Referencia interna") {
			return s, nil
		}
	}
	return internal.Sheet{}, fmt.Errorf("no sheet looks like an Odoo report (missing Código Neored/Referencia interna column)")
}

func hasColumn(s internal.Sheet, name string) bool {
	for _, col := range s.Columns {
		if col == name {
			return true
		}
	}
	return false
}
