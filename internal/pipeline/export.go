package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"mlsync/internal"
	"mlsync/internal/util"
)

const (
	resultSheetName  = "Reporte Sincronizacion"
	weightsSheetName = "Base de Pesos"
	ratesSheetName   = "Escalas Tarifarias"
)

// resultHeaders is the fixed, explicit column contract of the sync report.
// Order and wording must not change: downstream tooling consumes it as-is.
var resultHeaders = []string{
	"Numero de publicación",
	"SKU",
	"Descripción del producto",
	"Stock",
	"% Stock",
	"Precio de Tarifa",
	"Precio final",
	"IVA",
	"Recargo % ML (importe)",
	"Recargo fijo ML ($)",
	"Cargo por vender ($)",
	"Recargo financiación (importe)",
	"Retenciones ML ($)",
	"Recibis ($)",
	"Recargo envío ($)",
	"% ML aplicado",
	"% financiación aplicado",
	"Tipo de publicación",
	"Precio actual en ML",
	"Peso",
	"Moneda",
	"Notas-Flags",
}

// ExportResults renders reconciled rows into a downloadable spreadsheet with
// auto-sized column widths.
func ExportResults(rows []internal.ReconciledRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, resultSheetName); err != nil {
		return err
	}
	sheet = resultSheetName

	for i, h := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	widths := make([]int, len(resultHeaders))
	for i, h := range resultHeaders {
		widths[i] = len(h)
	}

	for r, row := range rows {
		values := resultRowValues(row)
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
			if l := len(fmt.Sprint(v)); l > widths[c] {
				widths[c] = l
			}
		}
	}

	for i, h := range resultHeaders {
		width := float64(widths[i] + 2)
		if width > 80 {
			width = 80
		}
		if h == "Descripción del producto" {
			width = 50
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, width)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func resultRowValues(row internal.ReconciledRow) []any {
	return []any{
		row.ItemID,
		row.SKU,
		row.Description,
		row.RealStock,
		row.PublishedStock,
		row.BaseCost,
		row.FinalPrice,
		row.EstimatedTax,
		util.Round2(row.FinalPrice * row.FeePercent / 100),
		row.FeeFixed,
		row.SellingFee,
		row.FinancingCost,
		row.RetentionCost,
		row.NetReceipt,
		row.ShippingSurcharge,
		fmt.Sprintf("%.2f%%", util.Round2(row.FeePercent)),
		fmt.Sprintf("%.2f%%", util.Round2(row.FinancingPercent)),
		row.ListingType,
		row.PrevMLPrice,
		row.WeightKg,
		row.Currency,
		row.Notes,
	}
}

// ExportBackup writes the two-sheet logistics backup. The headers (SKU,
// PRODUCTO, PESO and Hasta Kg, Costo) are a round-trip contract with
// ParseBackup and must stay verbatim.
func ExportBackup(weights []internal.WeightEntry, rates []internal.ShippingRate, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), weightsSheetName); err != nil {
		return err
	}
	if _, err := f.NewSheet(ratesSheetName); err != nil {
		return err
	}

	_ = f.SetCellValue(weightsSheetName, "A1", "SKU")
	_ = f.SetCellValue(weightsSheetName, "B1", "PRODUCTO")
	_ = f.SetCellValue(weightsSheetName, "C1", "PESO")
	for i, w := range weights {
		r := i + 2
		_ = f.SetCellValue(weightsSheetName, fmt.Sprintf("A%d", r), w.SKU)
		_ = f.SetCellValue(weightsSheetName, fmt.Sprintf("B%d", r), w.Product)
		_ = f.SetCellValue(weightsSheetName, fmt.Sprintf("C%d", r), w.WeightKg)
	}

	_ = f.SetCellValue(ratesSheetName, "A1", "Hasta Kg")
	_ = f.SetCellValue(ratesSheetName, "B1", "Costo")
	for i, rate := range rates {
		r := i + 2
		_ = f.SetCellValue(ratesSheetName, fmt.Sprintf("A%d", r), rate.MaxWeightKg)
		_ = f.SetCellValue(ratesSheetName, fmt.Sprintf("B%d", r), rate.Cost)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ParseBackup reads a previously exported backup. Sheets are recognized by
// case-insensitive substring on their names; weights with an empty SKU and
// rates with a non-positive max weight are dropped.
func ParseBackup(sheets []internal.Sheet) ([]internal.WeightEntry, []internal.ShippingRate, error) {
	var weights []internal.WeightEntry
	var rates []internal.ShippingRate
	foundWeights, foundRates := false, false
	now := time.Now().UTC().Format(time.RFC3339)

	for _, s := range sheets {
		lower := strings.ToLower(s.Name)
		switch {
		case strings.Contains(lower, "pesos"):
			foundWeights = true
			for _, row := range s.Rows {
				sku := cellString(row, "SKU")
				if sku == "" {
					continue
				}
				weights = append(weights, internal.WeightEntry{
					SKU:       sku,
					Product:   cellString(row, "PRODUCTO"),
					WeightKg:  cellNumber(row, "PESO"),
					UpdatedAt: now,
				})
			}
		case strings.Contains(lower, "tarifarias"), strings.Contains(lower, "escalas"):
			foundRates = true
			for _, row := range s.Rows {
				maxWeight := cellNumber(row, "Hasta Kg")
				if maxWeight <= 0 {
					continue
				}
				rates = append(rates, internal.ShippingRate{
					MaxWeightKg: maxWeight,
					Cost:        cellNumber(row, "Costo"),
				})
			}
		}
	}

	if !foundWeights && !foundRates {
		return nil, nil, fmt.Errorf("backup has neither a weights sheet nor a rates sheet")
	}
	return weights, rates, nil
}

// ParseWeightsSheet imports weight entries from a plain spreadsheet (first
// sheet with a SKU column). Used by the bulk import command.
func ParseWeightsSheet(sheets []internal.Sheet) ([]internal.WeightEntry, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, s := range sheets {
		if !hasColumn(s, "SKU") {
			continue
		}
		out := make([]internal.WeightEntry, 0, len(s.Rows))
		for _, row := range s.Rows {
			sku := cellString(row, "SKU")
			weight := cellNumber(row, "PESO", "Peso", "peso")
			if sku == "" || weight <= 0 {
				continue
			}
			out = append(out, internal.WeightEntry{
				SKU:       sku,
				Product:   cellString(row, "PRODUCTO", "Producto", "producto"),
				WeightKg:  weight,
				UpdatedAt: now,
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("no sheet with a SKU column")
}

// MergeWeights upserts incoming entries into the existing list by SKU.
// Existing order is preserved, new SKUs append at the end, last write wins.
func MergeWeights(existing, incoming []internal.WeightEntry) []internal.WeightEntry {
	out := make([]internal.WeightEntry, len(existing))
	copy(out, existing)
	position := make(map[string]int, len(out))
	for i, w := range out {
		position[w.SKU] = i
	}
	for _, w := range incoming {
		if i, ok := position[w.SKU]; ok {
			out[i] = w
			continue
		}
		position[w.SKU] = len(out)
		out = append(out, w)
	}
	return out
}
