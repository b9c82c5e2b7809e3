package pipeline

import (
	"path/filepath"
	"testing"

	"mlsync/internal"
)

func TestExportBackupRoundtrip(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "backup.xlsx")

	weights := []internal.WeightEntry{
		{SKU: "SKU-1", Product: "Producto uno", WeightKg: 0.75},
		{SKU: "SKU-2", Product: "Producto dos", WeightKg: 1.5},
	}
	rates := []internal.ShippingRate{
		{MaxWeightKg: 0.5, Cost: 5500},
		{MaxWeightKg: 1.0, Cost: 6800},
	}

	if err := ExportBackup(weights, rates, out); err != nil {
		t.Fatal(err)
	}

	sheets, err := ParseWorkbookFile(out)
	if err != nil {
		t.Fatal(err)
	}
	gotWeights, gotRates, err := ParseBackup(sheets)
	if err != nil {
		t.Fatal(err)
	}

	if len(gotWeights) != 2 || gotWeights[0].SKU != "SKU-1" || gotWeights[0].WeightKg != 0.75 {
		t.Fatalf("weights=%+v", gotWeights)
	}
	if gotWeights[1].Product != "Producto dos" {
		t.Fatalf("product=%q", gotWeights[1].Product)
	}
	if len(gotRates) != 2 || gotRates[1].MaxWeightKg != 1.0 || gotRates[1].Cost != 6800 {
		t.Fatalf("rates=%+v", gotRates)
	}
}

func TestParseBackupFilters(t *testing.T) {
	sheets := []internal.Sheet{
		mkSheet("Base de Pesos", []string{"SKU", "PRODUCTO", "PESO"},
			[]any{"SKU-1", "ok", "2"},
			[]any{"", "dropped", "1"},
		),
		mkSheet("Escalas Tarifarias", []string{"Hasta Kg", "Costo"},
			[]any{"1", "6800"},
			[]any{"0", "999"},
		),
	}

	weights, rates, err := ParseBackup(sheets)
	if err != nil {
		t.Fatal(err)
	}
	if len(weights) != 1 || weights[0].SKU != "SKU-1" {
		t.Fatalf("weights=%+v", weights)
	}
	if len(rates) != 1 || rates[0].MaxWeightKg != 1 {
		t.Fatalf("rates=%+v", rates)
	}
}

func TestParseBackupUnrecognized(t *testing.T) {
	sheets := []internal.Sheet{mkSheet("Otra", []string{"A"}, []any{"1"})}
	if _, _, err := ParseBackup(sheets); err == nil {
		t.Fatal("expected error for unrecognized backup")
	}
}

func TestParseWeightsSheet(t *testing.T) {
	sheets := []internal.Sheet{
		mkSheet("Sin SKU", []string{"X"}, []any{"1"}),
		mkSheet("Pesos", []string{"SKU", "Producto", "Peso"},
			[]any{"SKU-1", "uno", "0,5"},
			[]any{"SKU-2", "dos", "0"},
		),
	}

	got, err := ParseWeightsSheet(sheets)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SKU != "SKU-1" || got[0].WeightKg != 0.5 {
		t.Fatalf("weights=%+v", got)
	}
}

func TestMergeWeights(t *testing.T) {
	existing := []internal.WeightEntry{
		{SKU: "A", WeightKg: 1},
		{SKU: "B", WeightKg: 2},
	}
	incoming := []internal.WeightEntry{
		{SKU: "B", WeightKg: 5},
		{SKU: "C", WeightKg: 3},
	}

	merged := MergeWeights(existing, incoming)
	if len(merged) != 3 {
		t.Fatalf("len=%d", len(merged))
	}
	if merged[0].SKU != "A" || merged[1].SKU != "B" || merged[2].SKU != "C" {
		t.Fatalf("order=%+v", merged)
	}
	if merged[1].WeightKg != 5 {
		t.Fatalf("upsert lost: %+v", merged[1])
	}
}

func TestExportResultsHeaders(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "result.xlsx")

	rows := []internal.ReconciledRow{{
		SKU: "SKU-1", ItemID: "MLA1", Description: "Producto",
		FinalPrice: 1111.11, FeePercent: 10, Notes: "OK",
	}}
	if err := ExportResults(rows, out); err != nil {
		t.Fatal(err)
	}

	sheets, err := ParseWorkbookFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if sheets[0].Name != "Reporte Sincronizacion" {
		t.Fatalf("sheet=%q", sheets[0].Name)
	}
	for _, h := range []string{"Numero de publicación", "Recibis ($)", "Notas-Flags"} {
		if !hasColumn(sheets[0], h) {
			t.Fatalf("missing header %q", h)
		}
	}
	if got := sheets[0].Rows[0]["% ML aplicado"]; got != "10.00%" {
		t.Fatalf("fee column=%v", got)
	}
}
