package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"mlsync/internal"
	"mlsync/internal/storage"
)

func TestSmokeFilesToReport(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mlBlob := mkXLSX(t, testSheet{name: "Publicaciones", rows: [][]any{
		{"ITEM_ID", "SKU", "TITLE", "PRICE", "QUANTITY", "FEE_PER_SALE_MARKETPLACE_V2", "SHIPPING_METHOD", "CURRENCY_ID"},
		{"MLA100", "SKU-1", "Producto uno", 1000, 3, "13% + 0", "mercado envios", "ARS"},
		{"MLA101", "SKU-404", "Sin inventario", 500, 1, "13%", "", "ARS"},
	}})
	odooBlob := mkXLSX(t, testSheet{name: "Inventario", rows: [][]any{
		{"Código Neored", "Nombre", "Precio Tarifa", "Cantidad a mano", "Impuestos del cliente"},
		{"SKU-1", "Producto uno (Odoo)", 900, 12, "IVA 21%"},
	}})

	mlPath := filepath.Join(tmp, "ml.xlsx")
	odooPath := filepath.Join(tmp, "odoo.xlsx")
	if err := os.WriteFile(mlPath, mlBlob, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(odooPath, odooBlob, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := internal.CalcConfig{StockPercent: 100, SurchargeKind: internal.SurchargeFixed}
	out := filepath.Join(tmp, "sync.xlsx")
	svc := NewSyncService(db)
	result, err := svc.RunFiles(mlPath, odooPath, out, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if result.TraceID == "" {
		t.Fatal("no trace id")
	}
	if result.Summary.Total != 2 || result.Summary.NotSynced != 1 {
		t.Fatalf("summary=%+v", result.Summary)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].TraceID != result.TraceID {
		t.Fatalf("runs=%+v", runs)
	}
	if runs[0].Counts["total"] != 2 {
		t.Fatalf("counts=%+v", runs[0].Counts)
	}
}
