package storage

import (
	"path/filepath"
	"testing"

	"mlsync/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSeedDefaultRates(t *testing.T) {
	db := openTestDB(t)

	rates, err := db.ListRates()
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 3 {
		t.Fatalf("rates=%+v", rates)
	}
	if rates[0].MaxWeightKg != 0.5 || rates[0].Cost != 5500 {
		t.Fatalf("first tier=%+v", rates[0])
	}

	// A deliberate wipe survives reopen; the seed runs once per database.
	if err := db.ReplaceRates(nil); err != nil {
		t.Fatal(err)
	}
	if err := db.seedDefaultRates(); err != nil {
		t.Fatal(err)
	}
	rates, err = db.ListRates()
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 0 {
		t.Fatalf("reseeded after wipe: %+v", rates)
	}
}

func TestReplaceWeights(t *testing.T) {
	db := openTestDB(t)

	weights := []internal.WeightEntry{
		{SKU: "B", Product: "dos", WeightKg: 2, UpdatedAt: "2026-01-01T00:00:00Z"},
		{SKU: "A", Product: "uno", WeightKg: 1, UpdatedAt: "2026-01-01T00:00:00Z"},
		{SKU: "A", Product: "uno v2", WeightKg: 1.5, UpdatedAt: "2026-01-02T00:00:00Z"},
	}
	if err := db.ReplaceWeights(weights); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListWeights()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].SKU != "A" || got[0].WeightKg != 1.5 || got[0].Product != "uno v2" {
		t.Fatalf("duplicate did not collapse to last: %+v", got[0])
	}

	// full replace drops rows missing from the new payload
	if err := db.ReplaceWeights([]internal.WeightEntry{{SKU: "C", WeightKg: 3, UpdatedAt: "2026-01-03T00:00:00Z"}}); err != nil {
		t.Fatal(err)
	}
	got, err = db.ListWeights()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SKU != "C" {
		t.Fatalf("got=%+v", got)
	}
}

func TestDeleteWeight(t *testing.T) {
	db := openTestDB(t)

	if err := db.ReplaceWeights([]internal.WeightEntry{{SKU: "A", WeightKg: 1, UpdatedAt: "2026-01-01T00:00:00Z"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteWeight("A"); err != nil {
		t.Fatal(err)
	}
	got, err := db.ListWeights()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got=%+v", got)
	}
}

func TestRuns(t *testing.T) {
	db := openTestDB(t)

	counts := map[string]int{"total": 7, "synced": 6}
	timings := map[string]float64{"totalMs": 120}
	if err := db.InsertRun("trace-1", "ml.xlsx", "odoo.xlsx", counts, timings); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRun("trace-2", "upload", "upload", counts, timings); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].TraceID != "trace-2" {
		t.Fatalf("runs=%+v", runs)
	}
	if runs[1].Counts["total"] != 7 || runs[1].Timings["totalMs"] != 120 {
		t.Fatalf("run payload=%+v", runs[1])
	}

	runs, err = db.ListRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("limit ignored: %+v", runs)
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetMetadata("missing")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("v=%v", *v)
	}

	if err := db.SetMetadata("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, err = db.GetMetadata("k")
	if err != nil {
		t.Fatal(err)
	}
	if v == nil || *v != "v2" {
		t.Fatalf("v=%v", v)
	}
}
