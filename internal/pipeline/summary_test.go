package pipeline

import (
	"testing"

	"mlsync/internal"
)

func TestSummarize(t *testing.T) {
	rows := []internal.ReconciledRow{
		{FinalPrice: 100, PrevMLPrice: 100, PublishedStock: 5, PrevMLStock: 5, Notes: "OK"},
		{FinalPrice: 150, PrevMLPrice: 100, PublishedStock: 5, PrevMLStock: 5, Notes: "OK"},
		{FinalPrice: 100.5, PrevMLPrice: 100, PublishedStock: 3, PrevMLStock: 5, Notes: "OK"},
		{FinalPrice: 0, PrevMLPrice: 100, PublishedStock: 0, PrevMLStock: 2, Notes: "SKU no encontrado en Odoo"},
		{FinalPrice: 100, PrevMLPrice: 100, PublishedStock: 5, PrevMLStock: 5, Notes: "Tarifa 0 o faltante"},
	}

	s := Summarize(rows)
	if s.Total != 5 {
		t.Fatalf("total=%d", s.Total)
	}
	if s.NotSynced != 1 || s.Synced != 4 {
		t.Fatalf("synced=%d notSynced=%d", s.Synced, s.NotSynced)
	}
	// rows 2 and 4 move more than one currency unit; row 3 moves only 0.5
	if s.PriceChanged != 2 {
		t.Fatalf("priceChanged=%d", s.PriceChanged)
	}
	if s.StockChanged != 2 {
		t.Fatalf("stockChanged=%d", s.StockChanged)
	}
	if s.Warnings != 2 {
		t.Fatalf("warnings=%d", s.Warnings)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s != (internal.Summary{}) {
		t.Fatalf("summary=%+v", s)
	}
}
