package pipeline

import (
	"math"
	"strings"

	"mlsync/internal"
)

// priceChangeThreshold is an absolute currency-unit difference, not relative.
const priceChangeThreshold = 1.0

// Summarize folds a run's output into dashboard counts. Single pass, no
// mutation of the input.
func Summarize(rows []internal.ReconciledRow) internal.Summary {
	s := internal.Summary{Total: len(rows)}
	for _, row := range rows {
		if strings.Contains(row.Notes, "SKU no encontrado") {
			s.NotSynced++
		}
		if math.Abs(row.FinalPrice-row.PrevMLPrice) > priceChangeThreshold {
			s.PriceChanged++
		}
		if float64(row.PublishedStock) != row.PrevMLStock {
			s.StockChanged++
		}
		if row.Notes != notesOK {
			s.Warnings++
		}
	}
	s.Synced = s.Total - s.NotSynced
	return s
}
