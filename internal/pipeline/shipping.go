package pipeline

import (
	"fmt"
	"sort"

	"mlsync/internal"
)

// ResolveShipping picks the surcharge for a product weight from a tier table.
// The table may arrive empty or unsorted; it is sorted on a copy, ascending by
// max weight, and the first tier covering the weight wins. A weight beyond the
// highest tier degrades to that tier's cost with a warning instead of failing.
func ResolveShipping(weightKg float64, tiers []internal.ShippingRate) (float64, string) {
	if weightKg <= 0 {
		return 0, ""
	}
	if len(tiers) == 0 {
		return 0, "Base de pesos activa sin escalas"
	}

	sorted := make([]internal.ShippingRate, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MaxWeightKg < sorted[j].MaxWeightKg })

	for _, tier := range sorted {
		if weightKg <= tier.MaxWeightKg {
			return tier.Cost, ""
		}
	}
	return sorted[len(sorted)-1].Cost, fmt.Sprintf("Peso (%gkg) excede escalas", weightKg)
}
