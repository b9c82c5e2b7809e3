package pipeline

import (
	"fmt"
	"math"
	"strings"

	"mlsync/internal"
	"mlsync/internal/util"
)

// itemIDPrefix filters rows belonging to the Mercado Libre listing family.
const itemIDPrefix = "ML"

// Shipping-method vocabulary under which the seller carries the shipping
// cost. Matched verbatim on purpose: generalizing could silently change
// which rows receive a surcharge.
var surchargeMarkers = []string{"gratis", "mi cuenta", "self_service"}

const (
	noteSKUNotFound   = "SKU no encontrado en Odoo"
	noteZeroTariff    = "Tarifa 0 o faltante"
	noteOverHundred   = "ERROR: Porcentajes superan 100%"
	notesOK           = "OK"
	notesSeparator    = " | "
	defaultCurrencyID = "ARS"
)

// ValidateConfig checks whole-run preconditions on the configuration.
// Per-row problems never surface here; they become Notes tokens instead.
func ValidateConfig(cfg internal.CalcConfig) error {
	if cfg.StockPercent < 0 {
		return fmt.Errorf("stock percent must not be negative: %g", cfg.StockPercent)
	}
	if cfg.RetentionPercent < 0 || cfg.RetentionPercent > 100 {
		return fmt.Errorf("retention percent out of range [0,100]: %g", cfg.RetentionPercent)
	}
	switch cfg.SurchargeKind {
	case internal.SurchargeFixed, internal.SurchargePercent:
	default:
		return fmt.Errorf("unknown surcharge kind: %q", cfg.SurchargeKind)
	}
	return nil
}

// Reconcile joins marketplace rows to inventory rows by SKU and computes one
// priced output row per surviving marketplace row. Pure function of its
// inputs: reference tables are read-only snapshots and are never re-fetched
// mid-run. One bad row never aborts the batch.
func Reconcile(ml, odoo internal.Sheet, cfg internal.CalcConfig, weights []internal.WeightEntry, rates []internal.ShippingRate) ([]internal.ReconciledRow, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(ml.Columns) == 0 || len(ml.Rows) == 0 {
		return nil, fmt.Errorf("marketplace dataset %q is empty", ml.Name)
	}
	if len(odoo.Columns) == 0 || len(odoo.Rows) == 0 {
		return nil, fmt.Errorf("inventory dataset %q is empty", odoo.Name)
	}

	odooBySKU := indexBySKU(odoo)
	weightBySKU := make(map[string]float64, len(weights))
	for _, w := range weights {
		weightBySKU[w.SKU] = w.WeightKg
	}

	out := make([]internal.ReconciledRow, 0, len(ml.Rows))
	for _, row := range ml.Rows {
		itemID := cellString(row, "ITEM_ID")
		sku := strings.TrimSpace(cellString(row, "SKU", "seller_sku"))
		if !strings.HasPrefix(itemID, itemIDPrefix) || sku == "" {
			// Structural skip: not an error, the row simply does not
			// belong to this report.
			continue
		}
		out = append(out, reconcileRow(row, itemID, sku, odooBySKU[sku], weightBySKU[sku], cfg, rates))
	}
	return out, nil
}

func indexBySKU(odoo internal.Sheet) map[string]internal.Row {
	idx := make(map[string]internal.Row, len(odoo.Rows))
	for _, row := range odoo.Rows {
		sku := strings.TrimSpace(cellString(row, "Código Neored", "Referencia interna"))
		if sku != "" {
			idx[sku] = row
		}
	}
	return idx
}

func reconcileRow(mlRow internal.Row, itemID, sku string, odooRow internal.Row, weightKg float64, cfg internal.CalcConfig, rates []internal.ShippingRate) internal.ReconciledRow {
	var notes []string

	title := cellString(mlRow, "TITLE")
	prevPrice := cellNumber(mlRow, "PRICE")
	prevStock := cellNumber(mlRow, "QUANTITY", "available_quantity")
	listingType := cellString(mlRow, "LISTING_TYPE_V3")
	shippingMethod := strings.ToLower(cellString(mlRow, "SHIPPING_METHOD"))
	currency := cellString(mlRow, "CURRENCY_ID")
	if currency == "" {
		currency = defaultCurrencyID
	}

	fee := ParseMarketplaceFee(cellRaw(mlRow, "FEE_PER_SALE_MARKETPLACE_V2"))
	financingPct := ExtractPercent(cellRaw(mlRow, "COST_OF_FINANCING_MARKETPLACE"))
	retentionPct := cfg.RetentionPercent / 100

	description := title
	var baseCost, odooStock, taxPct float64
	if odooRow == nil {
		notes = append(notes, noteSKUNotFound)
	} else {
		if name := cellString(odooRow, "Nombre", "Name"); name != "" {
			description = name
		}
		baseCost = cellNumber(odooRow, "Precio Tarifa", "Price")
		odooStock = cellNumber(odooRow, "Cantidad a mano", "Quantity")
		taxPct = ExtractPercent(cellString(odooRow, "Impuestos del cliente"))
		if baseCost <= 0 {
			notes = append(notes, noteZeroTariff)
		}
	}

	var surcharge float64
	if containsAny(shippingMethod, surchargeMarkers) {
		if cfg.UseWeightTable && weightKg > 0 {
			cost, warning := ResolveShipping(weightKg, rates)
			surcharge = cost
			if warning != "" {
				notes = append(notes, warning)
			}
		} else if cfg.SurchargeKind == internal.SurchargeFixed {
			surcharge = cfg.SurchargeAmount
		} else {
			surcharge = baseCost * cfg.SurchargeAmount / 100
		}
	}

	taxedBase := baseCost
	if cfg.IncludeTaxes {
		taxedBase = baseCost * (1 + taxPct)
	}
	targetTariff := taxedBase + surcharge

	var finalPrice, sellingFee, financingCost, retentionCost, netReceipt, estimatedTax float64
	deductions := fee.Percent + financingPct + retentionPct
	if 1-deductions <= 0 {
		notes = append(notes, noteOverHundred)
	} else {
		finalPrice = (targetTariff + fee.Fixed) / (1 - deductions)
		sellingFee = finalPrice*fee.Percent + fee.Fixed
		financingCost = finalPrice * financingPct
		retentionCost = finalPrice * retentionPct
		netReceipt = finalPrice - (sellingFee + financingCost + retentionCost)
		if taxPct > 0 {
			// Tax is backed out of the tax-inclusive price, not added on top.
			estimatedTax = finalPrice * taxPct / (1 + taxPct)
		}
	}

	row := internal.ReconciledRow{
		SKU:               sku,
		ItemID:            itemID,
		Description:       description,
		RealStock:         odooStock,
		PublishedStock:    int(math.Floor(odooStock * cfg.StockPercent / 100)),
		PrevMLStock:       prevStock,
		Currency:          currency,
		BaseCost:          util.Round2(baseCost),
		TargetTariff:      util.Round2(targetTariff),
		FinalPrice:        util.Round2(finalPrice),
		PrevMLPrice:       util.Round2(prevPrice),
		SellingFee:        util.Round2(sellingFee),
		FeePercent:        fee.Percent * 100,
		FeeFixed:          fee.Fixed,
		FinancingPercent:  financingPct * 100,
		FinancingCost:     util.Round2(financingCost),
		RetentionCost:     util.Round2(retentionCost),
		EstimatedTax:      util.Round2(estimatedTax),
		NetReceipt:        util.Round2(netReceipt),
		ListingType:       listingType,
		ShippingMethod:    shippingMethod,
		WeightKg:          weightKg,
		ShippingSurcharge: util.Round2(surcharge),
		Notes:             notesOK,
	}
	if len(notes) > 0 {
		row.Notes = strings.Join(notes, notesSeparator)
	}
	return row
}
