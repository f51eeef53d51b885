package workorder

import "garage-backend/internal/model"

// ComputeRevenue calculates the financial closeout of a work order:
// subtotal over parts and labor, tax from the explicit amount when given or
// from the percentage rate otherwise, and the grand total.
func ComputeRevenue(parts []model.PartUsed, labor []model.LaborEntry, taxRate float64, taxAmount *float64) (subtotal, tax, total float64) {
	for _, p := range parts {
		subtotal += p.Price * float64(p.Qty)
	}
	for _, l := range labor {
		subtotal += l.Rate * l.Hours
	}
	if taxAmount != nil {
		tax = *taxAmount
	} else {
		tax = subtotal * taxRate / 100
	}
	return subtotal, tax, subtotal + tax
}
