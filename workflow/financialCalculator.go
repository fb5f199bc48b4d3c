package workflow

import (
	"bitbucket.org/mmdatafocus/sav_backend/models"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"github.com/shopspring/decimal"
)

// FinancialInput is the cost/pricing breakdown of one ticket. Revenue-side
// fields price the customer invoice; cost-side fields price what the repair
// cost the business.
type FinancialInput struct {
	PartsTotal    decimal.Decimal `json:"parts_total"`
	PartsCost     decimal.Decimal `json:"parts_cost"`
	LaborTotal    decimal.Decimal `json:"labor_total"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	LogisticsCost decimal.Decimal `json:"logistics_cost"`
	TravelFee     decimal.Decimal `json:"travel_fee"`
	Discount      decimal.Decimal `json:"discount"`
}

// ComputeFinancials is a pure, deterministic function of its input: no I/O,
// total over well-formed non-negative inputs.
//
//	grandTotal = partsTotal + laborTotal + travelFee - discount  (clamped at 0)
//	netMargin  = grandTotal - (partsCost + laborCost + logisticsCost)
//
// netMargin is deliberately NOT clamped: a loss-making ticket is valid and
// must stay representable.
func ComputeFinancials(input FinancialInput) (*models.FinancialDetail, error) {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"parts_total", input.PartsTotal},
		{"parts_cost", input.PartsCost},
		{"labor_total", input.LaborTotal},
		{"labor_cost", input.LaborCost},
		{"logistics_cost", input.LogisticsCost},
		{"travel_fee", input.TravelFee},
		{"discount", input.Discount},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return nil, errInvalidFinancialInput(f.name)
		}
	}

	grandTotal := input.PartsTotal.Add(input.LaborTotal).Add(input.TravelFee).Sub(input.Discount)
	if grandTotal.IsNegative() {
		grandTotal = decimal.Zero
	}
	netMargin := grandTotal.Sub(input.PartsCost).Sub(input.LaborCost).Sub(input.LogisticsCost)

	return &models.FinancialDetail{
		PartsTotal:    input.PartsTotal,
		PartsCost:     input.PartsCost,
		LaborTotal:    input.LaborTotal,
		LaborCost:     input.LaborCost,
		LogisticsCost: input.LogisticsCost,
		TravelFee:     input.TravelFee,
		Discount:      input.Discount,
		GrandTotal:    grandTotal,
		NetMargin:     netMargin,
		IsPaid:        utils.NewFalse(),
	}, nil
}

// reportPartsTotals derives the parts revenue from the report's price
// snapshots and the parts cost from the catalog unit costs of the consumable
// lines. Free-text lines price into partsTotal but carry no catalog cost.
func reportPartsTotals(report *models.InterventionReport, costByPartId map[int]decimal.Decimal) (partsTotal decimal.Decimal, partsCost decimal.Decimal) {
	partsTotal = decimal.Zero
	partsCost = decimal.Zero
	if report == nil {
		return partsTotal, partsCost
	}
	for _, line := range report.PartsUsed {
		if line.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		partsTotal = partsTotal.Add(line.UnitPrice.Mul(qty))
		if line.PartId != nil {
			if cost, ok := costByPartId[*line.PartId]; ok {
				partsCost = partsCost.Add(cost.Mul(qty))
			}
		}
	}
	return partsTotal, partsCost
}
