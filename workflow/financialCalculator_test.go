package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/sav_backend/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeFinancials_Totals(t *testing.T) {
	out, err := ComputeFinancials(FinancialInput{
		PartsTotal:    d("120.50"),
		PartsCost:     d("80.00"),
		LaborTotal:    d("90.00"),
		LaborCost:     d("45.00"),
		LogisticsCost: d("10.00"),
		TravelFee:     d("25.00"),
		Discount:      d("15.50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 120.50 + 90 + 25 - 15.50 = 220
	if !out.GrandTotal.Equal(d("220")) {
		t.Errorf("grand total = %s, want 220", out.GrandTotal)
	}
	// 220 - 80 - 45 - 10 = 85
	if !out.NetMargin.Equal(d("85")) {
		t.Errorf("net margin = %s, want 85", out.NetMargin)
	}
	if out.IsPaid == nil || *out.IsPaid {
		t.Errorf("new financials must start unpaid")
	}
}

func TestComputeFinancials_GrandTotalClampedAtZero(t *testing.T) {
	out, err := ComputeFinancials(FinancialInput{
		PartsTotal: d("10"),
		Discount:   d("50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.GrandTotal.Equal(decimal.Zero) {
		t.Errorf("grand total = %s, want 0", out.GrandTotal)
	}
	if !out.NetMargin.IsZero() {
		t.Errorf("net margin = %s, want 0", out.NetMargin)
	}
}

func TestComputeFinancials_NegativeMarginAllowed(t *testing.T) {
	out, err := ComputeFinancials(FinancialInput{
		PartsTotal: d("50"),
		PartsCost:  d("120"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.NetMargin.Equal(d("-70")) {
		t.Errorf("net margin = %s, want -70", out.NetMargin)
	}
}

func TestComputeFinancials_RejectsNegativeInputs(t *testing.T) {
	cases := []struct {
		name  string
		input FinancialInput
	}{
		{"parts_total", FinancialInput{PartsTotal: d("-1")}},
		{"parts_cost", FinancialInput{PartsCost: d("-0.01")}},
		{"labor_total", FinancialInput{LaborTotal: d("-5")}},
		{"labor_cost", FinancialInput{LaborCost: d("-5")}},
		{"logistics_cost", FinancialInput{LogisticsCost: d("-5")}},
		{"travel_fee", FinancialInput{TravelFee: d("-5")}},
		{"discount", FinancialInput{Discount: d("-5")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeFinancials(tc.input)
			if !IsErrorCode(err, ErrCodeInvalidFinancialInput) {
				t.Fatalf("err = %v, want InvalidFinancialInput", err)
			}
		})
	}
}

func TestComputeFinancials_Deterministic(t *testing.T) {
	input := FinancialInput{
		PartsTotal: d("33.33"),
		LaborTotal: d("66.67"),
		PartsCost:  d("20"),
	}
	first, err := ComputeFinancials(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 100; i++ {
		again, err := ComputeFinancials(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !again.GrandTotal.Equal(first.GrandTotal) || !again.NetMargin.Equal(first.NetMargin) {
			t.Fatalf("run %d diverged: %s/%s vs %s/%s", i, again.GrandTotal, again.NetMargin, first.GrandTotal, first.NetMargin)
		}
	}
}

func TestReportPartsTotals(t *testing.T) {
	partId := 7
	report := &models.InterventionReport{
		PartsUsed: []models.UsedPart{
			{PartId: &partId, Name: "Compressor", Quantity: 2, UnitPrice: d("40")},
			{Name: "Customer-supplied gasket", Quantity: 1, UnitPrice: d("999")}, // no part id, not consumable
		},
	}
	total, cost := reportPartsTotals(report, map[int]decimal.Decimal{partId: d("25")})
	if !total.Equal(d("1079")) {
		t.Errorf("parts total = %s, want 1079", total)
	}
	// Cost only covers catalog-backed lines.
	if !cost.Equal(d("50")) {
		t.Errorf("parts cost = %s, want 50", cost)
	}
}
