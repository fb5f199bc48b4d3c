package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/sav_backend/models"
)

// NOTE: These tests are intentionally DB-free. They validate the ledger
// semantics that must hold regardless of storage: the cached stock is always
// the fold of the append-only movement history.

func mv(partId int, qty int, direction models.MovementDirection) *models.StockMovement {
	return &models.StockMovement{PartId: partId, Quantity: qty, Direction: direction}
}

func TestReplayStock_FoldsInsAndOuts(t *testing.T) {
	movements := []*models.StockMovement{
		mv(1, 20, models.MovementDirectionIn),  // initial receiving
		mv(1, 3, models.MovementDirectionOut),  // repair consumption
		mv(1, 5, models.MovementDirectionOut),  // repair consumption
		mv(1, 10, models.MovementDirectionIn),  // restock
		mv(1, 1, models.MovementDirectionOut),  // audit correction
	}
	if got := ReplayStock(movements); got != 21 {
		t.Fatalf("replayed stock = %d, want 21", got)
	}
}

func TestReplayStock_EmptyLedgerIsZero(t *testing.T) {
	if got := ReplayStock(nil); got != 0 {
		t.Fatalf("replayed stock = %d, want 0", got)
	}
}

func TestReplayStock_OrderIndependentForTotals(t *testing.T) {
	forward := []*models.StockMovement{
		mv(1, 10, models.MovementDirectionIn),
		mv(1, 4, models.MovementDirectionOut),
		mv(1, 2, models.MovementDirectionIn),
	}
	reversed := []*models.StockMovement{forward[2], forward[1], forward[0]}
	if ReplayStock(forward) != ReplayStock(reversed) {
		t.Error("fold total must not depend on movement order")
	}
}

func TestSignedQuantity(t *testing.T) {
	if got := mv(1, 5, models.MovementDirectionIn).SignedQuantity(); got != 5 {
		t.Errorf("IN signed quantity = %d, want 5", got)
	}
	if got := mv(1, 5, models.MovementDirectionOut).SignedQuantity(); got != -5 {
		t.Errorf("OUT signed quantity = %d, want -5", got)
	}
}

func TestMergeConsumptionLines(t *testing.T) {
	p1, p2 := 1, 2
	lines := []models.UsedPart{
		{PartId: &p1, Name: "Filter", Quantity: 2},
		{PartId: &p2, Name: "Relay", Quantity: 1},
		{PartId: &p1, Name: "Filter", Quantity: 3},
	}
	merged := mergeConsumptionLines(lines)
	if len(merged) != 2 {
		t.Fatalf("merged lines = %d, want 2", len(merged))
	}
	byPart := map[int]int{}
	for _, line := range merged {
		byPart[*line.PartId] = line.Quantity
	}
	if byPart[p1] != 5 || byPart[p2] != 1 {
		t.Errorf("merged quantities = %v, want part1=5 part2=1", byPart)
	}
}
