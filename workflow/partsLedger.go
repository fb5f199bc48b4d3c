package workflow

import (
	"context"
	"sort"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/models"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConsumeContext correlates a consumption batch with the ticket and actor
// that caused it. IdempotencyKey is the report content hash; the pair
// (TicketId, IdempotencyKey) identifies the batch forever.
type ConsumeContext struct {
	TicketId        int
	IdempotencyKey  string
	PerformedBy     int
	PerformedByName string
}

// mergeConsumptionLines collapses duplicate part lines and orders the result
// by part id, so concurrent batches take their advisory locks in the same
// order.
func mergeConsumptionLines(lines []models.UsedPart) []models.UsedPart {
	qtyByPart := make(map[int]int)
	for _, line := range lines {
		if line.PartId == nil || *line.PartId <= 0 || line.Quantity <= 0 {
			continue
		}
		qtyByPart[*line.PartId] += line.Quantity
	}
	partIds := make([]int, 0, len(qtyByPart))
	for partId := range qtyByPart {
		partIds = append(partIds, partId)
	}
	sort.Ints(partIds)
	merged := make([]models.UsedPart, 0, len(partIds))
	for _, partId := range partIds {
		id := partId
		merged = append(merged, models.UsedPart{PartId: &id, Quantity: qtyByPart[partId]})
	}
	return merged
}

// consumeBatch applies one OUT movement batch inside the caller's transaction,
// all-or-nothing: any UnknownPart/InsufficientStock/DuplicateConsumption
// failure aborts the whole batch and the caller's rollback leaves stock and
// ledger untouched. Lines for the same part are merged before application.
func consumeBatch(tx *gorm.DB, logger *logrus.Logger, lines []models.UsedPart, consumeCtx ConsumeContext) ([]*models.StockMovement, []*models.Part, error) {

	// One movement batch per (ticket, report hash), ever. This is what makes a
	// resubmitted identical report or a blind network retry a ledger no-op.
	var existing int64
	err := tx.Model(&models.StockMovement{}).
		Where("ticket_id = ? AND idempotency_key = ?", consumeCtx.TicketId, consumeCtx.IdempotencyKey).
		Count(&existing).Error
	if err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return nil, nil, errDuplicateConsumption(consumeCtx.TicketId, consumeCtx.IdempotencyKey)
	}

	merged := mergeConsumptionLines(lines)
	qtyByPart := make(map[int]int, len(merged))
	partIds := make([]int, 0, len(merged))
	for _, line := range merged {
		qtyByPart[*line.PartId] = line.Quantity
		partIds = append(partIds, *line.PartId)
	}

	for _, partId := range partIds {
		if err := AcquirePartLock(tx, partId); err != nil {
			return nil, nil, err
		}
		defer ReleasePartLock(tx, partId)
	}

	// Validate the whole batch before touching anything.
	parts := make([]*models.Part, 0, len(partIds))
	for _, partId := range partIds {
		var part models.Part
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&part, partId).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, errUnknownPart(consumeCtx.TicketId, partId)
			}
			return nil, nil, err
		}
		if part.CurrentStock-qtyByPart[partId] < 0 {
			return nil, nil, errInsufficientStock(consumeCtx.TicketId, partId, qtyByPart[partId], part.CurrentStock)
		}
		parts = append(parts, &part)
	}

	movements := make([]*models.StockMovement, 0, len(partIds))
	for _, part := range parts {
		quantity := qtyByPart[part.ID]

		// Guarded decrement: the WHERE clause is the last line of defense
		// against a concurrent writer that slipped past the row lock.
		res := tx.Model(&models.Part{}).
			Where("id = ? AND current_stock >= ?", part.ID, quantity).
			Update("current_stock", gorm.Expr("current_stock - ?", quantity))
		if res.Error != nil {
			return nil, nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, nil, errInsufficientStock(consumeCtx.TicketId, part.ID, quantity, part.CurrentStock)
		}
		part.CurrentStock -= quantity

		ticketId := consumeCtx.TicketId
		movement := models.StockMovement{
			PartId:          part.ID,
			Quantity:        quantity,
			Direction:       models.MovementDirectionOut,
			Reason:          "Intervention report",
			TicketId:        &ticketId,
			IdempotencyKey:  consumeCtx.IdempotencyKey,
			PerformedBy:     consumeCtx.PerformedBy,
			PerformedByName: consumeCtx.PerformedByName,
		}
		if err := tx.Create(&movement).Error; err != nil {
			config.LogError(logger, "partsLedger.go", "consumeBatch", "CreateStockMovement", movement, err)
			return nil, nil, err
		}
		movements = append(movements, &movement)
	}

	return movements, parts, nil
}

type AdjustInput struct {
	PartId    int                      `json:"part_id" binding:"required"`
	Quantity  int                      `json:"quantity" binding:"required"`
	Direction models.MovementDirection `json:"direction" binding:"required"`
	Reason    string                   `json:"reason" binding:"required"`
}

// Adjust is the manual stock correction path (receiving, inventory audit).
// Manual actions are intentionally repeatable, so no idempotency key is
// involved; the same append + guarded-recompute contract applies.
func Adjust(ctx context.Context, input AdjustInput) (*models.StockMovement, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	role, err := actorRole(ctx)
	if err != nil {
		return nil, err
	}
	if role != models.UserRoleManager && role != models.UserRoleAdmin {
		return nil, errForbidden(0, role, "MANAGER|ADMIN")
	}
	if input.Quantity <= 0 {
		return nil, errInvalidFinancialInput("quantity")
	}
	if _, err := models.ParseMovementDirection(string(input.Direction)); err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	var movement models.StockMovement
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePartLock(tx, input.PartId); err != nil {
			return err
		}
		defer ReleasePartLock(tx, input.PartId)

		var part models.Part
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&part, input.PartId).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errUnknownPart(0, input.PartId)
			}
			return err
		}

		delta := input.Quantity
		if input.Direction == models.MovementDirectionOut {
			if part.CurrentStock-input.Quantity < 0 {
				return errInsufficientStock(0, input.PartId, input.Quantity, part.CurrentStock)
			}
			delta = -input.Quantity
		}

		res := tx.Model(&models.Part{}).
			Where("id = ? AND current_stock + ? >= 0", input.PartId, delta).
			Update("current_stock", gorm.Expr("current_stock + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInsufficientStock(0, input.PartId, input.Quantity, part.CurrentStock)
		}

		movement = models.StockMovement{
			PartId:          input.PartId,
			Quantity:        input.Quantity,
			Direction:       input.Direction,
			Reason:          input.Reason,
			PerformedBy:     userId,
			PerformedByName: userName,
		}
		if err := tx.Create(&movement).Error; err != nil {
			config.LogError(logger, "partsLedger.go", "Adjust", "CreateStockMovement", movement, err)
			return err
		}

		description := "Manual stock adjustment (" + string(input.Direction) + ") on part " + part.Sku + "."
		return models.CreateHistory(tx, "U", input.PartId, "Part", part.CurrentStock, part.CurrentStock+delta, description)
	})
	if err != nil {
		return nil, err
	}
	// The movement is committed; a stale cache entry is not worth failing
	// the call over (a retry would double-apply).
	if cacheErr := utils.RemoveRedis[models.Part](input.PartId); cacheErr != nil {
		config.LogError(logger, "partsLedger.go", "Adjust", "RemovePartCache", input.PartId, cacheErr)
	}
	return &movement, nil
}

// ReplayStock folds the movement log into a stock level. Pure; the ledger
// invariant says this equals current_stock for the part's full log.
func ReplayStock(movements []*models.StockMovement) int {
	stock := 0
	for _, movement := range movements {
		stock += movement.SignedQuantity()
	}
	return stock
}

// VerifyPartLedger recomputes a part's stock from its full movement log and
// returns both values. Used by integrity audits (cmd/ledger-verify) and tests.
func VerifyPartLedger(ctx context.Context, partId int) (stored int, replayed int, err error) {
	db := config.GetDB()

	var part models.Part
	if err := db.WithContext(ctx).First(&part, partId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, 0, errUnknownPart(0, partId)
		}
		return 0, 0, err
	}
	movements, err := models.ListMovementsByPart(ctx, partId)
	if err != nil {
		return 0, 0, err
	}
	return part.CurrentStock, ReplayStock(movements), nil
}
