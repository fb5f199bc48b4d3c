package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
)

// StockMovement is an immutable ledger entry. Movements are only ever appended;
// corrections are new offsetting movements. The signed sum of a part's
// movements equals its current_stock at all times.
type StockMovement struct {
	ID              int               `gorm:"primary_key" json:"id"`
	PartId          int               `gorm:"not null;index" json:"part_id"`
	Quantity        int               `gorm:"not null" json:"quantity"`
	Direction       MovementDirection `gorm:"size:3;not null" json:"direction"`
	Reason          string            `gorm:"size:255" json:"reason"`
	TicketId        *int              `gorm:"index" json:"ticket_id"`
	IdempotencyKey  string            `gorm:"size:255;index" json:"idempotency_key"`
	PerformedBy     int               `gorm:"not null" json:"performed_by"`
	PerformedByName string            `gorm:"size:100" json:"performed_by_name"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// SignedQuantity is +quantity for IN and -quantity for OUT.
func (m StockMovement) SignedQuantity() int {
	if m.Direction == MovementDirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}

func ListMovementsByPart(ctx context.Context, partId int) ([]*StockMovement, error) {
	db := config.GetDB()
	var movements []*StockMovement
	err := db.WithContext(ctx).Where("part_id = ?", partId).Order("id ASC").Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func ListMovementsByTicket(ctx context.Context, ticketId int) ([]*StockMovement, error) {
	db := config.GetDB()
	var movements []*StockMovement
	err := db.WithContext(ctx).Where("ticket_id = ?", ticketId).Order("id ASC").Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
