package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Part is a stocked spare component. CurrentStock is NEVER written through the
// catalog path; only ledger application (workflow.PartsLedger) mutates it, so
// the signed sum of stock_movements always equals current_stock.
type Part struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Sku          string          `gorm:"size:64;not null;unique" json:"sku" binding:"required"`
	Name         string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Category     string          `gorm:"size:100;index" json:"category"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	CurrentStock int             `gorm:"not null;default:0" json:"current_stock"`
	MinStock     int             `gorm:"not null;default:0" json:"min_stock"`
	Location     string          `gorm:"size:100" json:"location"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPart struct {
	Sku       string          `json:"sku" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	MinStock  int             `json:"min_stock"`
	Location  string          `json:"location"`
}

/*
caches:
	Part:$id
*/

func (part Part) RemoveInstanceRedis() error {
	return utils.RemoveRedis[Part](part.ID)
}

func CreatePart(ctx context.Context, input *NewPart) (*Part, error) {
	db := config.GetDB()

	if input.UnitPrice.IsNegative() || input.UnitCost.IsNegative() {
		return nil, errors.New("unit price and unit cost must not be negative")
	}
	if input.MinStock < 0 {
		return nil, errors.New("min stock must not be negative")
	}

	part := Part{
		Sku:       input.Sku,
		Name:      input.Name,
		Category:  input.Category,
		UnitPrice: input.UnitPrice,
		UnitCost:  input.UnitCost,
		MinStock:  input.MinStock,
		Location:  input.Location,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&part).Error; err != nil {
			return err
		}
		description := "Part " + part.Sku + " created."
		return createHistory(tx, "C", part.ID, "Part", nil, part, description)
	})
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// UpdatePart edits catalog fields only. CurrentStock is deliberately not an
// input; stock changes go through the ledger.
func UpdatePart(ctx context.Context, id int, input *NewPart) (*Part, error) {
	db := config.GetDB()

	part, err := GetPart(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.UnitPrice.IsNegative() || input.UnitCost.IsNegative() {
		return nil, errors.New("unit price and unit cost must not be negative")
	}
	if input.MinStock < 0 {
		return nil, errors.New("min stock must not be negative")
	}

	oldPart := *part
	part.Sku = input.Sku
	part.Name = input.Name
	part.Category = input.Category
	part.UnitPrice = input.UnitPrice
	part.UnitCost = input.UnitCost
	part.MinStock = input.MinStock
	part.Location = input.Location

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Part{}).Where("id = ?", id).Updates(map[string]interface{}{
			"sku":        part.Sku,
			"name":       part.Name,
			"category":   part.Category,
			"unit_price": part.UnitPrice,
			"unit_cost":  part.UnitCost,
			"min_stock":  part.MinStock,
			"location":   part.Location,
		}).Error; err != nil {
			return err
		}
		description := "Part " + part.Sku + " updated."
		return createHistory(tx, "U", part.ID, "Part", oldPart, part, description)
	})
	if err != nil {
		return nil, err
	}
	if err := part.RemoveInstanceRedis(); err != nil {
		return nil, err
	}
	return part, nil
}

// GetPart finds the part in redis first, then db, and caches the result.
// (may return RecordNotFound error)
func GetPart(ctx context.Context, id int) (*Part, error) {
	result, err := utils.RetrieveRedis[Part](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchSingleModel[Part](ctx, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[Part](result, id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func ListParts(ctx context.Context) ([]*Part, error) {
	return utils.FetchAllModels[Part](ctx)
}

// ListPartsBelowMinStock backs the reorder alert screen.
func ListPartsBelowMinStock(ctx context.Context) ([]*Part, error) {
	db := config.GetDB()
	var parts []*Part
	err := db.WithContext(ctx).Where("current_stock < min_stock").Find(&parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}
