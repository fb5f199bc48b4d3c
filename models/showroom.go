package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
)

type Showroom struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	City      string    `gorm:"size:100" json:"city"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewShowroom struct {
	Name    string `json:"name" binding:"required"`
	City    string `json:"city"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func CreateShowroom(ctx context.Context, input *NewShowroom) (*Showroom, error) {
	db := config.GetDB()

	showroom := Showroom{
		Name:    input.Name,
		City:    input.City,
		Address: input.Address,
		Phone:   input.Phone,
	}
	if err := db.WithContext(ctx).Create(&showroom).Error; err != nil {
		return nil, err
	}
	return &showroom, nil
}

func GetShowroom(ctx context.Context, id int) (*Showroom, error) {
	result, err := utils.RetrieveRedis[Showroom](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchSingleModel[Showroom](ctx, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[Showroom](result, id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func ListShowrooms(ctx context.Context) ([]*Showroom, error) {
	return utils.FetchAllModels[Showroom](ctx)
}
