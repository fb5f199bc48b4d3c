package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/sav_backend/config"
)

// check if id exists, return RecordNotFound error when it doesn't
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {

	db := config.GetDB()
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}
