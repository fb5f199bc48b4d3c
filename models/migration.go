package models

import (
	"log"

	"bitbucket.org/mmdatafocus/sav_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Showroom{}, &User{},
		&Part{}, &StockMovement{},
		&Ticket{},
		&History{},
		&IdempotencyKey{},
		&NotificationRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
