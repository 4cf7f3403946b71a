package models

import (
	"log"

	"bitbucket.org/mmdatafocus/venue_backend/config"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Venue{},
		&Bar{},
		&Supplier{},
		&Product{},
		&InventoryLot{},
		&BarStock{},
	)
	if err != nil {
		log.Printf("auto migrate failed: %v", err)
	}
}
