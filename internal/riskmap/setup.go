package riskmap

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.DB.AutoMigrate(&DisasterZone{}, &EvacuationCenter{}, &EvacuationRoute{}, &EmergencyRequest{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate map tables")
	}
	log.Info("Risk map module initialized")
}
