package payments

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.DB.AutoMigrate(&Event{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate payment tables")
	}
	log.Info("Payments module initialized")
}
