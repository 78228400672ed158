package activity

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.DB.AutoMigrate(&ActivityLog{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate activity tables")
	}
}
