package chat

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.DB.AutoMigrate(&FAQ{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate chat tables")
	}
	log.Info("Chat module initialized")
}
