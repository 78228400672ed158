package community

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.DB.AutoMigrate(&Announcement{}, &Event{}, &Official{}, &EmergencyContact{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate community tables")
	}
	log.Info("Community module initialized")
}
