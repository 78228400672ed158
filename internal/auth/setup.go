package auth

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.WithError(err).Fatal("Failed to ensure schema app_auth")
	}

	if err := db.DB.AutoMigrate(&User{}, &Session{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate auth tables")
	}
}
