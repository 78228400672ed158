package documents

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.DB.AutoMigrate(&DocumentType{}, &IssuedDocument{}, &DocRequest{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate document tables")
	}
	log.Info("Documents module initialized")
}
