package incidents

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.DB.AutoMigrate(&IncidentReport{}, &IncidentParty{}, &FlaggedIndividual{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate incident tables")
	}
	log.Info("Incidents module initialized")
}
