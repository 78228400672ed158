package residents

import (
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
)

func Init() {
	if err := db.DB.AutoMigrate(&Household{}, &Resident{}); err != nil {
		log.WithError(err).Fatal("Failed to auto-migrate resident tables")
	}

	// Trigram index backs the name search used by lists and the chat assistant.
	if err := db.DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_residents_name_trgm
		ON barangay.residents USING gin ((first_name || ' ' || last_name) gin_trgm_ops);
	`).Error; err != nil {
		log.WithError(err).Warn("[residents] trigram index not created")
	}

	log.Info("Residents module initialized")
}
