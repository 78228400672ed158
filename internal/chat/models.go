package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FAQ is a stored question/answer pair. An empty BarangayID makes it
// visible to every barangay.
type FAQ struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID string         `gorm:"index" json:"barangay_id"`
	Question   string         `gorm:"not null" json:"question"`
	Answer     string         `gorm:"not null" json:"answer"`
	Keywords   pq.StringArray `gorm:"type:text[]" json:"keywords"`
	Category   string         `json:"category"`
	IsActive   bool           `json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (FAQ) TableName() string { return "barangay.chat_faqs" }
