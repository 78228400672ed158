package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Event is one payment notification from the provider, stored once per reference.
type Event struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Reference      string          `gorm:"uniqueIndex;not null" json:"reference"`
	DocumentNumber string          `gorm:"index" json:"document_number"`
	Amount         decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
	Status         string          `json:"status"`
	Applied        bool            `json:"applied"`
	Payload        datatypes.JSON  `gorm:"type:jsonb" json:"payload"`
	ReceivedAt     time.Time       `json:"received_at"`
}

func (Event) TableName() string { return "barangay.payment_events" }

type notification struct {
	DocumentNumber string          `json:"document_number"`
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
}
