package documents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DocumentType is a template staff issue documents from.
type DocumentType struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID   string          `gorm:"index;not null" json:"barangay_id"`
	Name         string          `gorm:"not null" json:"name"`
	Description  string          `json:"description"`
	Fee          decimal.Decimal `gorm:"type:numeric(10,2)" json:"fee"`
	ValidityDays *int            `json:"validity_days"`
	// RequiredFields maps a form field name to its display label.
	RequiredFields datatypes.JSON `gorm:"type:jsonb" json:"required_fields"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (DocumentType) TableName() string { return "barangay.document_types" }

// Fields decodes RequiredFields. An empty column means no required fields.
func (t DocumentType) Fields() (map[string]string, error) {
	out := map[string]string{}
	if len(t.RequiredFields) == 0 || string(t.RequiredFields) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(t.RequiredFields, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type IssuedDocument struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID       string            `gorm:"index;not null" json:"barangay_id"`
	DocumentNumber   string            `gorm:"uniqueIndex;not null" json:"document_number"`
	DocumentTypeID   uuid.UUID         `gorm:"type:uuid;index;not null" json:"document_type_id"`
	ResidentID       uuid.UUID         `gorm:"type:uuid;index;not null" json:"resident_id"`
	RequestID        *uuid.UUID        `gorm:"type:uuid" json:"request_id,omitempty"`
	Purpose          string            `json:"purpose"`
	FormData         datatypes.JSONMap `gorm:"type:jsonb" json:"form_data"`
	Fee              decimal.Decimal   `gorm:"type:numeric(10,2)" json:"fee"`
	PaymentStatus    string            `gorm:"size:16;not null" json:"payment_status"`
	PaymentReference string            `gorm:"index" json:"payment_reference"`
	IssuedBy         string            `json:"issued_by"`
	IssuedAt         time.Time         `json:"issued_at"`
	ExpiresAt        *time.Time        `json:"expires_at"`

	StatusColor string `gorm:"-" json:"status_color"`
}

func (IssuedDocument) TableName() string { return "barangay.issued_documents" }

// DocRequest is a resident's request for a document, worked through the
// request workflow until released or rejected.
type DocRequest struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID       string            `gorm:"index;not null" json:"barangay_id"`
	ResidentID       uuid.UUID         `gorm:"type:uuid;index;not null" json:"resident_id"`
	DocumentTypeID   uuid.UUID         `gorm:"type:uuid;not null" json:"document_type_id"`
	Purpose          string            `json:"purpose"`
	Status           string            `gorm:"size:16;index;not null" json:"status"`
	Remarks          string            `json:"remarks"`
	FormData         datatypes.JSONMap `gorm:"type:jsonb" json:"form_data"`
	IssuedDocumentID *uuid.UUID        `gorm:"type:uuid" json:"issued_document_id,omitempty"`
	RequestedBy      string            `json:"requested_by"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	StatusColor string `gorm:"-" json:"status_color"`
}

func (DocRequest) TableName() string { return "barangay.document_requests" }
