package incidents

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	StatusOpen           = "open"
	StatusUnderMediation = "under_mediation"
	StatusSettled        = "settled"
	StatusEscalated      = "escalated"
	StatusClosed         = "closed"
)

const (
	RoleComplainant = "complainant"
	RoleRespondent  = "respondent"
	RoleWitness     = "witness"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// IncidentReport is one blotter entry.
type IncidentReport struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID   string     `gorm:"index;not null;uniqueIndex:idx_case_number" json:"barangay_id"`
	CaseNumber   string     `gorm:"not null;uniqueIndex:idx_case_number" json:"case_number"`
	Title        string     `gorm:"not null" json:"title"`
	Narrative    string     `json:"narrative"`
	IncidentType string     `gorm:"index" json:"incident_type"`
	Location     string     `json:"location"`
	OccurredAt   *time.Time `json:"occurred_at"`
	Status       string     `gorm:"size:24;index;not null" json:"status"`
	ReportedBy   string     `json:"reported_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Parties []IncidentParty     `gorm:"foreignKey:IncidentID" json:"parties"`
	Flagged []FlaggedIndividual `gorm:"foreignKey:IncidentID" json:"flagged"`

	ComplainantCount int `gorm:"-" json:"complainant_count"`
	RespondentCount  int `gorm:"-" json:"respondent_count"`
}

func (IncidentReport) TableName() string { return "barangay.incident_reports" }

type IncidentParty struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	IncidentID uuid.UUID  `gorm:"type:uuid;index;not null" json:"incident_id"`
	Role       string     `gorm:"size:16;not null" json:"role"`
	ResidentID *uuid.UUID `gorm:"type:uuid;index" json:"resident_id,omitempty"`
	Name       string     `gorm:"not null" json:"name"`
	Contact    string     `json:"contact"`
	Address    string     `json:"address"`
	Statement  string     `json:"statement"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (IncidentParty) TableName() string { return "barangay.incident_parties" }

type FlaggedIndividual struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	IncidentID uuid.UUID      `gorm:"type:uuid;index;not null" json:"incident_id"`
	BarangayID string         `gorm:"index;not null" json:"barangay_id"`
	Name       string         `gorm:"not null" json:"name"`
	ResidentID *uuid.UUID     `gorm:"type:uuid;index" json:"resident_id,omitempty"`
	RiskLevel  string         `gorm:"size:8;index;not null" json:"risk_level"`
	Reasons    pq.StringArray `gorm:"type:text[]" json:"reasons"`
	Notes      string         `json:"notes"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (FlaggedIndividual) TableName() string { return "barangay.flagged_individuals" }
