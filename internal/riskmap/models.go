package riskmap

import (
	"time"

	"github.com/google/uuid"
)

type DisasterZone struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID  string    `gorm:"index;not null" json:"barangay_id"`
	Name        string    `gorm:"not null" json:"name"`
	HazardType  string    `json:"hazard_type"` // flood, landslide, fire, storm_surge...
	RiskLevel   string    `json:"risk_level"`
	Description string    `json:"description"`
	Geometry    Geometry  `json:"geometry"`
	AreaM2      float64   `json:"area_m2"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (DisasterZone) TableName() string { return "barangay.disaster_zones" }

type EvacuationCenter struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID    string    `gorm:"index;not null" json:"barangay_id"`
	Name          string    `gorm:"not null" json:"name"`
	Capacity      int       `json:"capacity"`
	Address       string    `json:"address"`
	Status        string    `json:"status"` // open, full, closed
	ContactPerson string    `json:"contact_person"`
	Contact       string    `json:"contact"`
	Geometry      Geometry  `json:"geometry"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (EvacuationCenter) TableName() string { return "barangay.evacuation_centers" }

type EvacuationRoute struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID  string    `gorm:"index;not null" json:"barangay_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Geometry    Geometry  `json:"geometry"`
	LengthM     float64   `json:"length_m"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (EvacuationRoute) TableName() string { return "barangay.evacuation_routes" }

const (
	EmergencyPending      = "pending"
	EmergencyAcknowledged = "acknowledged"
	EmergencyDispatched   = "dispatched"
	EmergencyResolved     = "resolved"
)

// EmergencyRequest is a help request pinned on the map.
type EmergencyRequest struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID    string     `gorm:"index;not null" json:"barangay_id"`
	ResidentID    *uuid.UUID `gorm:"type:uuid" json:"resident_id,omitempty"`
	RequesterName string     `json:"requester_name"`
	Contact       string     `json:"contact"`
	Need          string     `json:"need"` // rescue, medical, food, evacuation...
	Details       string     `json:"details"`
	Status        string     `gorm:"size:16;index;not null" json:"status"`
	Geometry      Geometry   `json:"geometry"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (EmergencyRequest) TableName() string { return "barangay.emergency_requests" }

func validEmergencyStatus(s string) bool {
	switch s {
	case EmergencyPending, EmergencyAcknowledged, EmergencyDispatched, EmergencyResolved:
		return true
	}
	return false
}
