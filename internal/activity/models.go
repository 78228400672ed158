package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityLog is an append-only audit record.
type ActivityLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID string            `gorm:"index;not null" json:"barangay_id"`
	UserID     string            `gorm:"index" json:"user_id"`
	Action     string            `gorm:"size:64;index;not null" json:"action"`
	Details    datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	IP         string            `gorm:"size:64" json:"ip"`
	Agent      string            `json:"agent"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "barangay.activity_logs" }

// Entry is what callers hand to Record.
type Entry struct {
	BarangayID string
	UserID     string
	Action     string
	Details    map[string]interface{}
	IP         string
	Agent      string
}

// Action names written by the modules.
const (
	ActionLogin             = "auth.login"
	ActionLogout            = "auth.logout"
	ActionResidentCreate    = "resident.create"
	ActionResidentUpdate    = "resident.update"
	ActionResidentDelete    = "resident.delete"
	ActionResidentImport    = "resident.import"
	ActionHouseholdCreate   = "household.create"
	ActionHouseholdUpdate   = "household.update"
	ActionHouseholdDelete   = "household.delete"
	ActionDocumentIssue     = "document.issue"
	ActionDocumentPayment   = "document.payment"
	ActionDocTypeCreate     = "document_type.create"
	ActionDocTypeUpdate     = "document_type.update"
	ActionDocTypeDelete     = "document_type.delete"
	ActionRequestCreate     = "doc_request.create"
	ActionRequestTransition = "doc_request.transition"
	ActionIncidentCreate    = "incident.create"
	ActionIncidentUpdate    = "incident.update"
	ActionIncidentFlag      = "incident.flag"
	ActionShapeCreate       = "map.shape_create"
	ActionShapeUpdate       = "map.shape_update"
	ActionShapeDelete       = "map.shape_delete"
	ActionEmergencyUpdate   = "map.emergency_update"
	ActionCommunityPublish  = "community.publish"
	ActionCommunityDelete   = "community.delete"
	ActionFAQCreate         = "chat_faq.create"
	ActionFAQUpdate         = "chat_faq.update"
	ActionFAQDelete         = "chat_faq.delete"
)
