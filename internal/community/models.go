package community

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Base carries the identity and scope every community record shares.
type Base struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID string    `gorm:"index;not null" json:"barangay_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (b *Base) meta() *Base { return b }

type Announcement struct {
	Base
	Title       string         `gorm:"not null" json:"title"`
	Body        string         `json:"body"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	Pinned      bool           `json:"pinned"`
	PublishedAt *time.Time     `gorm:"index" json:"published_at"`
	CreatedBy   string         `json:"created_by"`
}

func (Announcement) TableName() string { return "barangay.announcements" }

type Event struct {
	Base
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `gorm:"index" json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

func (Event) TableName() string { return "barangay.events" }

type Official struct {
	Base
	Name      string     `gorm:"not null" json:"name"`
	Position  string     `gorm:"not null" json:"position"` // Punong Barangay, Kagawad, SK Chairperson...
	Committee string     `json:"committee"`
	TermStart *time.Time `gorm:"type:date" json:"term_start"`
	TermEnd   *time.Time `gorm:"type:date" json:"term_end"`
	Contact   string     `json:"contact"`
	SortOrder int        `json:"sort_order"`
}

func (Official) TableName() string { return "barangay.officials" }

type EmergencyContact struct {
	Base
	Agency      string `gorm:"not null" json:"agency"`
	Phone       string `gorm:"not null" json:"phone"`
	Description string `json:"description"`
}

func (EmergencyContact) TableName() string { return "barangay.emergency_contacts" }
