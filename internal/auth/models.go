package auth

import "time"

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

// User is a barangay staff account.
type User struct {
	UserID         string  `gorm:"primaryKey" json:"user_id"`
	Username       string  `gorm:"uniqueIndex;not null" json:"username"`
	Password       string  `json:"password,omitempty" gorm:"-"`
	HashedPassword string  `json:"-"`
	FullName       string  `json:"full_name"`
	Role           string  `gorm:"default:'staff'" json:"role"` // admin, staff
	BarangayID     string  `gorm:"index" json:"barangay_id"`
	Session        Session `gorm:"foreignKey:UserID" json:"-"`
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// SessionTTL is how long a login stays valid.
const SessionTTL = 6 * time.Hour

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.users" }
