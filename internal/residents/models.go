package residents

import (
	"time"

	"github.com/google/uuid"
)

type Resident struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID  string     `gorm:"index;not null" json:"barangayId"`
	HouseholdID *uuid.UUID `gorm:"type:uuid;index" json:"householdId,omitempty"`

	FirstName   string     `gorm:"not null" json:"firstName"`
	MiddleName  string     `json:"middleName"`
	LastName    string     `gorm:"not null;index" json:"lastName"`
	Suffix      string     `json:"suffix"`
	BirthDate   *time.Time `gorm:"type:date" json:"birthDate,omitempty"`
	BirthPlace  string     `json:"birthPlace"`
	Sex         string     `json:"sex"`
	CivilStatus string     `json:"civilStatus"`
	Nationality string     `json:"nationality"`
	Religion    string     `json:"religion"`
	Occupation  string     `json:"occupation"`
	Contact     string     `json:"contactNumber"`
	Email       string     `json:"email"`

	// Address
	HouseNumber string `json:"houseNumber"`
	Street      string `json:"street"`
	Purok       string `gorm:"index" json:"purok"`
	Barangay    string `json:"barangay"`
	City        string `json:"city"`
	Province    string `json:"province"`
	Region      string `json:"region"`
	Country     string `json:"country"`

	// Eligibility
	IsVoter     bool `json:"isVoter"`
	IsPWD       bool `gorm:"column:is_pwd" json:"isPwd"`
	IsSenior    bool `json:"isSenior"`
	IsIndigent  bool `json:"isIndigent"`
	Is4Ps       bool `gorm:"column:is_4ps" json:"is4Ps"`
	YearsOfStay int  `json:"yearsOfStay"`

	PhotoURL  string    `json:"photoUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Resident) TableName() string { return "barangay.residents" }

// FullName joins the non-empty name parts.
func (r Resident) FullName() string {
	name := r.FirstName
	if r.MiddleName != "" {
		name += " " + r.MiddleName
	}
	name += " " + r.LastName
	if r.Suffix != "" {
		name += " " + r.Suffix
	}
	return name
}

// Age in whole years at t; -1 when the birth date is unknown.
func (r Resident) Age(t time.Time) int {
	if r.BirthDate == nil {
		return -1
	}
	b := *r.BirthDate
	age := t.Year() - b.Year()
	if t.Month() < b.Month() || (t.Month() == b.Month() && t.Day() < b.Day()) {
		age--
	}
	return age
}

type Household struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BarangayID      string     `gorm:"index;not null;uniqueIndex:idx_household_number" json:"barangayId"`
	HouseholdNumber string     `gorm:"not null;uniqueIndex:idx_household_number" json:"householdNumber"`
	HeadResidentID  *uuid.UUID `gorm:"type:uuid" json:"headResidentId,omitempty"`
	HouseNumber     string     `json:"houseNumber"`
	Street          string     `json:"street"`
	Purok           string     `json:"purok"`
	MonthlyIncome   string     `json:"monthlyIncome"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Members []Resident `gorm:"foreignKey:HouseholdID" json:"members,omitempty"`
}

func (Household) TableName() string { return "barangay.households" }
