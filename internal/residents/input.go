package residents

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNameRequired    = errors.New("first name and last name are required")
	ErrFutureBirthDate = errors.New("birth date cannot be in the future")
	ErrInvalidSex      = errors.New("sex must be male or female")
	ErrInvalidDate     = errors.New("birth date must be YYYY-MM-DD")
)

// ResidentInput is the form payload. Older clients sent the address under
// provinze/barangaydb/regional/countryph; those keys are read as aliases and
// never written back.
type ResidentInput struct {
	HouseholdID *uuid.UUID `json:"householdId"`
	FirstName   string     `json:"firstName"`
	MiddleName  string     `json:"middleName"`
	LastName    string     `json:"lastName"`
	Suffix      string     `json:"suffix"`
	BirthDate   string     `json:"birthDate"`
	BirthPlace  string     `json:"birthPlace"`
	Sex         string     `json:"sex"`
	CivilStatus string     `json:"civilStatus"`
	Nationality string     `json:"nationality"`
	Religion    string     `json:"religion"`
	Occupation  string     `json:"occupation"`
	Contact     string     `json:"contactNumber"`
	Email       string     `json:"email"`
	HouseNumber string     `json:"houseNumber"`
	Street      string     `json:"street"`
	Purok       string     `json:"purok"`
	Barangay    string     `json:"barangay"`
	City        string     `json:"city"`
	Province    string     `json:"province"`
	Region      string     `json:"region"`
	Country     string     `json:"country"`
	IsVoter     bool       `json:"isVoter"`
	IsPWD       bool       `json:"isPwd"`
	IsSenior    bool       `json:"isSenior"`
	IsIndigent  bool       `json:"isIndigent"`
	Is4Ps       bool       `json:"is4Ps"`
	YearsOfStay int        `json:"yearsOfStay"`
	PhotoURL    string     `json:"photoUrl"`
}

func (in *ResidentInput) UnmarshalJSON(data []byte) error {
	type plain ResidentInput
	var aux struct {
		plain
		Provinze   string `json:"provinze"`
		BarangayDB string `json:"barangaydb"`
		Regional   string `json:"regional"`
		CountryPH  string `json:"countryph"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*in = ResidentInput(aux.plain)
	in.Province = firstNonEmpty(in.Province, aux.Provinze)
	in.Barangay = firstNonEmpty(in.Barangay, aux.BarangayDB)
	in.Region = firstNonEmpty(in.Region, aux.Regional)
	in.Country = firstNonEmpty(in.Country, aux.CountryPH)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Validate checks the input against now.
func (in ResidentInput) Validate(now time.Time) error {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return ErrNameRequired
	}
	if in.BirthDate != "" {
		b, err := time.Parse("2006-01-02", in.BirthDate)
		if err != nil {
			return ErrInvalidDate
		}
		if b.After(now) {
			return ErrFutureBirthDate
		}
	}
	switch strings.ToLower(strings.TrimSpace(in.Sex)) {
	case "", "male", "female":
	default:
		return ErrInvalidSex
	}
	return nil
}

// ApplyTo copies the input onto r. Call Validate first.
func (in ResidentInput) ApplyTo(r *Resident) error {
	r.HouseholdID = in.HouseholdID
	r.FirstName = strings.TrimSpace(in.FirstName)
	r.MiddleName = strings.TrimSpace(in.MiddleName)
	r.LastName = strings.TrimSpace(in.LastName)
	r.Suffix = strings.TrimSpace(in.Suffix)
	r.BirthDate = nil
	if in.BirthDate != "" {
		b, err := time.Parse("2006-01-02", in.BirthDate)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, in.BirthDate)
		}
		r.BirthDate = &b
	}
	r.BirthPlace = in.BirthPlace
	r.Sex = strings.ToLower(strings.TrimSpace(in.Sex))
	r.CivilStatus = in.CivilStatus
	r.Nationality = firstNonEmpty(in.Nationality, "Filipino")
	r.Religion = in.Religion
	r.Occupation = in.Occupation
	r.Contact = in.Contact
	r.Email = in.Email
	r.HouseNumber = in.HouseNumber
	r.Street = in.Street
	r.Purok = in.Purok
	r.Barangay = in.Barangay
	r.City = in.City
	r.Province = in.Province
	r.Region = in.Region
	r.Country = firstNonEmpty(in.Country, "Philippines")
	r.IsVoter = in.IsVoter
	r.IsPWD = in.IsPWD
	r.IsSenior = in.IsSenior
	r.IsIndigent = in.IsIndigent
	r.Is4Ps = in.Is4Ps
	r.YearsOfStay = in.YearsOfStay
	r.PhotoURL = in.PhotoURL
	return nil
}
