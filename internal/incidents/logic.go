package incidents

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidStatus    = errors.New("invalid incident status")
	ErrInvalidRole      = errors.New("party role must be complainant, respondent or witness")
	ErrInvalidRiskLevel = errors.New("risk_level must be low, medium or high")
	ErrPartyName        = errors.New("party name is required")
)

// PartyCounts counts complainants and respondents in parties.
func PartyCounts(parties []IncidentParty) (complainants, respondents int) {
	for _, p := range parties {
		switch p.Role {
		case RoleComplainant:
			complainants++
		case RoleRespondent:
			respondents++
		}
	}
	return complainants, respondents
}

// withCounts fills the derived count fields from Parties.
func (r *IncidentReport) withCounts() {
	r.ComplainantCount, r.RespondentCount = PartyCounts(r.Parties)
}

// CaseNumber formats BLT-YYYY-NNNNNN where seq is the report's ordinal in its year.
func CaseNumber(year, seq int) string {
	return fmt.Sprintf("BLT-%04d-%06d", year, seq)
}

// Statuses lists every incident status in workflow order.
func Statuses() []string {
	return []string{StatusOpen, StatusUnderMediation, StatusSettled, StatusEscalated, StatusClosed}
}

func validStatus(s string) bool {
	switch s {
	case StatusOpen, StatusUnderMediation, StatusSettled, StatusEscalated, StatusClosed:
		return true
	}
	return false
}

func validRole(s string) bool {
	switch s {
	case RoleComplainant, RoleRespondent, RoleWitness:
		return true
	}
	return false
}

func validRisk(s string) bool {
	switch s {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

func normalizeParty(p *IncidentParty) error {
	p.Role = strings.ToLower(strings.TrimSpace(p.Role))
	p.Name = strings.TrimSpace(p.Name)
	if !validRole(p.Role) {
		return ErrInvalidRole
	}
	if p.Name == "" {
		return ErrPartyName
	}
	return nil
}

func normalizeFlag(f *FlaggedIndividual) error {
	f.RiskLevel = strings.ToLower(strings.TrimSpace(f.RiskLevel))
	f.Name = strings.TrimSpace(f.Name)
	if !validRisk(f.RiskLevel) {
		return ErrInvalidRiskLevel
	}
	if f.Name == "" {
		return ErrPartyName
	}
	return nil
}

// yearBounds returns [start of year, start of next year) in loc.
func yearBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(1, 0, 0)
}
