package incidents

import (
	"context"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Create stores a report with its parties and flags, numbering it within
// its barangay and year. Everything, including the activity row, commits
// together.
func Create(ctx context.Context, d *gorm.DB, report *IncidentReport, audit activity.Entry) error {
	report.Title = strings.TrimSpace(report.Title)
	if report.Title == "" {
		return ErrTitleRequired
	}
	if report.Status == "" {
		report.Status = StatusOpen
	}
	if !validStatus(report.Status) {
		return ErrInvalidStatus
	}
	for i := range report.Parties {
		if err := normalizeParty(&report.Parties[i]); err != nil {
			return err
		}
	}
	for i := range report.Flagged {
		if err := normalizeFlag(&report.Flagged[i]); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	report.ID = uuid.New()
	report.CreatedAt = now
	report.UpdatedAt = now
	for i := range report.Parties {
		report.Parties[i].ID = uuid.New()
		report.Parties[i].IncidentID = report.ID
		report.Parties[i].CreatedAt = now
	}
	for i := range report.Flagged {
		report.Flagged[i].ID = uuid.New()
		report.Flagged[i].IncidentID = report.ID
		report.Flagged[i].BarangayID = report.BarangayID
		report.Flagged[i].CreatedAt = now
	}

	return d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialises numbering per barangay for the life of the transaction.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "blotter:"+report.BarangayID).Error; err != nil {
			return err
		}

		start, end := yearBounds(now)
		var count int64
		if err := tx.Model(&IncidentReport{}).
			Where("barangay_id = ? AND created_at >= ? AND created_at < ?", report.BarangayID, start, end).
			Count(&count).Error; err != nil {
			return err
		}
		report.CaseNumber = CaseNumber(now.Year(), int(count)+1)

		if err := tx.Omit("Parties", "Flagged").Create(report).Error; err != nil {
			return err
		}
		if len(report.Parties) > 0 {
			if err := tx.Create(&report.Parties).Error; err != nil {
				return err
			}
		}
		if len(report.Flagged) > 0 {
			if err := tx.Create(&report.Flagged).Error; err != nil {
				return err
			}
		}

		report.withCounts()
		audit.Action = activity.ActionIncidentCreate
		audit.Details = map[string]interface{}{
			"incident_id":       report.ID.String(),
			"case_number":       report.CaseNumber,
			"complainant_count": report.ComplainantCount,
			"respondent_count":  report.RespondentCount,
			"flagged":           len(report.Flagged),
		}
		return activity.Record(tx, audit)
	})
}
