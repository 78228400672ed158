package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/apex/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transition moves a request to status to. Releasing a request issues its
// document in the same transaction.
func Transition(ctx context.Context, d *gorm.DB, barangayID string, id uuid.UUID, to, remarks string, audit activity.Entry) (*DocRequest, error) {
	var req DocRequest
	var err error
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		err = d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			req = DocRequest{}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&req, "id = ? AND barangay_id = ?", id, barangayID).Error; err != nil {
				return err
			}
			if err := CheckTransition(req.Status, to); err != nil {
				return err
			}

			from := req.Status
			now := time.Now().UTC()

			if to == StatusReleased {
				var dt DocumentType
				if err := tx.First(&dt, "id = ? AND barangay_id = ?", req.DocumentTypeID, barangayID).Error; err != nil {
					return fmt.Errorf("load document type: %w", err)
				}
				doc, err := issueTx(tx, dt, IssueInput{
					BarangayID:     barangayID,
					DocumentTypeID: dt.ID,
					ResidentID:     req.ResidentID,
					RequestID:      &req.ID,
					Purpose:        req.Purpose,
					FormData:       req.FormData,
					IssuedBy:       audit.UserID,
				}, audit, now)
				if err != nil {
					return err
				}
				req.IssuedDocumentID = &doc.ID
			}

			req.Status = to
			if remarks != "" {
				req.Remarks = remarks
			}
			req.UpdatedAt = now
			if err := tx.Save(&req).Error; err != nil {
				return err
			}

			audit.Action = activity.ActionRequestTransition
			audit.Details = map[string]interface{}{
				"request_id": req.ID.String(),
				"from":       from,
				"to":         to,
			}
			return activity.Record(tx, audit)
		})
		if err == nil || !db.IsUniqueViolation(err) {
			break
		}
		log.WithField("attempt", attempt).Warn("[documents] document number collision on release, retrying")
	}
	if err != nil {
		return nil, err
	}
	req.StatusColor = StatusColor(req.Status)
	return &req, nil
}

// SetPayment updates payment fields on doc using tx.
func SetPayment(tx *gorm.DB, doc *IssuedDocument, status, reference string) error {
	if !validPayment(status) {
		return fmt.Errorf("unknown payment status %q", status)
	}
	doc.PaymentStatus = status
	if reference != "" {
		doc.PaymentReference = reference
	}
	return tx.Model(doc).Updates(map[string]interface{}{
		"payment_status":    doc.PaymentStatus,
		"payment_reference": doc.PaymentReference,
	}).Error
}
