package documents

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/residents"
	"github.com/apex/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const numberAttempts = 3

var (
	ErrTypeInactive          = errors.New("document type is inactive")
	ErrMissingRequiredFields = errors.New("missing required fields")
	ErrResidentNotFound      = errors.New("resident not found in this barangay")
)

// zone is the barangay's local time, used for the date in document numbers.
// Asia/Manila has no DST, so the fixed offset is exact until SetTimezone runs.
var zone = time.FixedZone("Asia/Manila", 8*60*60)

// SetTimezone sets the zone whose calendar date document numbers carry.
func SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", name, err)
	}
	zone = loc
	return nil
}

// suffixFn picks the random part of a document number.
var suffixFn = func() int { return rand.IntN(10000) }

// DocumentNumber formats DOC-YYYYMMDD-NNNN from the date of t.
func DocumentNumber(t time.Time, suffix int) string {
	suffix %= 10000
	if suffix < 0 {
		suffix = -suffix
	}
	return fmt.Sprintf("DOC-%s-%04d", t.Format("20060102"), suffix)
}

// ExpiryDate is nil when the type has no positive validity period.
func ExpiryDate(issuedAt time.Time, validityDays *int) *time.Time {
	if validityDays == nil || *validityDays <= 0 {
		return nil
	}
	exp := issuedAt.AddDate(0, 0, *validityDays)
	return &exp
}

// MissingRequiredFields returns the sorted required keys whose form values
// are absent or blank.
func MissingRequiredFields(required map[string]string, form map[string]interface{}) []string {
	var missing []string
	for key := range required {
		v, ok := form[key]
		if !ok || v == nil {
			missing = append(missing, key)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// MissingFieldsError carries the offending keys.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingRequiredFields, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingRequiredFields }

type IssueInput struct {
	BarangayID     string
	DocumentTypeID uuid.UUID
	ResidentID     uuid.UUID
	RequestID      *uuid.UUID
	Purpose        string
	FormData       map[string]interface{}
	IssuedBy       string
	// Waive issues the document with payment status waived.
	Waive bool
}

// residentInBarangay returns ErrResidentNotFound unless the resident is
// registered in the barangay.
func residentInBarangay(tx *gorm.DB, id uuid.UUID, barangayID string) error {
	var n int64
	if err := tx.Model(&residents.Resident{}).
		Where("id = ? AND barangay_id = ?", id, barangayID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrResidentNotFound
	}
	return nil
}

// Issue creates an issued document and its activity row in one transaction.
// A document number collision retries with a fresh suffix.
func Issue(ctx context.Context, d *gorm.DB, in IssueInput, audit activity.Entry) (*IssuedDocument, error) {
	var dt DocumentType
	if err := d.WithContext(ctx).First(&dt, "id = ? AND barangay_id = ?", in.DocumentTypeID, in.BarangayID).Error; err != nil {
		return nil, err
	}

	var doc *IssuedDocument
	var err error
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		err = d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txErr error
			doc, txErr = issueTx(tx, dt, in, audit, time.Now().UTC())
			return txErr
		})
		if err == nil || !db.IsUniqueViolation(err) {
			break
		}
		log.WithField("attempt", attempt).Warn("[documents] document number collision, retrying")
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// issueTx does the writes of Issue on an open transaction.
func issueTx(tx *gorm.DB, dt DocumentType, in IssueInput, audit activity.Entry, now time.Time) (*IssuedDocument, error) {
	if !dt.IsActive {
		return nil, ErrTypeInactive
	}
	required, err := dt.Fields()
	if err != nil {
		return nil, fmt.Errorf("decode required fields: %w", err)
	}
	if missing := MissingRequiredFields(required, in.FormData); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}
	if err := residentInBarangay(tx, in.ResidentID, in.BarangayID); err != nil {
		return nil, err
	}

	status := PaymentUnpaid
	if in.Waive || dt.Fee.IsZero() {
		status = PaymentWaived
	}

	doc := &IssuedDocument{
		ID:             uuid.New(),
		BarangayID:     in.BarangayID,
		DocumentNumber: DocumentNumber(now.In(zone), suffixFn()),
		DocumentTypeID: dt.ID,
		ResidentID:     in.ResidentID,
		RequestID:      in.RequestID,
		Purpose:        in.Purpose,
		FormData:       in.FormData,
		Fee:            dt.Fee,
		PaymentStatus:  status,
		IssuedBy:       in.IssuedBy,
		IssuedAt:       now,
		ExpiresAt:      ExpiryDate(now, dt.ValidityDays),
	}
	if err := tx.Create(doc).Error; err != nil {
		return nil, err
	}

	audit.Action = activity.ActionDocumentIssue
	audit.Details = map[string]interface{}{
		"document_id":     doc.ID.String(),
		"document_number": doc.DocumentNumber,
		"document_type":   dt.Name,
		"resident_id":     doc.ResidentID.String(),
	}
	if err := activity.Record(tx, audit); err != nil {
		return nil, err
	}

	doc.StatusColor = StatusColor(doc.PaymentStatus)
	return doc, nil
}
