package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/documents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/middleware"
	"github.com/apex/log"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const signatureHeader = "X-Payment-Signature"

var ErrDuplicate = errors.New("payment reference already processed")

func PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.Body.Close()

	secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
	if secret == "" {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}
	if !verifySignature(r.Header.Get(signatureHeader), raw, secret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var n notification
	if err := json.Unmarshal(raw, &n); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if n.Reference == "" || n.DocumentNumber == "" {
		http.Error(w, "missing reference or document_number", http.StatusBadRequest)
		return
	}

	var applied bool
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		applied, txErr = Apply(tx, n, raw, middleware.ClientIP(r), r.UserAgent())
		return txErr
	})
	switch {
	case errors.Is(err, ErrDuplicate):
		writeOK(w, `{"ok":true,"duplicate":true}`)
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "unknown document", http.StatusNotFound)
		return
	case err != nil:
		log.WithError(err).WithField("reference", n.Reference).Error("[payments] webhook failed")
		http.Error(w, "db write failed", http.StatusInternalServerError)
		return
	}

	if applied {
		writeOK(w, `{"ok":true,"applied":true}`)
		return
	}
	writeOK(w, `{"ok":true,"applied":false}`)
}

func writeOK(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// Apply stores the event and marks the document paid when the payment
// succeeded and covers the fee. A reference seen before yields ErrDuplicate.
func Apply(tx *gorm.DB, n notification, raw []byte, ip, agent string) (bool, error) {
	evt := Event{
		ID:             uuid.New(),
		Reference:      n.Reference,
		DocumentNumber: n.DocumentNumber,
		Amount:         n.Amount,
		Status:         strings.ToLower(n.Status),
		Payload:        datatypes.JSON(raw),
		ReceivedAt:     time.Now().UTC(),
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoNothing: true,
	}).Create(&evt)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, ErrDuplicate
	}

	var doc documents.IssuedDocument
	if err := tx.First(&doc, "document_number = ?", n.DocumentNumber).Error; err != nil {
		return false, err
	}

	if !succeeded(evt.Status) || evt.Amount.LessThan(doc.Fee) || doc.PaymentStatus != documents.PaymentUnpaid {
		log.WithFields(log.Fields{
			"reference": n.Reference,
			"status":    evt.Status,
			"amount":    evt.Amount.String(),
			"fee":       doc.Fee.String(),
		}).Info("[payments] notification stored without applying")
		return false, nil
	}

	if err := documents.SetPayment(tx, &doc, documents.PaymentPaid, n.Reference); err != nil {
		return false, err
	}
	if err := tx.Model(&evt).Update("applied", true).Error; err != nil {
		return false, err
	}
	return true, activity.Record(tx, activity.Entry{
		BarangayID: doc.BarangayID,
		Action:     activity.ActionDocumentPayment,
		Details: map[string]interface{}{
			"document_id":       doc.ID.String(),
			"payment_status":    doc.PaymentStatus,
			"payment_reference": n.Reference,
			"source":            "webhook",
		},
		IP:    ip,
		Agent: agent,
	})
}

func succeeded(status string) bool {
	switch status {
	case "paid", "succeeded", "success", "completed":
		return true
	}
	return false
}

func verifySignature(sig string, raw []byte, secret string) bool {
	if !strings.HasPrefix(sig, "sha256=") {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(expected))
}
