package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"reference":"abc"}`)
	assert.True(t, verifySignature(sign(string(body)), body, testSecret))
	assert.False(t, verifySignature(sign(string(body)), []byte(`{"reference":"abd"}`), testSecret))
	assert.False(t, verifySignature(strings.TrimPrefix(sign(string(body)), "sha256="), body, testSecret))
	assert.False(t, verifySignature("", body, testSecret))
}

func TestPaymentWebhook_RejectsBadSignature(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)
	body := `{"document_number":"DOC-20260301-0042","reference":"r1","amount":"50","status":"paid"}`

	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	req.Header.Set(signatureHeader, "sha256=deadbeef")
	rr := httptest.NewRecorder()
	PaymentWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPaymentWebhook_MisconfiguredWithoutSecret(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "")
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	PaymentWebhook(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gdb, err := db.OpenWithConn(sqlDB)
	require.NoError(t, err)

	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() {
		db.DB = prev
		sqlDB.Close()
	})
	return mock
}

func TestPaymentWebhook_DuplicateReferenceIsIdempotent(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."payment_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	body := `{"document_number":"DOC-20260301-0042","reference":"r1","amount":"50","status":"paid"}`
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	req.Header.Set(signatureHeader, sign(body))
	rr := httptest.NewRecorder()
	PaymentWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"duplicate":true}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentWebhook_MarksDocumentPaid(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."payment_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "barangay"."issued_documents"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "barangay_id", "document_number", "fee", "payment_status", "issued_at"}).
			AddRow(uuid.NewString(), "brgy-1", "DOC-20260301-0042", "50.00", "unpaid", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "barangay"."issued_documents"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "barangay"."payment_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"document_number":"DOC-20260301-0042","reference":"r2","amount":"50.00","status":"PAID"}`
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	req.Header.Set(signatureHeader, sign(body))
	rr := httptest.NewRecorder()
	PaymentWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"applied":true}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentWebhook_UnderpaymentStoredOnly(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", testSecret)
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."payment_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "barangay"."issued_documents"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "barangay_id", "document_number", "fee", "payment_status"}).
			AddRow(uuid.NewString(), "brgy-1", "DOC-20260301-0042", "50.00", "unpaid"))
	mock.ExpectCommit()

	body := `{"document_number":"DOC-20260301-0042","reference":"r3","amount":"20","status":"paid"}`
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	req.Header.Set(signatureHeader, sign(body))
	rr := httptest.NewRecorder()
	PaymentWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"applied":false}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
