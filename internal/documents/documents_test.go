package documents

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var docNumberRe = regexp.MustCompile(`^DOC-\d{8}-\d{4}$`)

func TestDocumentNumber_FormatHoldsForAnyTime(t *testing.T) {
	times := []time.Time{
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 12, 0, 0, 0, time.FixedZone("PHT", 8*3600)),
		time.Unix(0, 0).UTC(),
	}
	suffixes := []int{0, 7, 42, 999, 9999, 10000, 123456, -15}

	for _, ts := range times {
		for _, s := range suffixes {
			n := DocumentNumber(ts, s)
			assert.Regexp(t, docNumberRe, n, "time=%s suffix=%d", ts, s)
			assert.Equal(t, "DOC-"+ts.Format("20060102"), n[:12])
		}
	}
	assert.Equal(t, "DOC-20260301-0042", DocumentNumber(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), 42))
}

func TestExpiryDate(t *testing.T) {
	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	zero, neg, days := 0, -5, 30

	assert.Nil(t, ExpiryDate(issued, nil))
	assert.Nil(t, ExpiryDate(issued, &zero))
	assert.Nil(t, ExpiryDate(issued, &neg))

	exp := ExpiryDate(issued, &days)
	require.NotNil(t, exp)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *exp)
}

func TestMissingRequiredFields(t *testing.T) {
	required := map[string]string{"purpose": "Purpose", "cedula_no": "Cedula No.", "age": "Age"}
	form := map[string]interface{}{
		"purpose":   "employment",
		"cedula_no": "   ",
		"age":       float64(34),
	}
	assert.Equal(t, []string{"cedula_no"}, MissingRequiredFields(required, form))
	assert.Equal(t, []string{"age", "cedula_no", "purpose"}, MissingRequiredFields(required, nil))
	assert.Empty(t, MissingRequiredFields(nil, form))
}

func TestCheckTransition(t *testing.T) {
	allowed := [][2]string{
		{StatusRequest, StatusProcessing},
		{StatusProcessing, StatusReady},
		{StatusReady, StatusReleased},
		{StatusRequest, StatusRejected},
		{StatusProcessing, StatusRejected},
	}
	for _, p := range allowed {
		assert.NoError(t, CheckTransition(p[0], p[1]), "%s -> %s", p[0], p[1])
	}

	isAllowed := func(from, to string) bool {
		for _, p := range allowed {
			if p[0] == from && p[1] == to {
				return true
			}
		}
		return false
	}
	for _, from := range RequestStatuses() {
		for _, to := range RequestStatuses() {
			if isAllowed(from, to) {
				continue
			}
			err := CheckTransition(from, to)
			assert.True(t, errors.Is(err, ErrInvalidTransition), "%s -> %s should be rejected", from, to)
		}
	}
}

func TestStatusColor_TotalOverEnumeratedStatuses(t *testing.T) {
	all := append(PaymentStatuses(), RequestStatuses()...)
	for _, s := range all {
		assert.NotEqual(t, "gray", StatusColor(s), "status %q fell through to the default colour", s)
	}
	assert.Equal(t, "gray", StatusColor("archived"))
	assert.Equal(t, "gray", StatusColor(""))
}

func newMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	gdb, err := db.OpenWithConn(sqlDB)
	require.NoError(t, err)
	return gdb, mock
}

var typeColumns = []string{"id", "barangay_id", "name", "description", "fee", "validity_days", "required_fields", "is_active", "created_at", "updated_at"}

func expectType(mock sqlmock.Sqlmock, id uuid.UUID, active bool, required string) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "barangay"."document_types"`)).
		WillReturnRows(sqlmock.NewRows(typeColumns).
			AddRow(id.String(), "brgy-1", "Barangay Clearance", "", "50.00", int64(180), []byte(required), active, now, now))
}

func expectResident(mock sqlmock.Sqlmock, id uuid.UUID, n int) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."residents" WHERE id = $1 AND barangay_id = $2`)).
		WithArgs(id.String(), "brgy-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func withSuffixes(t *testing.T, seq ...int) {
	t.Helper()
	orig := suffixFn
	i := 0
	suffixFn = func() int {
		v := seq[i%len(seq)]
		i++
		return v
	}
	t.Cleanup(func() { suffixFn = orig })
}

func TestIssue_WritesDocumentAndActivityInOneTransaction(t *testing.T) {
	gdb, mock := newMock(t)
	withSuffixes(t, 42)
	typeID, residentID := uuid.New(), uuid.New()

	expectType(mock, typeID, true, `{"purpose":"Purpose"}`)
	mock.ExpectBegin()
	expectResident(mock, residentID, 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."issued_documents"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := Issue(context.Background(), gdb, IssueInput{
		BarangayID:     "brgy-1",
		DocumentTypeID: typeID,
		ResidentID:     residentID,
		FormData:       map[string]interface{}{"purpose": "employment"},
		IssuedBy:       "u1",
	}, activity.Entry{BarangayID: "brgy-1", UserID: "u1"})
	require.NoError(t, err)

	assert.Regexp(t, docNumberRe, doc.DocumentNumber)
	assert.True(t, doc.DocumentNumber[len(doc.DocumentNumber)-4:] == "0042")
	assert.Equal(t, PaymentUnpaid, doc.PaymentStatus)
	assert.Equal(t, "50", doc.Fee.String())
	require.NotNil(t, doc.ExpiresAt)
	assert.Equal(t, doc.IssuedAt.AddDate(0, 0, 180), *doc.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssue_RetriesOnNumberCollision(t *testing.T) {
	gdb, mock := newMock(t)
	withSuffixes(t, 1, 2)
	typeID, residentID := uuid.New(), uuid.New()

	expectType(mock, typeID, true, `{}`)
	mock.ExpectBegin()
	expectResident(mock, residentID, 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."issued_documents"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	expectResident(mock, residentID, 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."issued_documents"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := Issue(context.Background(), gdb, IssueInput{
		BarangayID:     "brgy-1",
		DocumentTypeID: typeID,
		ResidentID:     residentID,
	}, activity.Entry{BarangayID: "brgy-1"})
	require.NoError(t, err)
	assert.True(t, doc.DocumentNumber[len(doc.DocumentNumber)-4:] == "0002")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssue_MissingFieldsRollsBack(t *testing.T) {
	gdb, mock := newMock(t)
	typeID := uuid.New()

	expectType(mock, typeID, true, `{"purpose":"Purpose","cedula_no":"Cedula"}`)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := Issue(context.Background(), gdb, IssueInput{
		BarangayID:     "brgy-1",
		DocumentTypeID: typeID,
		ResidentID:     uuid.New(),
		FormData:       map[string]interface{}{"purpose": "school"},
	}, activity.Entry{})

	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"cedula_no"}, missing.Fields)
	assert.ErrorIs(t, err, ErrMissingRequiredFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssue_InactiveType(t *testing.T) {
	gdb, mock := newMock(t)
	typeID := uuid.New()

	expectType(mock, typeID, false, `{}`)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := Issue(context.Background(), gdb, IssueInput{BarangayID: "brgy-1", DocumentTypeID: typeID}, activity.Entry{})
	assert.ErrorIs(t, err, ErrTypeInactive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssue_RejectsResidentFromAnotherBarangay(t *testing.T) {
	gdb, mock := newMock(t)
	typeID, outsider := uuid.New(), uuid.New()

	expectType(mock, typeID, true, `{}`)
	mock.ExpectBegin()
	expectResident(mock, outsider, 0)
	mock.ExpectRollback()

	_, err := Issue(context.Background(), gdb, IssueInput{
		BarangayID:     "brgy-1",
		DocumentTypeID: typeID,
		ResidentID:     outsider,
	}, activity.Entry{})
	assert.ErrorIs(t, err, ErrResidentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing is inserted")
}

func TestIssueTx_NumberCarriesManilaDate(t *testing.T) {
	gdb, mock := newMock(t)
	withSuffixes(t, 7)
	residentID := uuid.New()

	expectResident(mock, residentID, 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."issued_documents"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	dt := DocumentType{ID: uuid.New(), BarangayID: "brgy-1", Name: "Indigency", IsActive: true}
	// 20:30 UTC on March 1 is already March 2 in Manila.
	now := time.Date(2026, 3, 1, 20, 30, 0, 0, time.UTC)
	doc, err := issueTx(gdb, dt, IssueInput{BarangayID: "brgy-1", ResidentID: residentID}, activity.Entry{BarangayID: "brgy-1"}, now)
	require.NoError(t, err)
	assert.Equal(t, "DOC-20260302-0007", doc.DocumentNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetTimezone(t *testing.T) {
	orig := zone
	t.Cleanup(func() { zone = orig })

	assert.Error(t, SetTimezone("Not/AZone"))
	require.NoError(t, SetTimezone("UTC"))
	assert.Equal(t, "UTC", zone.String())
}

func withGlobalDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	gdb, mock := newMock(t)
	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() { db.DB = prev })
	return mock
}

func adminRequest(method, body, id string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	ctx := utils.WithSession(req.Context(), utils.SessionData{UserID: "admin-1", BarangayID: "brgy-1", Role: "admin"})
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestDeleteType_DeactivatesWhenOnlyRequestsReferenceIt(t *testing.T) {
	mock := withGlobalDB(t)
	id := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."issued_documents" WHERE document_type_id = $1 AND barangay_id = $2`)).
		WithArgs(id, "brgy-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."document_requests" WHERE document_type_id = $1 AND barangay_id = $2`)).
		WithArgs(id, "brgy-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "barangay"."document_types" SET "is_active"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	DeleteType(rec, adminRequest(http.MethodDelete, "", id))

	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet(), "no DELETE is issued")
}

func TestCreateRequest_RejectsResidentFromAnotherBarangay(t *testing.T) {
	mock := withGlobalDB(t)
	typeID, outsider := uuid.New(), uuid.New()

	mock.ExpectBegin()
	expectType(mock, typeID, true, `{}`)
	expectResident(mock, outsider, 0)
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	body := `{"document_type_id":"` + typeID.String() + `","resident_id":"` + outsider.String() + `","purpose":"employment"}`
	CreateRequest(rec, adminRequest(http.MethodPost, body, ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var requestColumns = []string{"id", "barangay_id", "resident_id", "document_type_id", "purpose", "status"}

func TestTransition_RejectsInvalidMove(t *testing.T) {
	gdb, mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "barangay"."document_requests"`)).
		WillReturnRows(sqlmock.NewRows(requestColumns).
			AddRow(id.String(), "brgy-1", uuid.NewString(), uuid.NewString(), "", StatusReleased))
	mock.ExpectRollback()

	_, err := Transition(context.Background(), gdb, "brgy-1", id, StatusProcessing, "", activity.Entry{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransition_RejectFromRequest(t *testing.T) {
	gdb, mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "barangay"."document_requests"`)).
		WillReturnRows(sqlmock.NewRows(requestColumns).
			AddRow(id.String(), "brgy-1", uuid.NewString(), uuid.NewString(), "", StatusRequest))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "barangay"."document_requests"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, err := Transition(context.Background(), gdb, "brgy-1", id, StatusRejected, "incomplete requirements", activity.Entry{BarangayID: "brgy-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, req.Status)
	assert.Equal(t, "incomplete requirements", req.Remarks)
	assert.Equal(t, "red", req.StatusColor)
	assert.NoError(t, mock.ExpectationsWereMet())
}
