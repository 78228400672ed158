package residents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func staffRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(utils.WithSession(req.Context(), utils.SessionData{
		UserID: "clerk-1", BarangayID: "brgy-1", Role: "staff",
	}))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateResident_WritesRowAndActivity(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."residents"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	CreateResident(rec, staffRequest(http.MethodPost, "/", `{"firstName":"Juan","lastName":"Dela Cruz","sex":"male","purok":"3","provinze":"Laguna"}`))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"province":"Laguna"`)
	assert.Contains(t, rec.Body.String(), `"barangayId":"brgy-1"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateResident_RejectsMissingNames(t *testing.T) {
	mock := withMockDB(t)

	rec := httptest.NewRecorder()
	CreateResident(rec, staffRequest(http.MethodPost, "/", `{"firstName":"Juan"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "validation fails before any query")
}

func TestCreateResident_ActivityFailureRollsBack(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."residents"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	CreateResident(rec, staffRequest(http.MethodPost, "/", `{"firstName":"Ana","lastName":"Reyes"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteResident_NotFound(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "barangay"."residents"`)).
		WithArgs("5f0c1d4e-0000-4000-8000-000000000001", "brgy-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	DeleteResident(rec, withID(staffRequest(http.MethodDelete, "/", ""), "5f0c1d4e-0000-4000-8000-000000000001"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

const (
	localResident   = "5f0c1d4e-0000-4000-8000-0000000000a1"
	foreignResident = "5f0c1d4e-0000-4000-8000-0000000000b1"
	foreignHH       = "5f0c1d4e-0000-4000-8000-0000000000b2"
)

func TestCreateHousehold_RejectsHeadFromAnotherBarangay(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."residents" WHERE id = $1 AND barangay_id = $2`)).
		WithArgs(foreignResident, "brgy-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	CreateHousehold(rec, staffRequest(http.MethodPost, "/", `{"householdNumber":"HH-7","headResidentId":"`+foreignResident+`"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert and no head update")
}

func TestCreateHousehold_HeadUpdateIsScoped(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."residents"`)).
		WithArgs(localResident, "brgy-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."households"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "barangay"."residents" SET "household_id"=$1,"updated_at"=$2 WHERE id = $3 AND barangay_id = $4`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), localResident, "brgy-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	CreateHousehold(rec, staffRequest(http.MethodPost, "/", `{"householdNumber":"HH-7","headResidentId":"`+localResident+`"}`))

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHousehold_DuplicateNumberConflicts(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."households"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_household_number\""})
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	CreateHousehold(rec, staffRequest(http.MethodPost, "/", `{"householdNumber":"HH-7"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), "duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateHousehold_RejectsHeadFromAnotherBarangay(t *testing.T) {
	mock := withMockDB(t)
	const hh = "5f0c1d4e-0000-4000-8000-0000000000a2"

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "barangay"."households" WHERE id = $1 AND barangay_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "barangay_id", "household_number"}).AddRow(hh, "brgy-1", "HH-7"))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."residents"`)).
		WithArgs(foreignResident, "brgy-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	UpdateHousehold(rec, withID(staffRequest(http.MethodPut, "/", `{"headResidentId":"`+foreignResident+`"}`), hh))

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateResident_RejectsHouseholdFromAnotherBarangay(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."households" WHERE id = $1 AND barangay_id = $2`)).
		WithArgs(foreignHH, "brgy-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	CreateResident(rec, staffRequest(http.MethodPost, "/", `{"firstName":"Ana","lastName":"Reyes","householdId":"`+foreignHH+`"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHouseholdMembers_OnlyLoadsOwnBarangay(t *testing.T) {
	mock := withMockDB(t)
	const hh = "5f0c1d4e-0000-4000-8000-0000000000a2"

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "barangay"."households" WHERE id = $1 AND barangay_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "barangay_id", "household_number"}).AddRow(hh, "brgy-1", "HH-7"))
	mock.ExpectQuery(`SELECT \* FROM "barangay"."residents" WHERE .*barangay_id = \$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "barangay_id", "household_id", "first_name", "last_name"}).
			AddRow(localResident, "brgy-1", hh, "Juan", "Dela Cruz"))

	rec := httptest.NewRecorder()
	GetHouseholdMembers(rec, withID(staffRequest(http.MethodGet, "/", ""), hh))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Dela Cruz")
	assert.NoError(t, mock.ExpectationsWereMet())
}
