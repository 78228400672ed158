package activity

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAgent(t *testing.T) {
	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	info := ParseAgent(chrome)
	assert.Equal(t, "Chrome", info.Browser)
	assert.Equal(t, "120.0.0.0", info.Version)
	assert.Contains(t, info.OS, "Windows")
	assert.Equal(t, "desktop", info.Device)

	android := "Mozilla/5.0 (Linux; Android 13; SM-A536E) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Mobile Safari/537.36"
	assert.Equal(t, "mobile", ParseAgent(android).Device)

	empty := ParseAgent("   ")
	assert.Equal(t, "unknown", empty.Device)
	assert.Equal(t, "Unknown", empty.Browser)
}

func TestFilterFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/activity?user_id=u1&action=document.&from=2026-03-01&to=2026-03-31", nil)
	req = req.WithContext(utils.WithSession(req.Context(), utils.SessionData{UserID: "admin", BarangayID: "brgy-1"}))

	f := FilterFromRequest(req)

	assert.Equal(t, "brgy-1", f.BarangayID)
	assert.Equal(t, "u1", f.UserID)
	assert.Equal(t, "document.", f.Action)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, 2026, f.From.Year())
	assert.Equal(t, 23, f.To.Hour(), "to date includes the whole day")
}

func TestFilterFromRequest_BadDatesIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/activity?from=yesterday", nil)
	f := FilterFromRequest(req)
	assert.Nil(t, f.From)
	assert.Nil(t, f.To)
}

func TestRecord_RequiresAction(t *testing.T) {
	assert.ErrorIs(t, Record(nil, Entry{}), ErrMissingAction)
}

func TestRecord_InsertsRow(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := db.OpenWithConn(sqlDB)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = Record(gdb, Entry{
		BarangayID: "brgy-1",
		UserID:     "u1",
		Action:     ActionDocumentIssue,
		Details:    map[string]interface{}{"document_number": "DOC-20260301-0042"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
