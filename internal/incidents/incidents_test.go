package incidents

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartyCounts_MatchesFilteredCountsForAnyDistribution(t *testing.T) {
	roles := []string{RoleComplainant, RoleRespondent, RoleWitness}

	// Every role sequence up to length 4, including none of a role.
	var walk func(prefix []IncidentParty, depth int)
	walk = func(prefix []IncidentParty, depth int) {
		wantC, wantR := 0, 0
		for _, p := range prefix {
			if p.Role == RoleComplainant {
				wantC++
			}
			if p.Role == RoleRespondent {
				wantR++
			}
		}
		c, r := PartyCounts(prefix)
		assert.Equal(t, wantC, c)
		assert.Equal(t, wantR, r)

		if depth == 0 {
			return
		}
		for _, role := range roles {
			walk(append(append([]IncidentParty{}, prefix...), IncidentParty{Role: role}), depth-1)
		}
	}
	walk(nil, 4)
}

func TestReportWithCounts(t *testing.T) {
	r := IncidentReport{Parties: []IncidentParty{
		{Role: RoleRespondent}, {Role: RoleRespondent}, {Role: RoleWitness},
	}}
	r.withCounts()
	assert.Equal(t, 0, r.ComplainantCount)
	assert.Equal(t, 2, r.RespondentCount)
}

func TestCaseNumber(t *testing.T) {
	assert.Equal(t, "BLT-2026-000001", CaseNumber(2026, 1))
	assert.Equal(t, "BLT-2026-012345", CaseNumber(2026, 12345))
}

func TestNormalizeParty(t *testing.T) {
	p := IncidentParty{Role: " Complainant ", Name: " Juan Dela Cruz "}
	require.NoError(t, normalizeParty(&p))
	assert.Equal(t, RoleComplainant, p.Role)
	assert.Equal(t, "Juan Dela Cruz", p.Name)

	assert.ErrorIs(t, normalizeParty(&IncidentParty{Role: "suspect", Name: "x"}), ErrInvalidRole)
	assert.ErrorIs(t, normalizeParty(&IncidentParty{Role: RoleWitness}), ErrPartyName)
}

func TestNormalizeFlag(t *testing.T) {
	f := FlaggedIndividual{Name: "Pedro", RiskLevel: "HIGH"}
	require.NoError(t, normalizeFlag(&f))
	assert.Equal(t, RiskHigh, f.RiskLevel)
	assert.ErrorIs(t, normalizeFlag(&FlaggedIndividual{Name: "x", RiskLevel: "severe"}), ErrInvalidRiskLevel)
}

func TestCreate_ValidationHappensBeforeAnyWrite(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	gdb, err := db.OpenWithConn(sqlDB)
	require.NoError(t, err)

	err = Create(context.Background(), gdb, &IncidentReport{Title: "  "}, activity.Entry{})
	assert.ErrorIs(t, err, ErrTitleRequired)

	err = Create(context.Background(), gdb, &IncidentReport{Title: "Noise", Status: "pending"}, activity.Entry{})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_WritesReportPartiesFlagsAndActivity(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	gdb, err := db.OpenWithConn(sqlDB)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."incident_reports"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."incident_reports"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."incident_parties"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."flagged_individuals"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "barangay"."activity_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	report := IncidentReport{
		BarangayID: "brgy-1",
		Title:      "Boundary dispute",
		Parties: []IncidentParty{
			{Role: "complainant", Name: "Ana"},
			{Role: "respondent", Name: "Ben"},
		},
		Flagged: []FlaggedIndividual{{Name: "Ben", RiskLevel: "medium", Reasons: []string{"repeat complaints"}}},
	}
	require.NoError(t, Create(context.Background(), gdb, &report, activity.Entry{BarangayID: "brgy-1"}))

	assert.Regexp(t, `^BLT-\d{4}-000042$`, report.CaseNumber)
	assert.Equal(t, StatusOpen, report.Status)
	assert.Equal(t, 1, report.ComplainantCount)
	assert.Equal(t, 1, report.RespondentCount)
	assert.Equal(t, report.ID, report.Parties[0].IncidentID)
	assert.Equal(t, "brgy-1", report.Flagged[0].BarangayID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
