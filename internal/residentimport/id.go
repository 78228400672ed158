package residentimport

import (
	"strings"

	"github.com/google/uuid"
)

func v5(ns uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(name))
}

func canon(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(s)), " "))
}

// ResidentID is stable for the same barangay, name and birth date, so a
// re-import updates rows instead of duplicating them.
func ResidentID(ns uuid.UUID, barangayID string, r Row) uuid.UUID {
	return v5(ns, "resident:"+barangayID+":"+canon(r.FirstName)+":"+canon(r.MiddleName)+":"+canon(r.LastName)+":"+r.BirthDate)
}

func HouseholdID(ns uuid.UUID, barangayID, number string) uuid.UUID {
	return v5(ns, "household:"+barangayID+":"+canon(number))
}
