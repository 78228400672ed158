package residentimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type Row struct {
	FirstName       string
	MiddleName      string
	LastName        string
	BirthDate       string
	Sex             string
	Purok           string
	Street          string
	HouseholdNumber string
	Contact         string
	IsVoter         bool
}

var requiredColumns = []string{
	"first_name", "last_name", "birth_date", "sex", "purok", "street", "household_number",
}

func ParseCSVFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(bufio.NewReader(f))
}

func ParseCSV(src io.Reader) ([]Row, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("csv has no data rows")
	}

	header := records[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for _, k := range requiredColumns {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	var out []Row
	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		row := Row{
			FirstName:       get("first_name"),
			MiddleName:      get("middle_name"),
			LastName:        get("last_name"),
			BirthDate:       get("birth_date"),
			Sex:             strings.ToLower(get("sex")),
			Purok:           get("purok"),
			Street:          get("street"),
			HouseholdNumber: get("household_number"),
			Contact:         get("contact"),
			IsVoter:         truthy(get("is_voter")),
		}

		if row.FirstName == "" || row.LastName == "" {
			return nil, fmt.Errorf("row %d: first_name and last_name are required", rowIdx+1)
		}
		if row.BirthDate != "" {
			if _, err := time.Parse("2006-01-02", row.BirthDate); err != nil {
				return nil, fmt.Errorf("row %d: birth_date must be YYYY-MM-DD (got %q)", rowIdx+1, row.BirthDate)
			}
		}
		switch row.Sex {
		case "", "male", "female":
		case "m":
			row.Sex = "male"
		case "f":
			row.Sex = "female"
		default:
			return nil, fmt.Errorf("row %d: sex must be male or female (got %q)", rowIdx+1, row.Sex)
		}

		out = append(out, row)
	}

	return out, nil
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "oo":
		return true
	}
	return false
}
