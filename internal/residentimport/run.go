package residentimport

import (
	"errors"
	"fmt"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/residents"
	"github.com/apex/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Config struct {
	CSVPath    string
	BarangayID string
	Namespace  string
	ImportedBy string
	DryRun     bool
}

// Result summarises an import.
type Result struct {
	Residents  int
	Households int
}

func Run(d *gorm.DB, cfg Config) (Result, error) {
	if cfg.BarangayID == "" {
		return Result{}, errors.New("barangay id is required")
	}
	ns, err := uuid.Parse(cfg.Namespace)
	if err != nil {
		return Result{}, fmt.Errorf("invalid namespace uuid: %w", err)
	}

	rows, err := ParseCSVFile(cfg.CSVPath)
	if err != nil {
		return Result{}, err
	}

	households, people := Build(ns, cfg.BarangayID, rows)
	res := Result{Residents: len(people), Households: len(households)}
	if cfg.DryRun {
		log.WithFields(log.Fields{"residents": res.Residents, "households": res.Households}).Info("[residentimport] dry run")
		return res, nil
	}

	err = d.Transaction(func(tx *gorm.DB) error {
		if err := resolveHouseholds(tx, cfg.BarangayID, households, people); err != nil {
			return err
		}
		if len(households) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"street", "purok", "updated_at"}),
			}).Create(&households).Error; err != nil {
				return fmt.Errorf("upsert households: %w", err)
			}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"household_id", "sex", "purok", "street", "contact", "is_voter", "updated_at",
			}),
		}).CreateInBatches(&people, 500).Error; err != nil {
			return fmt.Errorf("upsert residents: %w", err)
		}

		return activity.Record(tx, activity.Entry{
			BarangayID: cfg.BarangayID,
			UserID:     cfg.ImportedBy,
			Action:     activity.ActionResidentImport,
			Details: map[string]interface{}{
				"file":       cfg.CSVPath,
				"residents":  res.Residents,
				"households": res.Households,
			},
		})
	})
	return res, err
}

// resolveHouseholds points households whose number already exists in the
// barangay (for example created through the API with a random id) at the
// stored row, so the upsert updates it instead of violating the
// (barangay_id, household_number) index. Members follow their household.
func resolveHouseholds(tx *gorm.DB, barangayID string, households []residents.Household, people []residents.Resident) error {
	if len(households) == 0 {
		return nil
	}
	numbers := make([]string, 0, len(households))
	for _, h := range households {
		numbers = append(numbers, h.HouseholdNumber)
	}

	var existing []residents.Household
	if err := tx.Where("barangay_id = ? AND household_number IN ?", barangayID, numbers).
		Find(&existing).Error; err != nil {
		return fmt.Errorf("load existing households: %w", err)
	}
	stored := make(map[string]uuid.UUID, len(existing))
	for _, h := range existing {
		stored[canon(h.HouseholdNumber)] = h.ID
	}

	remap := map[uuid.UUID]uuid.UUID{}
	for i := range households {
		h := &households[i]
		if id, ok := stored[canon(h.HouseholdNumber)]; ok && id != h.ID {
			remap[h.ID] = id
			h.ID = id
		}
	}
	if len(remap) == 0 {
		return nil
	}
	for i := range people {
		p := &people[i]
		if p.HouseholdID == nil {
			continue
		}
		if id, ok := remap[*p.HouseholdID]; ok {
			p.HouseholdID = &id
		}
	}
	log.WithField("households", len(remap)).Info("[residentimport] matched existing households by number")
	return nil
}

// Build turns parsed rows into household and resident models with
// deterministic ids. Households are keyed by household_number.
func Build(ns uuid.UUID, barangayID string, rows []Row) ([]residents.Household, []residents.Resident) {
	now := time.Now().UTC()
	hhByNumber := map[string]*residents.Household{}
	var hhOrder []string
	var people []residents.Resident
	seen := map[uuid.UUID]bool{}

	for _, r := range rows {
		var hhID *uuid.UUID
		if r.HouseholdNumber != "" {
			key := canon(r.HouseholdNumber)
			hh, ok := hhByNumber[key]
			if !ok {
				hh = &residents.Household{
					ID:              HouseholdID(ns, barangayID, r.HouseholdNumber),
					BarangayID:      barangayID,
					HouseholdNumber: r.HouseholdNumber,
					Street:          r.Street,
					Purok:           r.Purok,
					CreatedAt:       now,
					UpdatedAt:       now,
				}
				hhByNumber[key] = hh
				hhOrder = append(hhOrder, key)
			}
			id := hh.ID
			hhID = &id
		}

		id := ResidentID(ns, barangayID, r)
		if seen[id] {
			continue
		}
		seen[id] = true

		p := residents.Resident{
			ID:          id,
			BarangayID:  barangayID,
			HouseholdID: hhID,
			FirstName:   r.FirstName,
			MiddleName:  r.MiddleName,
			LastName:    r.LastName,
			Sex:         r.Sex,
			Purok:       r.Purok,
			Street:      r.Street,
			Contact:     r.Contact,
			IsVoter:     r.IsVoter,
			Country:     "Philippines",
			Nationality: "Filipino",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if r.BirthDate != "" {
			if b, err := time.Parse("2006-01-02", r.BirthDate); err == nil {
				p.BirthDate = &b
			}
		}
		people = append(people, p)
	}

	households := make([]residents.Household, 0, len(hhOrder))
	for _, k := range hhOrder {
		households = append(households, *hhByNumber[k])
	}
	return households, people
}
