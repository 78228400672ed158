package residents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrForeignReference marks a household or resident id outside the session barangay.
var ErrForeignReference = errors.New("referenced record does not belong to this barangay")

func barangayOf(r *http.Request) string {
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())
	return brgy
}

// ensureInBarangay returns ErrForeignReference unless model has a row with id in brgy.
func ensureInBarangay(tx *gorm.DB, model interface{}, id uuid.UUID, brgy string) error {
	var n int64
	if err := tx.Model(model).Where("id = ? AND barangay_id = ?", id, brgy).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrForeignReference
	}
	return nil
}

// writeTxError maps transaction errors shared by the resident and household writes.
func writeTxError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, ErrForeignReference):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, what+" not found", http.StatusNotFound)
	case db.IsUniqueViolation(err):
		http.Error(w, what+" already exists", http.StatusConflict)
	default:
		log.WithError(err).Errorf("[%s] write failed", strings.ToLower(what))
		http.Error(w, "Failed to save "+strings.ToLower(what), http.StatusInternalServerError)
	}
}

// ListResidents supports q (name search), household_id, purok and paging.
func ListResidents(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r, 25, 200)
	query := db.DB.Model(&Resident{}).Where("barangay_id = ?", barangayOf(r))

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		for _, tok := range strings.Fields(q) {
			like := "%" + tok + "%"
			query = query.Where("(first_name ILIKE ? OR middle_name ILIKE ? OR last_name ILIKE ?)", like, like, like)
		}
	}
	if hh := r.URL.Query().Get("household_id"); hh != "" {
		query = query.Where("household_id = ?", hh)
	}
	if purok := r.URL.Query().Get("purok"); purok != "" {
		query = query.Where("purok = ?", purok)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Failed to fetch residents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var residents []Resident
	if err := query.Order("last_name ASC, first_name ASC").
		Limit(page.Size).Offset(page.Offset()).
		Find(&residents).Error; err != nil {
		http.Error(w, "Failed to fetch residents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Paged[Resident]{
		Items: residents, Total: total, Page: page.Number, PageSize: page.Size,
	})
}

func GetResident(w http.ResponseWriter, r *http.Request) {
	var resident Resident
	if err := db.DB.First(&resident, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), barangayOf(r)).Error; err != nil {
		http.Error(w, "Resident not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resident)
}

func CreateResident(w http.ResponseWriter, r *http.Request) {
	var in ResidentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := in.Validate(time.Now()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resident := Resident{ID: uuid.New(), BarangayID: barangayOf(r)}
	if err := in.ApplyTo(&resident); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if resident.HouseholdID != nil {
			if err := ensureInBarangay(tx, &Household{}, *resident.HouseholdID, resident.BarangayID); err != nil {
				return err
			}
		}
		if err := tx.Create(&resident).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionResidentCreate, map[string]interface{}{
			"resident_id": resident.ID.String(),
			"name":        resident.FullName(),
		}))
	})
	if err != nil {
		writeTxError(w, err, "Resident")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, resident)
}

func UpdateResident(w http.ResponseWriter, r *http.Request) {
	var resident Resident
	if err := db.DB.First(&resident, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), barangayOf(r)).Error; err != nil {
		http.Error(w, "Resident not found", http.StatusNotFound)
		return
	}

	var in ResidentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := in.Validate(time.Now()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := in.ApplyTo(&resident); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if resident.HouseholdID != nil {
			if err := ensureInBarangay(tx, &Household{}, *resident.HouseholdID, resident.BarangayID); err != nil {
				return err
			}
		}
		if err := tx.Save(&resident).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionResidentUpdate, map[string]interface{}{
			"resident_id": resident.ID.String(),
		}))
	})
	if err != nil {
		writeTxError(w, err, "Resident")
		return
	}

	utils.WriteJSON(w, http.StatusOK, resident)
}

func DeleteResident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND barangay_id = ?", id, barangayOf(r)).Delete(&Resident{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// Heads of household lose the link rather than dangling.
		if err := tx.Model(&Household{}).Where("head_resident_id = ? AND barangay_id = ?", id, barangayOf(r)).
			Update("head_resident_id", nil).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionResidentDelete, map[string]interface{}{
			"resident_id": id,
		}))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Resident not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to delete resident", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Households

type householdInput struct {
	HouseholdNumber string     `json:"householdNumber"`
	HeadResidentID  *uuid.UUID `json:"headResidentId"`
	HouseNumber     string     `json:"houseNumber"`
	Street          string     `json:"street"`
	Purok           string     `json:"purok"`
	MonthlyIncome   string     `json:"monthlyIncome"`
}

func (in householdInput) applyTo(h *Household) {
	h.HouseholdNumber = strings.TrimSpace(in.HouseholdNumber)
	h.HeadResidentID = in.HeadResidentID
	h.HouseNumber = in.HouseNumber
	h.Street = in.Street
	h.Purok = in.Purok
	h.MonthlyIncome = in.MonthlyIncome
}

func ListHouseholds(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r, 25, 200)
	query := db.DB.Model(&Household{}).Where("barangay_id = ?", barangayOf(r))
	if purok := r.URL.Query().Get("purok"); purok != "" {
		query = query.Where("purok = ?", purok)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Failed to fetch households", http.StatusInternalServerError)
		return
	}

	var households []Household
	if err := query.Order("household_number ASC").
		Limit(page.Size).Offset(page.Offset()).
		Find(&households).Error; err != nil {
		http.Error(w, "Failed to fetch households", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Paged[Household]{
		Items: households, Total: total, Page: page.Number, PageSize: page.Size,
	})
}

func GetHouseholdMembers(w http.ResponseWriter, r *http.Request) {
	var household Household
	brgy := barangayOf(r)
	if err := db.DB.Preload("Members", "barangay_id = ?", brgy).
		First(&household, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), brgy).Error; err != nil {
		http.Error(w, "Household not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, household)
}

func CreateHousehold(w http.ResponseWriter, r *http.Request) {
	var in householdInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.HouseholdNumber) == "" {
		http.Error(w, "householdNumber is required", http.StatusBadRequest)
		return
	}

	household := Household{ID: uuid.New(), BarangayID: barangayOf(r)}
	in.applyTo(&household)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if household.HeadResidentID != nil {
			if err := ensureInBarangay(tx, &Resident{}, *household.HeadResidentID, household.BarangayID); err != nil {
				return err
			}
		}
		if err := tx.Create(&household).Error; err != nil {
			return err
		}
		if household.HeadResidentID != nil {
			if err := tx.Model(&Resident{}).
				Where("id = ? AND barangay_id = ?", *household.HeadResidentID, household.BarangayID).
				Update("household_id", household.ID).Error; err != nil {
				return err
			}
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionHouseholdCreate, map[string]interface{}{
			"household_id":     household.ID.String(),
			"household_number": household.HouseholdNumber,
		}))
	})
	if err != nil {
		writeTxError(w, err, "Household")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, household)
}

func UpdateHousehold(w http.ResponseWriter, r *http.Request) {
	var household Household
	if err := db.DB.First(&household, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), barangayOf(r)).Error; err != nil {
		http.Error(w, "Household not found", http.StatusNotFound)
		return
	}

	var in householdInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.HouseholdNumber) == "" {
		in.HouseholdNumber = household.HouseholdNumber
	}
	in.applyTo(&household)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if household.HeadResidentID != nil {
			if err := ensureInBarangay(tx, &Resident{}, *household.HeadResidentID, household.BarangayID); err != nil {
				return err
			}
		}
		if err := tx.Save(&household).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionHouseholdUpdate, map[string]interface{}{
			"household_id": household.ID.String(),
		}))
	})
	if err != nil {
		writeTxError(w, err, "Household")
		return
	}
	utils.WriteJSON(w, http.StatusOK, household)
}

func DeleteHousehold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND barangay_id = ?", id, barangayOf(r)).Delete(&Household{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&Resident{}).Where("household_id = ? AND barangay_id = ?", id, barangayOf(r)).
			Update("household_id", nil).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionHouseholdDelete, map[string]interface{}{
			"household_id": id,
		}))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Household not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to delete household", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
