package chat

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
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrInvalidFAQ = errors.New("question and answer are required")

type faqInput struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
	IsActive *bool    `json:"is_active"`
}

func (in faqInput) applyTo(f *FAQ) error {
	f.Question = strings.TrimSpace(in.Question)
	f.Answer = strings.TrimSpace(in.Answer)
	if f.Question == "" || f.Answer == "" {
		return ErrInvalidFAQ
	}
	var kws pq.StringArray
	for _, k := range in.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	f.Keywords = kws
	f.Category = strings.TrimSpace(in.Category)
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
	return nil
}

func barangayOf(r *http.Request) string {
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())
	return brgy
}

// ListFAQs returns the barangay's FAQs and the shared ones.
func ListFAQs(w http.ResponseWriter, r *http.Request) {
	var faqs []FAQ
	err := db.DB.Where("barangay_id = ? OR barangay_id = ''", barangayOf(r)).
		Order("category, question").Find(&faqs).Error
	if err != nil {
		http.Error(w, "Failed to fetch FAQs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, faqs)
}

func CreateFAQ(w http.ResponseWriter, r *http.Request) {
	var in faqInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()
	f := FAQ{ID: uuid.New(), BarangayID: barangayOf(r), IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := in.applyTo(&f); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&f).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionFAQCreate, map[string]interface{}{
			"id":       f.ID.String(),
			"question": f.Question,
		}))
	})
	if err != nil {
		log.WithError(err).Error("[chat] FAQ insert failed")
		http.Error(w, "Failed to save FAQ", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, f)
}

// UpdateFAQ edits a barangay FAQ. Shared FAQs are read-only here.
func UpdateFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid FAQ id", http.StatusBadRequest)
		return
	}
	var in faqInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var f FAQ
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&f, "id = ? AND barangay_id = ?", id, barangayOf(r)).Error; err != nil {
			return err
		}
		if err := in.applyTo(&f); err != nil {
			return err
		}
		f.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&f).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionFAQUpdate, map[string]interface{}{
			"id": f.ID.String(),
		}))
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "FAQ not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidFAQ):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		log.WithError(err).Error("[chat] FAQ update failed")
		http.Error(w, "Failed to update FAQ", http.StatusInternalServerError)
	default:
		utils.WriteJSON(w, http.StatusOK, f)
	}
}

func DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid FAQ id", http.StatusBadRequest)
		return
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND barangay_id = ?", id, barangayOf(r)).Delete(&FAQ{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionFAQDelete, map[string]interface{}{
			"id": id.String(),
		}))
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "FAQ not found", http.StatusNotFound)
	case err != nil:
		log.WithError(err).Error("[chat] FAQ delete failed")
		http.Error(w, "Failed to delete FAQ", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
