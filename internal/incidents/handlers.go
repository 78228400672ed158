package incidents

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func barangayOf(r *http.Request) string {
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())
	return brgy
}

func isValidation(err error) bool {
	return errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidRole) || errors.Is(err, ErrInvalidRiskLevel) || errors.Is(err, ErrPartyName)
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

// ListIncidents filters by status, type and occurred_at date range.
func ListIncidents(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r, 25, 200)
	q := r.URL.Query()
	query := db.DB.Model(&IncidentReport{}).Where("barangay_id = ?", barangayOf(r))

	if st := q.Get("status"); st != "" {
		query = query.Where("status = ?", st)
	}
	if typ := q.Get("type"); typ != "" {
		query = query.Where("incident_type = ?", typ)
	}
	if from, ok := parseDay(q.Get("from")); ok {
		query = query.Where("occurred_at >= ?", from)
	}
	if to, ok := parseDay(q.Get("to")); ok {
		query = query.Where("occurred_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Failed to fetch incidents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var reports []IncidentReport
	if err := query.Preload("Parties").
		Order("created_at DESC").
		Limit(page.Size).Offset(page.Offset()).
		Find(&reports).Error; err != nil {
		http.Error(w, "Failed to fetch incidents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	for i := range reports {
		reports[i].withCounts()
	}

	utils.WriteJSON(w, http.StatusOK, utils.Paged[IncidentReport]{
		Items: reports, Total: total, Page: page.Number, PageSize: page.Size,
	})
}

func loadReport(tx *gorm.DB, id, brgy string) (*IncidentReport, error) {
	var report IncidentReport
	if err := tx.Preload("Parties").Preload("Flagged").
		First(&report, "id = ? AND barangay_id = ?", id, brgy).Error; err != nil {
		return nil, err
	}
	report.withCounts()
	return &report, nil
}

func GetIncident(w http.ResponseWriter, r *http.Request) {
	report, err := loadReport(db.DB, chi.URLParam(r, "id"), barangayOf(r))
	if err != nil {
		http.Error(w, "Incident not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

type createInput struct {
	Title        string              `json:"title"`
	Narrative    string              `json:"narrative"`
	IncidentType string              `json:"incident_type"`
	Location     string              `json:"location"`
	OccurredAt   *time.Time          `json:"occurred_at"`
	Status       string              `json:"status"`
	Parties      []IncidentParty     `json:"parties"`
	Flagged      []FlaggedIndividual `json:"flagged"`
}

func CreateIncident(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	audit := activity.EntryFromRequest(r, activity.ActionIncidentCreate, nil)
	report := IncidentReport{
		BarangayID:   barangayOf(r),
		Title:        in.Title,
		Narrative:    in.Narrative,
		IncidentType: in.IncidentType,
		Location:     in.Location,
		OccurredAt:   in.OccurredAt,
		Status:       in.Status,
		ReportedBy:   audit.UserID,
		Parties:      in.Parties,
		Flagged:      in.Flagged,
	}
	if err := Create(r.Context(), db.DB, &report, audit); err != nil {
		if isValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.WithError(err).Error("[CreateIncident] insert failed")
		http.Error(w, "Failed to create incident", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, report)
}

type statusInput struct {
	Status string `json:"status"`
}

func UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !validStatus(in.Status) {
		http.Error(w, ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	brgy := barangayOf(r)
	var report *IncidentReport
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&IncidentReport{}).
			Where("id = ? AND barangay_id = ?", id, brgy).
			Updates(map[string]interface{}{"status": in.Status, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := activity.Record(tx, activity.EntryFromRequest(r, activity.ActionIncidentUpdate, map[string]interface{}{
			"incident_id": id,
			"status":      in.Status,
		})); err != nil {
			return err
		}
		var err error
		report, err = loadReport(tx, id, brgy)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Incident not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to update incident", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}

func AddParty(w http.ResponseWriter, r *http.Request) {
	var party IncidentParty
	if err := json.NewDecoder(r.Body).Decode(&party); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := normalizeParty(&party); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	brgy := barangayOf(r)
	var report *IncidentReport
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var existing IncidentReport
		if err := tx.Select("id").First(&existing, "id = ? AND barangay_id = ?", id, brgy).Error; err != nil {
			return err
		}
		party.ID = uuid.New()
		party.IncidentID = existing.ID
		party.CreatedAt = time.Now().UTC()
		if err := tx.Create(&party).Error; err != nil {
			return err
		}
		if err := activity.Record(tx, activity.EntryFromRequest(r, activity.ActionIncidentUpdate, map[string]interface{}{
			"incident_id": id,
			"party_role":  party.Role,
			"party_name":  party.Name,
		})); err != nil {
			return err
		}
		var err error
		report, err = loadReport(tx, id, brgy)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Incident not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to add party", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, report)
}

func FlagIndividual(w http.ResponseWriter, r *http.Request) {
	var flag FlaggedIndividual
	if err := json.NewDecoder(r.Body).Decode(&flag); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := normalizeFlag(&flag); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	brgy := barangayOf(r)
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var existing IncidentReport
		if err := tx.Select("id").First(&existing, "id = ? AND barangay_id = ?", id, brgy).Error; err != nil {
			return err
		}
		flag.ID = uuid.New()
		flag.IncidentID = existing.ID
		flag.BarangayID = brgy
		flag.CreatedAt = time.Now().UTC()
		if err := tx.Create(&flag).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionIncidentFlag, map[string]interface{}{
			"incident_id": id,
			"name":        flag.Name,
			"risk_level":  flag.RiskLevel,
		}))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Incident not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to flag individual", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, flag)
}

// ListFlagged lists flagged individuals across reports, highest risk first.
func ListFlagged(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Where("barangay_id = ?", barangayOf(r))
	if lvl := r.URL.Query().Get("risk_level"); lvl != "" {
		query = query.Where("risk_level = ?", lvl)
	}
	var flagged []FlaggedIndividual
	if err := query.
		Order("CASE risk_level WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at DESC").
		Find(&flagged).Error; err != nil {
		http.Error(w, "Failed to fetch flagged individuals: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, flagged)
}
