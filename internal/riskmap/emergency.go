package riskmap

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
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

type emergencyInput struct {
	BarangayID    string     `json:"barangay_id"`
	ResidentID    *uuid.UUID `json:"resident_id"`
	RequesterName string     `json:"requester_name"`
	Contact       string     `json:"contact"`
	Need          string     `json:"need"`
	Details       string     `json:"details"`
	Lat           float64    `json:"lat"`
	Lng           float64    `json:"lng"`
}

func (in emergencyInput) toRequest(now time.Time) (*EmergencyRequest, error) {
	if strings.TrimSpace(in.BarangayID) == "" {
		return nil, errors.New("barangay_id is required")
	}
	if strings.TrimSpace(in.Need) == "" {
		return nil, errors.New("need is required")
	}
	pt := orb.Point{in.Lng, in.Lat}
	if err := validatePoint(pt); err != nil {
		return nil, err
	}
	if in.Lat == 0 && in.Lng == 0 {
		return nil, errors.New("lat and lng are required")
	}
	return &EmergencyRequest{
		ID:            uuid.New(),
		BarangayID:    strings.TrimSpace(in.BarangayID),
		ResidentID:    in.ResidentID,
		RequesterName: strings.TrimSpace(in.RequesterName),
		Contact:       strings.TrimSpace(in.Contact),
		Need:          strings.ToLower(strings.TrimSpace(in.Need)),
		Details:       in.Details,
		Status:        EmergencyPending,
		Geometry:      Geometry{Geom: pt},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CreateEmergency is public: residents pin a help request without a session.
func (h *Handler) CreateEmergency(w http.ResponseWriter, r *http.Request) {
	var in emergencyInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req, err := in.toRequest(time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := db.DB.Create(req).Error; err != nil {
		log.WithError(err).Error("[riskmap] insert emergency request")
		http.Error(w, "Failed to submit emergency request", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"barangay_id": req.BarangayID, "need": req.Need}).Info("[riskmap] emergency request received")
	h.hub.Publish(req.BarangayID, Event{Type: EventUpsert, Table: "emergency_requests", Record: req})
	utils.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) ListEmergencies(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Where("barangay_id = ?", barangayOf(r))
	if st := r.URL.Query().Get("status"); st != "" {
		query = query.Where("status = ?", st)
	} else if r.URL.Query().Get("all") != "true" {
		query = query.Where("status <> ?", EmergencyResolved)
	}
	var reqs []EmergencyRequest
	if err := query.Order("created_at DESC").Find(&reqs).Error; err != nil {
		http.Error(w, "Failed to fetch emergency requests: "+err.Error(), http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqs)
}

type emergencyStatusInput struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateEmergency(w http.ResponseWriter, r *http.Request) {
	var in emergencyStatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !validEmergencyStatus(in.Status) {
		http.Error(w, "status must be pending, acknowledged, dispatched or resolved", http.StatusBadRequest)
		return
	}

	brgy := barangayOf(r)
	var req EmergencyRequest
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), brgy).Error; err != nil {
			return err
		}
		req.Status = in.Status
		req.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&req).Updates(map[string]interface{}{"status": req.Status, "updated_at": req.UpdatedAt}).Error; err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionEmergencyUpdate, map[string]interface{}{
			"emergency_id": req.ID.String(),
			"status":       req.Status,
		}))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Emergency request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to update emergency request", http.StatusInternalServerError)
		return
	}

	h.hub.Publish(brgy, Event{Type: EventUpsert, Table: "emergency_requests", Record: req})
	utils.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) DeleteEmergency(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	brgy := barangayOf(r)
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND barangay_id = ?", id, brgy).Delete(&EmergencyRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionEmergencyUpdate, map[string]interface{}{
			"emergency_id": id,
			"deleted":      true,
		}))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Emergency request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to delete emergency request", http.StatusInternalServerError)
		return
	}

	h.hub.Publish(brgy, Event{Type: EventDelete, Table: "emergency_requests", Record: map[string]string{"id": id}})
	w.WriteHeader(http.StatusNoContent)
}
