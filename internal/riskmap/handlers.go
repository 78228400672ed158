package riskmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/geocoding"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"
)

// Geocoder resolves an address to a point.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocoding.Result, error)
}

type Handler struct {
	hub *Hub
	geo Geocoder
}

// NewHandler wires the map handlers. geo may be nil when no geocoding key is
// configured; centers then need explicit coordinates.
func NewHandler(hub *Hub, geo Geocoder) *Handler {
	return &Handler{hub: hub, geo: geo}
}

func barangayOf(r *http.Request) string {
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())
	return brgy
}

func isValidation(err error) bool {
	return errors.Is(err, ErrWrongGeometry) || errors.Is(err, ErrOpenRing) ||
		errors.Is(err, ErrOutOfBounds) || errors.Is(err, ErrTooFewPoints) || errors.Is(err, ErrUnknownKind) || errors.Is(err, ErrInvalidShape)
}

func kindAndID(w http.ResponseWriter, r *http.Request) (Kind, uuid.UUID, bool) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return kind, id, true
}

// Layers returns every shape of the barangay as one FeatureCollection.
func (h *Handler) Layers(w http.ResponseWriter, r *http.Request) {
	shapes, err := allShapes(db.DB, barangayOf(r))
	if err != nil {
		http.Error(w, "Failed to fetch map layers: "+err.Error(), http.StatusInternalServerError)
		return
	}

	only := r.URL.Query().Get("kind")
	fc := geojson.NewFeatureCollection()
	for _, s := range shapes {
		if only != "" && string(s.Kind()) != only {
			continue
		}
		fc.Append(s.Feature())
	}

	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		log.WithError(err).Warn("[riskmap] encode layers")
	}
}

type shapeBody struct {
	Kind    string          `json:"kind"`
	Feature json.RawMessage `json:"feature"`
}

func (h *Handler) decodeShape(r *http.Request, kind Kind, raw json.RawMessage) (Shape, error) {
	f, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: feature must be a GeoJSON Feature", ErrInvalidShape)
	}
	s, err := ShapeFromFeature(kind, f)
	if err != nil {
		return nil, err
	}
	if c, ok := s.(*EvacuationCenter); ok && c.Geometry.Geom == nil {
		if err := h.geocodeCenter(r.Context(), c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

var errNoGeocoder = errors.New("evacuation center has no coordinates and geocoding is not configured")

func (h *Handler) geocodeCenter(ctx context.Context, c *EvacuationCenter) error {
	if h.geo == nil {
		return errNoGeocoder
	}
	res, err := h.geo.Geocode(ctx, c.Address)
	if err != nil {
		return err
	}
	c.Geometry = Geometry{Geom: orb.Point{res.Lng, res.Lat}}
	return nil
}

func (h *Handler) CreateShape(w http.ResponseWriter, r *http.Request) {
	var body shapeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	kind, err := ParseKind(body.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s, err := h.decodeShape(r, kind, body.Feature)
	if err != nil {
		writeShapeError(w, err)
		return
	}

	brgy := barangayOf(r)
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := createShape(tx, s, brgy); err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionShapeCreate, map[string]interface{}{
			"kind": string(s.Kind()),
			"id":   s.ShapeID().String(),
		}))
	})
	if err != nil {
		writeShapeError(w, err)
		return
	}

	h.hub.Publish(brgy, Event{Type: EventUpsert, Table: tableOf(kind), Record: s})
	utils.WriteJSON(w, http.StatusCreated, s.Feature())
}

func (h *Handler) UpdateShape(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := kindAndID(w, r)
	if !ok {
		return
	}
	var body shapeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s, err := h.decodeShape(r, kind, body.Feature)
	if err != nil {
		writeShapeError(w, err)
		return
	}
	stamp(s, time.Now().UTC(), false)

	brgy := barangayOf(r)
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		stored, err := updateShape(tx, kind, id, brgy, s)
		if err != nil {
			return err
		}
		s = stored
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionShapeUpdate, map[string]interface{}{
			"kind": string(kind),
			"id":   id.String(),
		}))
	})
	if err != nil {
		writeShapeError(w, err)
		return
	}

	h.hub.Publish(brgy, Event{Type: EventUpsert, Table: tableOf(kind), Record: s})
	utils.WriteJSON(w, http.StatusOK, s.Feature())
}

func (h *Handler) DeleteShape(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := kindAndID(w, r)
	if !ok {
		return
	}

	brgy := barangayOf(r)
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteShape(tx, kind, id, brgy); err != nil {
			return err
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionShapeDelete, map[string]interface{}{
			"kind": string(kind),
			"id":   id.String(),
		}))
	})
	if err != nil {
		writeShapeError(w, err)
		return
	}

	h.hub.Publish(brgy, Event{Type: EventDelete, Table: tableOf(kind), Record: map[string]string{"id": id.String()}})
	w.WriteHeader(http.StatusNoContent)
}

func writeShapeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Shape not found", http.StatusNotFound)
	case isValidation(err), errors.Is(err, errNoGeocoder), errors.Is(err, geocoding.ErrNoResults):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error("[riskmap] shape write failed")
		http.Error(w, "Failed to save shape", http.StatusInternalServerError)
	}
}
