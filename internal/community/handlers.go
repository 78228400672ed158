package community

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

// record is the pointer form of a community model.
type record[T any] interface {
	*T
	meta() *Base
	validate() error
}

func barangayOf(r *http.Request) string {
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())
	return brgy
}

// scope narrows a list query from request params.
type scope func(q *gorm.DB, r *http.Request) *gorm.DB

func list[T any, P record[T]](name, order string, scopes ...scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := db.DB.Where("barangay_id = ?", barangayOf(r))
		for _, s := range scopes {
			query = s(query, r)
		}
		var rows []T
		if err := query.Order(order).Find(&rows).Error; err != nil {
			http.Error(w, "Failed to fetch "+name+": "+err.Error(), http.StatusInternalServerError)
			return
		}
		utils.WriteJSON(w, http.StatusOK, rows)
	}
}

func create[T any, P record[T]](name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var row T
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p := P(&row)
		if err := p.validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		*p.meta() = Base{ID: uuid.New(), BarangayID: barangayOf(r), CreatedAt: now, UpdatedAt: now}
		if a, ok := any(p).(*Announcement); ok {
			a.CreatedBy, _ = utils.GetUserIDFromContext(r.Context())
		}

		err := db.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
			return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionCommunityPublish, map[string]interface{}{
				"kind": name,
				"id":   p.meta().ID.String(),
			}))
		})
		if err != nil {
			log.WithError(err).WithField("kind", name).Error("[community] insert failed")
			http.Error(w, "Failed to save "+name, http.StatusInternalServerError)
			return
		}
		utils.WriteJSON(w, http.StatusCreated, p)
	}
}

func update[T any, P record[T]](name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var existing T
		if err := db.DB.First(&existing, "id = ? AND barangay_id = ?", chi.URLParam(r, "id"), barangayOf(r)).Error; err != nil {
			http.Error(w, name+" not found", http.StatusNotFound)
			return
		}
		keep := *P(&existing).meta()

		var row T
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p := P(&row)
		if err := p.validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		keep.UpdatedAt = time.Now().UTC()
		*p.meta() = keep

		err := db.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(p).Error; err != nil {
				return err
			}
			return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionCommunityPublish, map[string]interface{}{
				"kind": name,
				"id":   keep.ID.String(),
			}))
		})
		if err != nil {
			http.Error(w, "Failed to save "+name, http.StatusInternalServerError)
			return
		}
		utils.WriteJSON(w, http.StatusOK, p)
	}
}

func remove[T any, P record[T]](name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Where("id = ? AND barangay_id = ?", id, barangayOf(r)).Delete(P(new(T)))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionCommunityDelete, map[string]interface{}{
				"kind": name,
				"id":   id,
			}))
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, name+" not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to delete "+name, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// publishedOnly hides drafts and scheduled posts unless all=true.
func publishedOnly(q *gorm.DB, r *http.Request) *gorm.DB {
	if r.URL.Query().Get("all") == "true" {
		return q
	}
	return q.Where("published_at IS NOT NULL AND published_at <= ?", time.Now().UTC())
}

func byTag(q *gorm.DB, r *http.Request) *gorm.DB {
	if tag := r.URL.Query().Get("tag"); tag != "" {
		return q.Where("? = ANY(tags)", tag)
	}
	return q
}

// upcomingOnly hides past events unless all=true.
func upcomingOnly(q *gorm.DB, r *http.Request) *gorm.DB {
	if r.URL.Query().Get("all") == "true" {
		return q
	}
	return q.Where("COALESCE(ends_at, starts_at) >= ?", time.Now().UTC())
}

func currentTerm(q *gorm.DB, r *http.Request) *gorm.DB {
	if r.URL.Query().Get("all") == "true" {
		return q
	}
	return q.Where("term_end IS NULL OR term_end >= ?", time.Now().UTC())
}
