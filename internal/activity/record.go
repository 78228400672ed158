package activity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/middleware"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrMissingAction = errors.New("activity entry requires an action")

// Record appends an activity row using tx, which is normally the caller's
// open transaction so the audit row commits or rolls back with the change.
func Record(tx *gorm.DB, e Entry) error {
	if e.Action == "" {
		return ErrMissingAction
	}
	row := ActivityLog{
		ID:         uuid.New(),
		BarangayID: e.BarangayID,
		UserID:     e.UserID,
		Action:     e.Action,
		Details:    e.Details,
		IP:         e.IP,
		Agent:      e.Agent,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("insert activity log %s: %w", e.Action, err)
	}
	return nil
}

// EntryFromRequest fills user, barangay, ip and agent from the request.
func EntryFromRequest(r *http.Request, action string, details map[string]interface{}) Entry {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())
	return Entry{
		BarangayID: brgy,
		UserID:     userID,
		Action:     action,
		Details:    details,
		IP:         middleware.ClientIP(r),
		Agent:      r.UserAgent(),
	}
}
