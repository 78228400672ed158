package activity

import (
	"net/http"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/apex/log"
	"gorm.io/gorm"
)

// LogView is an ActivityLog row with its parsed agent.
type LogView struct {
	ActivityLog
	AgentInfo AgentInfo `json:"agent_info"`
}

// Filter narrows an activity listing.
type Filter struct {
	BarangayID string
	UserID     string
	Action     string
	Search     string
	From       *time.Time
	To         *time.Time
}

// FilterFromRequest parses user_id, action, q, from and to. Dates accept
// RFC3339 or YYYY-MM-DD; a bare "to" date includes that whole day.
func FilterFromRequest(r *http.Request) Filter {
	q := r.URL.Query()
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())
	f := Filter{
		BarangayID: brgy,
		UserID:     strings.TrimSpace(q.Get("user_id")),
		Action:     strings.TrimSpace(q.Get("action")),
		Search:     strings.TrimSpace(q.Get("q")),
	}
	if t, ok := parseDate(q.Get("from"), false); ok {
		f.From = &t
	}
	if t, ok := parseDate(q.Get("to"), true); ok {
		f.To = &t
	}
	return f
}

func parseDate(s string, endOfDay bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

// Apply adds the filter's WHERE clauses to q.
func (f Filter) Apply(q *gorm.DB) *gorm.DB {
	q = q.Where("barangay_id = ?", f.BarangayID)
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		if strings.HasSuffix(f.Action, ".") {
			q = q.Where("action LIKE ?", f.Action+"%")
		} else {
			q = q.Where("action = ?", f.Action)
		}
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("(action ILIKE ? OR details::text ILIKE ?)", like, like)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	return q
}

// ListActivity returns a newest-first page of the barangay's audit trail.
func ListActivity(w http.ResponseWriter, r *http.Request) {
	filter := FilterFromRequest(r)
	page := utils.ParsePage(r, 20, 100)

	var total int64
	if err := filter.Apply(db.DB.Model(&ActivityLog{})).Count(&total).Error; err != nil {
		log.WithError(err).Error("[ListActivity] count failed")
		http.Error(w, "Failed to fetch activity logs", http.StatusInternalServerError)
		return
	}

	var rows []ActivityLog
	if err := filter.Apply(db.DB.Model(&ActivityLog{})).
		Order("created_at DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		log.WithError(err).Error("[ListActivity] query failed")
		http.Error(w, "Failed to fetch activity logs", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Paged[LogView]{
		Items:    toViews(rows),
		Total:    total,
		Page:     page.Number,
		PageSize: page.Size,
	})
}

// ListActions returns the distinct action names for the filter dropdown.
func ListActions(w http.ResponseWriter, r *http.Request) {
	brgy, _ := utils.GetBarangayIDFromContext(r.Context())

	var actions []string
	if err := db.DB.Model(&ActivityLog{}).
		Where("barangay_id = ?", brgy).
		Distinct().
		Order("action").
		Pluck("action", &actions).Error; err != nil {
		http.Error(w, "Failed to fetch actions", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, actions)
}

func toViews(rows []ActivityLog) []LogView {
	out := make([]LogView, 0, len(rows))
	for _, row := range rows {
		out = append(out, LogView{ActivityLog: row, AgentInfo: ParseAgent(row.Agent)})
	}
	return out
}
