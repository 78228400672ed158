package chat

import (
	"context"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/community"
	"github.com/EmpoweredVote/Barangay-Backend/internal/documents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/incidents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/residents"
	"gorm.io/gorm"
)

// NameStrategy selects how resident names are matched.
type NameStrategy int

const (
	// FullNameAND requires every name token to appear in some name column.
	FullNameAND NameStrategy = iota
	// FirstLastOR matches the first token on first_name or the last on last_name.
	FirstLastOR
	// AnyTokenOR matches any token against any name column.
	AnyTokenOR
)

// ResidentCounts is the population summary for a barangay.
type ResidentCounts struct {
	Total    int64
	Voters   int64
	Seniors  int64
	PWD      int64
	Indigent int64
	FourPs   int64
}

// Store is everything the chat stages read. It is read-only.
type Store interface {
	FAQSource
	CountResidents(ctx context.Context, barangayID string) (ResidentCounts, error)
	SearchResidents(ctx context.Context, barangayID string, strategy NameStrategy, names []string, limit int) ([]residents.Resident, error)
	CountHouseholds(ctx context.Context, barangayID string) (int64, error)
	UpcomingEvents(ctx context.Context, barangayID string, from time.Time, limit int) ([]community.Event, error)
	RecentAnnouncements(ctx context.Context, barangayID string, limit int) ([]community.Announcement, error)
	CurrentOfficials(ctx context.Context, barangayID string, at time.Time) ([]community.Official, error)
	IncidentCounts(ctx context.Context, barangayID string) (map[string]int64, error)
	ActiveDocumentTypes(ctx context.Context, barangayID string) ([]documents.DocumentType, error)
	EmergencyContacts(ctx context.Context, barangayID string) ([]community.EmergencyContact, error)
}

// GormStore reads chat data through gorm.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore { return &GormStore{DB: d} }

func (s *GormStore) ListFAQs(ctx context.Context, barangayID string) ([]FAQ, error) {
	var out []FAQ
	err := s.DB.WithContext(ctx).
		Where("is_active = ? AND (barangay_id = ? OR barangay_id = '')", true, barangayID).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (s *GormStore) CountResidents(ctx context.Context, barangayID string) (ResidentCounts, error) {
	var c ResidentCounts
	err := s.DB.WithContext(ctx).Model(&residents.Resident{}).
		Select(`count(*) AS total,
			count(*) FILTER (WHERE is_voter) AS voters,
			count(*) FILTER (WHERE is_senior) AS seniors,
			count(*) FILTER (WHERE is_pwd) AS pwd,
			count(*) FILTER (WHERE is_indigent) AS indigent,
			count(*) FILTER (WHERE is_4ps) AS four_ps`).
		Where("barangay_id = ?", barangayID).
		Scan(&c).Error
	return c, err
}

// nameCond folds accents so normalized tokens match "Niño" as "nino".
func nameCond(col string) string { return "unaccent(lower(" + col + ")) LIKE ?" }

func like(token string) string { return "%" + token + "%" }

func (s *GormStore) SearchResidents(ctx context.Context, barangayID string, strategy NameStrategy, names []string, limit int) ([]residents.Resident, error) {
	var out []residents.Resident
	if len(names) == 0 {
		return out, nil
	}
	q := s.DB.WithContext(ctx).Where("barangay_id = ?", barangayID)

	anyColumn := func(token string) *gorm.DB {
		return s.DB.Where(nameCond("first_name"), like(token)).
			Or(nameCond("middle_name"), like(token)).
			Or(nameCond("last_name"), like(token))
	}

	switch strategy {
	case FullNameAND:
		for _, n := range names {
			q = q.Where(anyColumn(n))
		}
	case FirstLastOR:
		q = q.Where(s.DB.Where(nameCond("first_name"), like(names[0])).
			Or(nameCond("last_name"), like(names[len(names)-1])))
	default:
		cond := anyColumn(names[0])
		for _, n := range names[1:] {
			cond = cond.Or(anyColumn(n))
		}
		q = q.Where(cond)
	}

	err := q.Order("last_name, first_name").Limit(limit).Find(&out).Error
	return out, err
}

func (s *GormStore) CountHouseholds(ctx context.Context, barangayID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&residents.Household{}).
		Where("barangay_id = ?", barangayID).Count(&n).Error
	return n, err
}

func (s *GormStore) UpcomingEvents(ctx context.Context, barangayID string, from time.Time, limit int) ([]community.Event, error) {
	var out []community.Event
	err := s.DB.WithContext(ctx).
		Where("barangay_id = ? AND starts_at >= ?", barangayID, from).
		Order("starts_at").Limit(limit).Find(&out).Error
	return out, err
}

func (s *GormStore) RecentAnnouncements(ctx context.Context, barangayID string, limit int) ([]community.Announcement, error) {
	var out []community.Announcement
	err := s.DB.WithContext(ctx).
		Where("barangay_id = ? AND published_at IS NOT NULL AND published_at <= ?", barangayID, time.Now()).
		Order("pinned DESC, published_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (s *GormStore) CurrentOfficials(ctx context.Context, barangayID string, at time.Time) ([]community.Official, error) {
	var out []community.Official
	err := s.DB.WithContext(ctx).
		Where("barangay_id = ? AND (term_end IS NULL OR term_end >= ?)", barangayID, at).
		Order("sort_order, name").Find(&out).Error
	return out, err
}

func (s *GormStore) IncidentCounts(ctx context.Context, barangayID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := s.DB.WithContext(ctx).Model(&incidents.IncidentReport{}).
		Select("status, count(*) AS n").
		Where("barangay_id = ?", barangayID).
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

func (s *GormStore) ActiveDocumentTypes(ctx context.Context, barangayID string) ([]documents.DocumentType, error) {
	var out []documents.DocumentType
	err := s.DB.WithContext(ctx).
		Where("barangay_id = ? AND is_active = ?", barangayID, true).
		Order("name").Find(&out).Error
	return out, err
}

func (s *GormStore) EmergencyContacts(ctx context.Context, barangayID string) ([]community.EmergencyContact, error) {
	var out []community.EmergencyContact
	err := s.DB.WithContext(ctx).
		Where("barangay_id = ?", barangayID).
		Order("agency").Find(&out).Error
	return out, err
}
