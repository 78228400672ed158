package riskmap

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newShape(kind Kind) (Shape, error) {
	switch kind {
	case KindDisasterZone:
		return &DisasterZone{}, nil
	case KindEvacuationCenter:
		return &EvacuationCenter{}, nil
	case KindEvacuationRoute:
		return &EvacuationRoute{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// tableOf names the table backing kind, without the schema.
func tableOf(kind Kind) string {
	switch kind {
	case KindDisasterZone:
		return "disaster_zones"
	case KindEvacuationCenter:
		return "evacuation_centers"
	case KindEvacuationRoute:
		return "evacuation_routes"
	}
	return ""
}

func stamp(s Shape, now time.Time, created bool) {
	switch v := s.(type) {
	case *DisasterZone:
		if created {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *EvacuationCenter:
		if created {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *EvacuationRoute:
		if created {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	}
}

func createShape(tx *gorm.DB, s Shape, barangayID string) error {
	s.setIdentity(uuid.New(), barangayID)
	stamp(s, time.Now().UTC(), true)
	return tx.Create(s).Error
}

// loadShape fetches one shape of kind scoped to the barangay.
func loadShape(tx *gorm.DB, kind Kind, id uuid.UUID, barangayID string) (Shape, error) {
	s, err := newShape(kind)
	if err != nil {
		return nil, err
	}
	if err := tx.First(s, "id = ? AND barangay_id = ?", id, barangayID).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// updateShape overwrites the stored row with next, keeping its identity
// and creation time, and returns the row as stored.
func updateShape(tx *gorm.DB, kind Kind, id uuid.UUID, barangayID string, next Shape) (Shape, error) {
	if next.Kind() != kind {
		return nil, fmt.Errorf("%w: body is %s, path is %s", ErrWrongGeometry, next.Kind(), kind)
	}
	res := tx.Model(next).
		Where("id = ? AND barangay_id = ?", id, barangayID).
		Select("*").Omit("id", "barangay_id", "created_at").
		Updates(next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return loadShape(tx, kind, id, barangayID)
}

// deleteShape removes the row from the table backing kind and no other.
func deleteShape(tx *gorm.DB, kind Kind, id uuid.UUID, barangayID string) error {
	model, err := newShape(kind)
	if err != nil {
		return err
	}
	res := tx.Where("id = ? AND barangay_id = ?", id, barangayID).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// allShapes loads every shape of the barangay, zones first so points and
// routes draw on top.
func allShapes(tx *gorm.DB, barangayID string) ([]Shape, error) {
	var zones []DisasterZone
	var centers []EvacuationCenter
	var routes []EvacuationRoute

	if err := tx.Where("barangay_id = ?", barangayID).Order("name").Find(&zones).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("barangay_id = ?", barangayID).Order("name").Find(&centers).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("barangay_id = ?", barangayID).Order("name").Find(&routes).Error; err != nil {
		return nil, err
	}

	out := make([]Shape, 0, len(zones)+len(centers)+len(routes))
	for i := range zones {
		out = append(out, &zones[i])
	}
	for i := range routes {
		out = append(out, &routes[i])
	}
	for i := range centers {
		out = append(out, &centers[i])
	}
	return out, nil
}
