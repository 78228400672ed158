package riskmap

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

type BackfillResult struct {
	Candidates int
	Updated    int
	Failed     int
}

// BackfillCenterPoints geocodes evacuation centers that have an address but
// no point. An empty barangayID covers every barangay.
func BackfillCenterPoints(ctx context.Context, d *gorm.DB, geo Geocoder, barangayID string, dryRun bool) (BackfillResult, error) {
	var res BackfillResult
	if geo == nil {
		return res, errNoGeocoder
	}

	q := d.WithContext(ctx).Where("geometry IS NULL AND address <> ''")
	if barangayID != "" {
		q = q.Where("barangay_id = ?", barangayID)
	}
	var centers []EvacuationCenter
	if err := q.Order("name").Find(&centers).Error; err != nil {
		return res, err
	}
	res.Candidates = len(centers)

	for _, c := range centers {
		entry := log.WithFields(log.Fields{"id": c.ID, "name": c.Name, "address": c.Address})
		g, err := geo.Geocode(ctx, c.Address)
		if err != nil {
			entry.WithError(err).Warn("[riskmap] geocode failed")
			res.Failed++
			continue
		}
		pt := orb.Point{g.Lng, g.Lat}
		if !inBounds(pt) {
			entry.Warn("[riskmap] geocoder returned out-of-range point")
			res.Failed++
			continue
		}
		entry.WithFields(log.Fields{"lat": g.Lat, "lng": g.Lng, "dry_run": dryRun}).Info("[riskmap] center located")
		if dryRun {
			continue
		}
		err = d.WithContext(ctx).Model(&EvacuationCenter{}).Where("id = ?", c.ID).
			Updates(map[string]interface{}{
				"geometry":   Geometry{Geom: pt},
				"updated_at": time.Now().UTC(),
			}).Error
		if err != nil {
			return res, err
		}
		res.Updated++
	}
	return res, nil
}
