package riskmap

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	ErrWrongGeometry = errors.New("geometry type does not match shape kind")
	ErrOpenRing      = errors.New("polygon ring is not closed")
	ErrOutOfBounds   = errors.New("coordinate outside WGS84 bounds")
	ErrTooFewPoints  = errors.New("geometry has too few points")
)

// Geometry stores an orb geometry as GeoJSON in a jsonb column.
type Geometry struct {
	Geom orb.Geometry
}

func (Geometry) GormDataType() string { return "jsonb" }

func (g Geometry) Value() (driver.Value, error) {
	if g.Geom == nil {
		return nil, nil
	}
	b, err := geojson.NewGeometry(g.Geom).MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (g *Geometry) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		g.Geom = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("riskmap: cannot scan %T into Geometry", src)
	}
	gg, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return err
	}
	g.Geom = gg.Geometry()
	return nil
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.Geom == nil {
		return []byte("null"), nil
	}
	return geojson.NewGeometry(g.Geom).MarshalJSON()
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		g.Geom = nil
		return nil
	}
	gg, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return err
	}
	g.Geom = gg.Geometry()
	return nil
}

func inBounds(p orb.Point) bool {
	return p.Lon() >= -180 && p.Lon() <= 180 && p.Lat() >= -90 && p.Lat() <= 90
}

func checkPoints(ps []orb.Point) error {
	for _, p := range ps {
		if !inBounds(p) {
			return fmt.Errorf("%w: %v", ErrOutOfBounds, p)
		}
	}
	return nil
}

// validatePolygon requires every ring closed with at least four points.
func validatePolygon(g orb.Geometry) error {
	poly, ok := g.(orb.Polygon)
	if !ok {
		return fmt.Errorf("%w: want Polygon, got %s", ErrWrongGeometry, typeName(g))
	}
	if len(poly) == 0 {
		return ErrTooFewPoints
	}
	for _, ring := range poly {
		if len(ring) < 4 {
			return ErrTooFewPoints
		}
		if !ring.Closed() {
			return ErrOpenRing
		}
		if err := checkPoints(ring); err != nil {
			return err
		}
	}
	return nil
}

func validatePoint(g orb.Geometry) error {
	p, ok := g.(orb.Point)
	if !ok {
		return fmt.Errorf("%w: want Point, got %s", ErrWrongGeometry, typeName(g))
	}
	return checkPoints([]orb.Point{p})
}

func validateLine(g orb.Geometry) error {
	ls, ok := g.(orb.LineString)
	if !ok {
		return fmt.Errorf("%w: want LineString, got %s", ErrWrongGeometry, typeName(g))
	}
	if len(ls) < 2 {
		return ErrTooFewPoints
	}
	return checkPoints(ls)
}

func typeName(g orb.Geometry) string {
	if g == nil {
		return "nothing"
	}
	return g.GeoJSONType()
}
