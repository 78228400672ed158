package riskmap

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

type Kind string

const (
	KindDisasterZone     Kind = "disaster_zone"
	KindEvacuationCenter Kind = "evacuation_center"
	KindEvacuationRoute  Kind = "evacuation_route"
)

var (
	ErrUnknownKind  = errors.New("unknown shape kind")
	ErrInvalidShape = errors.New("invalid shape")
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDisasterZone, KindEvacuationCenter, KindEvacuationRoute:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Shape is one editable map object. The concrete types are *DisasterZone,
// *EvacuationCenter and *EvacuationRoute; each carries its own kind and
// row id, so callers never track which table a drawn layer came from.
type Shape interface {
	Kind() Kind
	ShapeID() uuid.UUID
	Feature() *geojson.Feature
	setIdentity(id uuid.UUID, barangayID string)
}

func (z *DisasterZone) Kind() Kind         { return KindDisasterZone }
func (z *DisasterZone) ShapeID() uuid.UUID { return z.ID }
func (z *DisasterZone) setIdentity(id uuid.UUID, brgy string) {
	z.ID, z.BarangayID = id, brgy
}

func (c *EvacuationCenter) Kind() Kind         { return KindEvacuationCenter }
func (c *EvacuationCenter) ShapeID() uuid.UUID { return c.ID }
func (c *EvacuationCenter) setIdentity(id uuid.UUID, brgy string) {
	c.ID, c.BarangayID = id, brgy
}

func (r *EvacuationRoute) Kind() Kind         { return KindEvacuationRoute }
func (r *EvacuationRoute) ShapeID() uuid.UUID { return r.ID }
func (r *EvacuationRoute) setIdentity(id uuid.UUID, brgy string) {
	r.ID, r.BarangayID = id, brgy
}

func baseFeature(s Shape, g Geometry, name string) *geojson.Feature {
	f := geojson.NewFeature(g.Geom)
	f.ID = s.ShapeID().String()
	f.Properties["kind"] = string(s.Kind())
	f.Properties["id"] = s.ShapeID().String()
	f.Properties["name"] = name
	return f
}

func (z *DisasterZone) Feature() *geojson.Feature {
	f := baseFeature(z, z.Geometry, z.Name)
	f.Properties["hazard_type"] = z.HazardType
	f.Properties["risk_level"] = z.RiskLevel
	f.Properties["description"] = z.Description
	f.Properties["area_m2"] = z.AreaM2
	return f
}

func (c *EvacuationCenter) Feature() *geojson.Feature {
	f := baseFeature(c, c.Geometry, c.Name)
	f.Properties["capacity"] = c.Capacity
	f.Properties["address"] = c.Address
	f.Properties["status"] = c.Status
	f.Properties["contact_person"] = c.ContactPerson
	f.Properties["contact"] = c.Contact
	return f
}

func (r *EvacuationRoute) Feature() *geojson.Feature {
	f := baseFeature(r, r.Geometry, r.Name)
	f.Properties["description"] = r.Description
	f.Properties["length_m"] = r.LengthM
	return f
}

// propReader reads typed feature properties and keeps the first type error.
// orb's Must* accessors panic on a wrong type, which is a client error here.
type propReader struct {
	props geojson.Properties
	err   error
}

func (p *propReader) fail(key, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: property %q must be %s", ErrInvalidShape, key, want)
	}
}

func (p *propReader) str(key, def string) string {
	v, ok := p.props[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		p.fail(key, "a string")
		return def
	}
	return s
}

func (p *propReader) int(key string, def int) int {
	v, ok := p.props[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	case int:
		return n
	}
	p.fail(key, "a whole number")
	return def
}

// ShapeFromFeature builds the shape of the given kind from a drawn GeoJSON
// feature, validating that the geometry fits the kind. An evacuation center
// may come without geometry when it has an address to geocode.
func ShapeFromFeature(kind Kind, f *geojson.Feature) (Shape, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: feature is required", ErrInvalidShape)
	}
	props := &propReader{props: f.Properties}
	name := strings.TrimSpace(props.str("name", ""))
	if props.err != nil {
		return nil, props.err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidShape)
	}

	switch kind {
	case KindDisasterZone:
		if err := validatePolygon(f.Geometry); err != nil {
			return nil, err
		}
		z := &DisasterZone{
			Name:        name,
			HazardType:  props.str("hazard_type", ""),
			RiskLevel:   props.str("risk_level", "medium"),
			Description: props.str("description", ""),
			Geometry:    Geometry{Geom: f.Geometry},
			AreaM2:      round2(geo.Area(f.Geometry)),
		}
		if props.err != nil {
			return nil, props.err
		}
		return z, nil

	case KindEvacuationCenter:
		c := &EvacuationCenter{
			Name:          name,
			Capacity:      props.int("capacity", 0),
			Address:       props.str("address", ""),
			Status:        props.str("status", "open"),
			ContactPerson: props.str("contact_person", ""),
			Contact:       props.str("contact", ""),
		}
		if props.err != nil {
			return nil, props.err
		}
		if f.Geometry == nil {
			if c.Address == "" {
				return nil, fmt.Errorf("%w: evacuation center needs a point or an address", ErrWrongGeometry)
			}
			return c, nil
		}
		if err := validatePoint(f.Geometry); err != nil {
			return nil, err
		}
		c.Geometry = Geometry{Geom: f.Geometry}
		return c, nil

	case KindEvacuationRoute:
		if err := validateLine(f.Geometry); err != nil {
			return nil, err
		}
		rt := &EvacuationRoute{
			Name:        name,
			Description: props.str("description", ""),
			Geometry:    Geometry{Geom: f.Geometry},
			LengthM:     round2(geo.Length(f.Geometry)),
		}
		if props.err != nil {
			return nil, props.err
		}
		return rt, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
