package community

import (
	"errors"
	"strings"
)

var ErrInvalid = errors.New("invalid record")

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.Join(ErrInvalid, errors.New(field+" is required"))
	}
	return nil
}

func (a *Announcement) validate() error { return required("title", a.Title) }

func (e *Event) validate() error {
	if err := required("title", e.Title); err != nil {
		return err
	}
	if e.StartsAt.IsZero() {
		return errors.Join(ErrInvalid, errors.New("starts_at is required"))
	}
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return errors.Join(ErrInvalid, errors.New("ends_at is before starts_at"))
	}
	return nil
}

func (o *Official) validate() error {
	if err := required("name", o.Name); err != nil {
		return err
	}
	return required("position", o.Position)
}

func (c *EmergencyContact) validate() error {
	if err := required("agency", c.Agency); err != nil {
		return err
	}
	return required("phone", c.Phone)
}
