package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:embed seed.yaml
var defaultSeed []byte

type DocumentTypeSeed struct {
	Name           string            `yaml:"name"`
	Description    string            `yaml:"description"`
	Fee            string            `yaml:"fee"`
	ValidityDays   *int              `yaml:"validity_days"`
	RequiredFields map[string]string `yaml:"required_fields"`

	fee decimal.Decimal
}

type FAQSeed struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Keywords []string `yaml:"keywords"`
	Category string   `yaml:"category"`
	// Global FAQs are shared by every barangay.
	Global bool `yaml:"global"`
}

type ContactSeed struct {
	Agency      string `yaml:"agency"`
	Phone       string `yaml:"phone"`
	Description string `yaml:"description"`
}

type OfficialSeed struct {
	Name      string `yaml:"name"`
	Position  string `yaml:"position"`
	Committee string `yaml:"committee"`
	Contact   string `yaml:"contact"`
	SortOrder int    `yaml:"sort_order"`
}

type SeedFile struct {
	DocumentTypes     []DocumentTypeSeed `yaml:"document_types"`
	FAQs              []FAQSeed          `yaml:"faqs"`
	EmergencyContacts []ContactSeed      `yaml:"emergency_contacts"`
	Officials         []OfficialSeed     `yaml:"officials"`
}

var errEmptySeed = errors.New("seed file has no rows")

func loadSeed(path string) (*SeedFile, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return parseSeed(data)
}

func parseSeed(data []byte) (*SeedFile, error) {
	var s SeedFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *SeedFile) validate() error {
	if len(s.DocumentTypes)+len(s.FAQs)+len(s.EmergencyContacts)+len(s.Officials) == 0 {
		return errEmptySeed
	}
	seen := map[string]bool{}
	for i := range s.DocumentTypes {
		d := &s.DocumentTypes[i]
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			return fmt.Errorf("document_types[%d]: name is empty", i)
		}
		key := strings.ToLower(d.Name)
		if seen[key] {
			return fmt.Errorf("document_types[%d]: duplicate name %q", i, d.Name)
		}
		seen[key] = true

		fee := strings.TrimSpace(d.Fee)
		if fee == "" {
			fee = "0"
		}
		v, err := decimal.NewFromString(fee)
		if err != nil || v.IsNegative() {
			return fmt.Errorf("document_types[%d]: invalid fee %q", i, d.Fee)
		}
		d.fee = v
		if d.ValidityDays != nil && *d.ValidityDays <= 0 {
			return fmt.Errorf("document_types[%d]: validity_days must be positive", i)
		}
	}
	for i, f := range s.FAQs {
		if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
			return fmt.Errorf("faqs[%d]: question and answer are required", i)
		}
	}
	for i, c := range s.EmergencyContacts {
		if strings.TrimSpace(c.Agency) == "" || strings.TrimSpace(c.Phone) == "" {
			return fmt.Errorf("emergency_contacts[%d]: agency and phone are required", i)
		}
	}
	for i, o := range s.Officials {
		if strings.TrimSpace(o.Name) == "" || strings.TrimSpace(o.Position) == "" {
			return fmt.Errorf("officials[%d]: name and position are required", i)
		}
	}
	return nil
}

// seedID is stable per barangay and natural key, so re-running the seed
// updates rows instead of duplicating them.
func seedID(ns uuid.UUID, kind, barangayID, key string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(kind+":"+barangayID+":"+strings.ToLower(strings.TrimSpace(key))))
}
