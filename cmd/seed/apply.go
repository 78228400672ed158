package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Counts struct {
	DocumentTypes     int
	FAQs              int
	EmergencyContacts int
	Officials         int
}

// apply upserts every seed row inside tx.
func apply(ctx context.Context, tx *sql.Tx, ns uuid.UUID, barangayID string, s *SeedFile, now time.Time) (Counts, error) {
	var c Counts

	for _, d := range s.DocumentTypes {
		fields, err := json.Marshal(d.RequiredFields)
		if err != nil {
			return c, err
		}
		if d.RequiredFields == nil {
			fields = []byte("{}")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO barangay.document_types
				(id, barangay_id, name, description, fee, validity_days, required_fields, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				fee = EXCLUDED.fee,
				validity_days = EXCLUDED.validity_days,
				required_fields = EXCLUDED.required_fields,
				is_active = true,
				updated_at = EXCLUDED.updated_at`,
			seedID(ns, "document_type", barangayID, d.Name), barangayID, d.Name, d.Description,
			d.fee.StringFixed(2), d.ValidityDays, string(fields), now)
		if err != nil {
			return c, fmt.Errorf("upsert document type %q: %w", d.Name, err)
		}
		c.DocumentTypes++
	}

	for _, f := range s.FAQs {
		scope := barangayID
		if f.Global {
			scope = ""
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO barangay.chat_faqs
				(id, barangay_id, question, answer, keywords, category, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, true, $7, $7)
			ON CONFLICT (id) DO UPDATE SET
				answer = EXCLUDED.answer,
				keywords = EXCLUDED.keywords,
				category = EXCLUDED.category,
				updated_at = EXCLUDED.updated_at`,
			seedID(ns, "faq", scope, f.Question), scope, f.Question, f.Answer,
			pq.StringArray(f.Keywords), f.Category, now)
		if err != nil {
			return c, fmt.Errorf("upsert faq %q: %w", f.Question, err)
		}
		c.FAQs++
	}

	for _, ec := range s.EmergencyContacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO barangay.emergency_contacts
				(id, barangay_id, agency, phone, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			ON CONFLICT (id) DO UPDATE SET
				phone = EXCLUDED.phone,
				description = EXCLUDED.description,
				updated_at = EXCLUDED.updated_at`,
			seedID(ns, "emergency_contact", barangayID, ec.Agency), barangayID, ec.Agency, ec.Phone, ec.Description, now)
		if err != nil {
			return c, fmt.Errorf("upsert emergency contact %q: %w", ec.Agency, err)
		}
		c.EmergencyContacts++
	}

	for _, o := range s.Officials {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO barangay.officials
				(id, barangay_id, name, position, committee, contact, sort_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				committee = EXCLUDED.committee,
				contact = EXCLUDED.contact,
				sort_order = EXCLUDED.sort_order,
				updated_at = EXCLUDED.updated_at`,
			seedID(ns, "official", barangayID, o.Position), barangayID, o.Name, o.Position, o.Committee, o.Contact, o.SortOrder, now)
		if err != nil {
			return c, fmt.Errorf("upsert official %q: %w", o.Position, err)
		}
		c.Officials++
	}

	return c, nil
}
