package db

import "gorm.io/gorm"

// Schema holds every barangay-scoped table.
const Schema = "barangay"

func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}

// EnsureExtensions enables the extensions the migrations rely on.
func EnsureExtensions(d *gorm.DB) error {
	for _, ext := range []string{"uuid-ossp", "pg_trgm", "unaccent"} {
		if err := d.Exec(`CREATE EXTENSION IF NOT EXISTS "` + ext + `"`).Error; err != nil {
			return err
		}
	}
	return nil
}
