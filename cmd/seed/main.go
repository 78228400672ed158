package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		seedPath    = flag.String("file", "", "seed YAML (default: built-in starter data)")
		dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
		barangayID  = flag.String("barangay", "", "barangay id to seed (required)")
		namespace   = flag.String("namespace", "", "UUID namespace for stable ids (required)")
		dryRun      = flag.Bool("dry-run", false, "parse and validate only; no DB writes")
		advisoryKey = flag.Int64("advisory-lock", 0, "optional Postgres advisory lock key; 0 disables")
	)
	flag.Parse()

	if *barangayID == "" || *namespace == "" {
		flag.Usage()
		os.Exit(2)
	}
	ns, err := uuid.Parse(*namespace)
	if err != nil {
		log.WithError(err).Fatal("invalid --namespace")
	}

	seed, err := loadSeed(*seedPath)
	if err != nil {
		log.WithError(err).Fatal("load seed")
	}
	fields := log.Fields{
		"document_types":     len(seed.DocumentTypes),
		"faqs":               len(seed.FAQs),
		"emergency_contacts": len(seed.EmergencyContacts),
		"officials":          len(seed.Officials),
	}
	if *dryRun {
		log.WithFields(fields).Info("dry run complete, no changes made")
		return
	}
	if *dsn == "" {
		log.Fatal("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.WithError(err).Fatal("connect")
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("ping")
	}

	counts, err := run(ctx, conn, ns, *barangayID, seed, *advisoryKey)
	if err != nil {
		log.WithError(err).Fatal("seed failed")
	}
	log.WithFields(log.Fields{
		"barangay":           *barangayID,
		"document_types":     counts.DocumentTypes,
		"faqs":               counts.FAQs,
		"emergency_contacts": counts.EmergencyContacts,
		"officials":          counts.Officials,
	}).Info("seed complete")
}

// run applies the seed in one transaction.
func run(ctx context.Context, conn *sql.DB, ns uuid.UUID, barangayID string, seed *SeedFile, advisoryKey int64) (Counts, error) {
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Counts{}, err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryKey); err != nil {
			return Counts{}, err
		}
	}

	counts, err := apply(ctx, tx, ns, barangayID, seed, time.Now().UTC())
	if err != nil {
		return Counts{}, err
	}
	return counts, tx.Commit()
}
