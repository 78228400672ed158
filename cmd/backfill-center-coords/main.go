package main

import (
	"context"
	"flag"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/geocoding"
	"github.com/EmpoweredVote/Barangay-Backend/internal/riskmap"
	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// Fills in the map point of evacuation centers that were saved with only an
// address, e.g. before GOOGLE_MAPS_API_KEY was configured.
func main() {
	_ = godotenv.Load(".env.local")

	var (
		barangayID = flag.String("barangay", "", "limit to one barangay (default: all)")
		dryRun     = flag.Bool("dry-run", false, "geocode only; no database writes")
	)
	flag.Parse()

	geo, err := geocoding.NewClient()
	if err != nil {
		log.WithError(err).Fatal("geocoding client")
	}
	if geo == nil {
		log.Fatal("GOOGLE_MAPS_API_KEY environment variable is required")
	}

	db.Connect()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := riskmap.BackfillCenterPoints(ctx, db.DB, geo, *barangayID, *dryRun)
	if err != nil {
		log.WithError(err).Fatal("backfill failed")
	}
	log.WithFields(log.Fields{
		"candidates": res.Candidates,
		"updated":    res.Updated,
		"failed":     res.Failed,
		"dry_run":    *dryRun,
	}).Info("backfill complete")
}
