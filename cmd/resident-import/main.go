package main

import (
	"flag"
	"os"

	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/residentimport"
	"github.com/apex/log"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		csvPath    = flag.String("csv", "", "path to resident CSV export")
		dbURL      = flag.String("db", os.Getenv("DATABASE_URL"), "DATABASE_URL")
		barangayID = flag.String("barangay", "", "barangay id the residents belong to")
		namespace  = flag.String("namespace", "", "UUID namespace (required, stable forever)")
		importedBy = flag.String("user", "", "user id recorded in the activity log")
		dryRun     = flag.Bool("dry-run", false, "parse and validate only; no DB writes")
	)
	flag.Parse()

	if *csvPath == "" || *barangayID == "" || *namespace == "" || (*dbURL == "" && !*dryRun) {
		flag.Usage()
		os.Exit(2)
	}

	cfg := residentimport.Config{
		CSVPath:    *csvPath,
		BarangayID: *barangayID,
		Namespace:  *namespace,
		ImportedBy: *importedBy,
		DryRun:     *dryRun,
	}

	var conn = db.DB
	if !*dryRun {
		c, err := db.Open(*dbURL, logger.Default.LogMode(logger.Warn))
		if err != nil {
			log.WithError(err).Fatal("connect")
		}
		conn = c
	}

	res, err := residentimport.Run(conn, cfg)
	if err != nil {
		log.WithError(err).Fatal("import failed")
	}
	log.WithFields(log.Fields{
		"residents":  res.Residents,
		"households": res.Households,
	}).Info("import complete")
}
