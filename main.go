package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/auth"
	"github.com/EmpoweredVote/Barangay-Backend/internal/chat"
	"github.com/EmpoweredVote/Barangay-Backend/internal/community"
	"github.com/EmpoweredVote/Barangay-Backend/internal/config"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/documents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/geocoding"
	"github.com/EmpoweredVote/Barangay-Backend/internal/incidents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/middleware"
	"github.com/EmpoweredVote/Barangay-Backend/internal/payments"
	"github.com/EmpoweredVote/Barangay-Backend/internal/residents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/riskmap"
	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg := config.LoadFromEnv()
	config.SetupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	chatCfg := chat.LoadFromEnv()
	if err := chatCfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid chat configuration")
	}
	middleware.AllowOriginsFromEnv()
	if err := documents.SetTimezone(cfg.Timezone); err != nil {
		log.WithError(err).Fatal("invalid BARANGAY_TIMEZONE")
	}

	db.Connect()
	if err := db.EnsureExtensions(db.DB); err != nil {
		log.WithError(err).Fatal("Failed to enable postgres extensions")
	}
	if err := db.EnsureSchema(db.DB, db.Schema); err != nil {
		log.WithError(err).Fatal("Failed to ensure schema " + db.Schema)
	}

	auth.Init()
	activity.Init()
	residents.Init()
	documents.Init()
	payments.Init()
	incidents.Init()
	riskmap.Init()
	community.Init()
	chat.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := riskmap.NewHub()
	go hub.Run(ctx)

	var geo riskmap.Geocoder
	if gc, err := geocoding.NewClient(); err != nil {
		log.WithError(err).Warn("geocoding disabled")
	} else if gc != nil {
		geo = gc
	}

	dispatcher, err := chat.NewDefaultDispatcher(chatCfg, chat.NewGormStore(db.DB))
	if err != nil {
		log.WithError(err).Fatal("Failed to build chat assistant")
	}
	if !chatCfg.LLMEnabled() {
		log.Warn("LLM_API_KEY not set; chat answers come from FAQs and records only")
	}

	if err := middleware.TrustProxiesFromEnv(); err != nil {
		log.WithError(err).Fatal("Invalid TRUSTED_PROXIES")
	}

	sessions := auth.SessionInfo{}
	chatLimit := middleware.NewRateLimiter(cfg.ChatRatePerMinute, cfg.ChatRateBurst)
	emergencyLimit := middleware.NewRateLimiter(cfg.EmergencyRatePerMinute, cfg.EmergencyRateBurst)
	go chatLimit.Run(ctx)
	go emergencyLimit.Run(ctx)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/activity", activity.SetupRoutes(sessions))
	r.Mount("/residents", residents.SetupRoutes(sessions))
	r.Mount("/documents", documents.SetupRoutes(sessions))
	r.Mount("/incidents", incidents.SetupRoutes(sessions))
	r.Mount("/map", riskmap.SetupRoutes(sessions, riskmap.NewHandler(hub, geo), emergencyLimit))
	r.Mount("/community", community.SetupRoutes(sessions))
	r.Mount("/chat", chat.SetupRoutes(sessions, chat.NewEndpoint(dispatcher, auth.FindUserByToken), chatLimit))
	r.Mount("/webhooks", payments.SetupRoutes())

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("port", cfg.Port).Info("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server stopped")
	}
}
