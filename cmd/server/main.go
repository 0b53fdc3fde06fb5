// Package main provides the HTTP API server of the property matching engine.
// Agent identity comes from the X-Agent-ID header set by the gateway in front
// of the server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"property-matching-engine/internal/config"
	"property-matching-engine/internal/handlers"
	"property-matching-engine/internal/models"
	"property-matching-engine/internal/services/database"
	"property-matching-engine/internal/services/digest"
	"property-matching-engine/internal/services/matcher"
	s3service "property-matching-engine/internal/services/s3"
	"property-matching-engine/internal/services/ses"
	"property-matching-engine/internal/utils"
)

// Matcher runs matching requests for an agent.
type Matcher interface {
	Match(ctx context.Context, agentID uuid.UUID, req models.MatchRequest, base models.MatchConfig) (*models.MatchResponse, error)
}

// ReportStore stores match reports and hands out download links.
type ReportStore interface {
	StoreMatchReport(ctx context.Context, report *models.MatchReport) (*s3service.PresignedURLResult, error)
}

// ListingImporter imports listing CSV content for an agent.
type ListingImporter interface {
	Import(ctx context.Context, agentID uuid.UUID, content []byte) (*handlers.ListingImportResult, error)
}

// ClientCriteriaStore reads clients and stores their search criteria.
type ClientCriteriaStore interface {
	GetByID(ctx context.Context, agentID, clientID uuid.UUID) (*models.Client, error)
	SaveCriteria(ctx context.Context, clientID uuid.UUID, c *models.SearchCriteria) error
}

// AvailabilityUpdater changes the sales status of properties.
type AvailabilityUpdater interface {
	UpdateAvailability(ctx context.Context, agentID, propertyID uuid.UUID, status models.AvailabilityStatus) error
}

// Server holds all dependencies. Nil dependencies disable their endpoints.
type Server struct {
	health     *handlers.HealthHandler
	matcher    Matcher
	reports    ReportStore
	uploads    handlers.ListingUploadPresigner
	importer   ListingImporter
	notifier   handlers.DigestNotifier
	clients    ClientCriteriaStore
	properties AvailabilityUpdater
	config     *config.Config
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	server := &Server{config: cfg}

	db, err := database.New(cfg)
	if err != nil {
		logger.Warn("Could not connect to database, matching endpoints disabled", utils.Error(err))
		server.health = handlers.NewHealthHandler(nil)
	} else {
		defer db.Close()
		server.health = handlers.NewHealthHandler(db)

		properties := database.NewPropertyRepository(db)
		clients := database.NewClientRepository(db)
		matcherSvc := matcher.NewMatcherService(properties, clients, matcher.NewEngine(cfg.MatchWorkers, cfg.ParallelThreshold))

		server.matcher = matcherSvc
		server.clients = clients
		server.properties = properties
		server.importer = handlers.NewListingImportHandler(nil, properties)

		if mailer, err := ses.NewService(context.Background(), cfg.AWSRegion, cfg.SESSenderEmail); err != nil {
			logger.Warn("Could not create SES service, digests disabled", utils.Error(err))
		} else {
			server.notifier = digest.NewService(matcherSvc, database.NewAgentRepository(db), properties, clients, mailer, cfg.DigestMaxClients, cfg.DashboardURL)
		}
	}

	if store, err := s3service.NewService(context.Background(), cfg.AWSRegion, cfg.S3Bucket); err != nil {
		logger.Warn("Could not create S3 service, reports and uploads disabled", utils.Error(err))
	} else {
		server.reports = store
		server.uploads = store
	}

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Property Matching Engine API listening",
		utils.String("addr", addr),
		utils.String("stage", cfg.Stage))

	if err := httpServer.ListenAndServe(); err != nil {
		logger.Fatal("Server failed", utils.Error(err))
	}
}

// routes builds the HTTP handler with CORS applied.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/health", s.healthHandler)

	// Matching
	mux.HandleFunc("/api/matching/properties-for-client", s.withAgent(s.propertiesForClientHandler))
	mux.HandleFunc("/api/matching/clients-for-property", s.withAgent(s.clientsForPropertyHandler))
	mux.HandleFunc("/api/matching/search", s.withAgent(s.searchHandler))
	mux.HandleFunc("/api/matching/quick", s.withAgent(s.quickMatchHandler))
	mux.HandleFunc("/api/matching/report", s.withAgent(s.reportHandler))
	mux.HandleFunc("/api/matching/notify", s.withAgent(s.notifyHandler))

	// Listings
	mux.HandleFunc("/api/properties/upload-url", s.withAgent(s.uploadURLHandler))
	mux.HandleFunc("/api/properties/import", s.withAgent(s.importHandler))
	mux.HandleFunc("PATCH /api/properties/{id}/availability", s.withAgent(s.availabilityHandler))

	// Clients
	mux.HandleFunc("PUT /api/clients/{id}/criteria", s.withAgent(s.saveCriteriaHandler))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", handlers.AgentIDHeader},
	})

	return c.Handler(mux)
}
