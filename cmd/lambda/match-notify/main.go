// Match digest Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"property-matching-engine/internal/config"
	"property-matching-engine/internal/handlers"
	"property-matching-engine/internal/services/database"
	"property-matching-engine/internal/services/digest"
	"property-matching-engine/internal/services/matcher"
	"property-matching-engine/internal/services/ses"
	"property-matching-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	db, err := database.New(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}
	defer db.Close()

	mailer, err := ses.NewService(context.Background(), cfg.AWSRegion, cfg.SESSenderEmail)
	if err != nil {
		panic("Failed to create SES service: " + err.Error())
	}

	properties := database.NewPropertyRepository(db)
	clients := database.NewClientRepository(db)
	matcherSvc := matcher.NewMatcherService(properties, clients, matcher.NewEngine(cfg.MatchWorkers, cfg.ParallelThreshold))

	notifier := digest.NewService(
		matcherSvc,
		database.NewAgentRepository(db),
		properties,
		clients,
		mailer,
		cfg.DigestMaxClients,
		cfg.DashboardURL,
	)

	handler := handlers.NewMatchNotifyHandler(notifier, cfg.MatchDefaults())

	lambda.Start(handler.Handle)
}
