// Health Check Lambda entry point
package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"property-matching-engine/internal/config"
	"property-matching-engine/internal/handlers"
	"property-matching-engine/internal/services/database"
	"property-matching-engine/internal/utils"
)

func main() {
	_ = utils.InitLogger("info")
	defer utils.Sync()

	// Report "not configured" instead of failing when the database is unreachable
	var db handlers.Pinger
	if cfg, err := config.Load(); err == nil {
		if conn, err := database.New(cfg); err == nil {
			defer conn.Close()
			db = conn
		} else {
			utils.GetLogger().Warn("Database unavailable", utils.Error(err))
		}
	}

	handler := handlers.NewHealthHandler(db)

	lambda.Start(handler.Handle)
}
