package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/camilomoreno07/gorkis-api/internal/app"
	"github.com/camilomoreno07/gorkis-api/internal/config"
	"github.com/camilomoreno07/gorkis-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(app.ServiceName, cfg.LogLevel)

	// Dependencies are built once per cold start and reused by warm
	// invocations.
	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	lambda.Start(application.HandleLambda)
}
