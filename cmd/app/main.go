package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/novachain/admin-settlement/pkg/audit"
	"github.com/novachain/admin-settlement/pkg/auth"
	"github.com/novachain/admin-settlement/pkg/engine"
	"github.com/novachain/admin-settlement/pkg/handlers"
	"github.com/novachain/admin-settlement/pkg/metrics"
	dydbstore "github.com/novachain/admin-settlement/pkg/storage/dynamodb"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "admin-settlement").Logger()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, using environment variables")
	}

	// AWS Session
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to load SDK config")
	}

	dbClient := awsdynamodb.NewFromConfig(cfg)
	tables := dydbstore.Tables{
		Balances:    os.Getenv("DYNAMODB_BALANCES_TABLE_NAME"),
		Deposits:    os.Getenv("DYNAMODB_DEPOSITS_TABLE_NAME"),
		Withdrawals: os.Getenv("DYNAMODB_WITHDRAWALS_TABLE_NAME"),
		KYC:         os.Getenv("DYNAMODB_KYC_TABLE_NAME"),
		Trades:      os.Getenv("DYNAMODB_TRADES_TABLE_NAME"),
		WinModes:    os.Getenv("DYNAMODB_WIN_MODES_TABLE_NAME"),
		Settings:    os.Getenv("DYNAMODB_SETTINGS_TABLE_NAME"),
	}
	if tables.Balances == "" || tables.Deposits == "" || tables.Withdrawals == "" ||
		tables.KYC == "" || tables.Trades == "" || tables.WinModes == "" || tables.Settings == "" {
		logger.Fatal().Msg("one or more DynamoDB table name environment variables are not set")
	}

	// Audit publisher. Runs without a queue in local setups.
	var publisher audit.Publisher = audit.NoOpPublisher{}
	if queueURL := os.Getenv("SQS_AUDIT_QUEUE_URL"); queueURL != "" {
		publisher = audit.NewSQSPublisher(sqs.NewFromConfig(cfg), queueURL)
	} else {
		logger.Warn().Msg("SQS_AUDIT_QUEUE_URL not set, transition events will not be published")
	}

	adminToken := os.Getenv("ADMIN_API_TOKEN")
	if adminToken == "" {
		logger.Fatal().Msg("ADMIN_API_TOKEN environment variable not set")
	}
	verifier := auth.NewStaticTokenVerifier(adminToken, "admin")

	// Create our storage implementation and the workflow engine.
	store := dydbstore.New(dbClient, tables)
	collector := metrics.NewCollector()
	eng := engine.New(store, publisher, collector, logger)

	handler := handlers.NewApiHandler(eng, logger)
	router := handlers.NewRouter(handler, verifier, collector, logger)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	logger.Info().Str("port", port).Msg("starting server")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
