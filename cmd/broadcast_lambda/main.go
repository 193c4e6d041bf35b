package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	dydbstore "github.com/novachain/admin-settlement/pkg/storage/dynamodb"
	"github.com/rs/zerolog"
)

var store storage.Storage
var logger zerolog.Logger

func init() {
	logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "broadcast-lambda").Logger()

	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, using environment variables")
	}

	// Initialize dependencies once.
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
	if tables.Withdrawals == "" {
		logger.Fatal().Msg("DYNAMODB_WITHDRAWALS_TABLE_NAME environment variable not set")
	}

	store = dydbstore.New(dbClient, tables)
}

// HandleRequest consumes transition events and finalizes approved
// withdrawals once the outbound transfer is handed off.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		var event models.TransitionEvent
		if err := json.Unmarshal([]byte(message.Body), &event); err != nil {
			logger.Error().Err(err).Str("message_id", message.MessageId).Msg("failed to unmarshal transition event")
			// Returning an error makes SQS retry the message.
			return err
		}

		if event.Kind != models.KindWithdrawal || event.NewStatus != string(models.StatusApproved) {
			continue
		}

		logger.Info().Str("withdrawal_id", event.EntityID).Msg("completing approved withdrawal")

		if _, err := store.CompleteWithdrawal(ctx, event.EntityID); err != nil {
			// Already completed means a redelivered message; safe to drop.
			if errors.Is(err, storage.ErrInvalidStateTransition) || errors.Is(err, storage.ErrNotFound) {
				logger.Warn().Err(err).Str("withdrawal_id", event.EntityID).Msg("skipping withdrawal")
				continue
			}
			logger.Error().Err(err).Str("withdrawal_id", event.EntityID).Msg("failed to complete withdrawal")
			return err
		}
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
