package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/novachain/admin-settlement/pkg/audit"
	"github.com/novachain/admin-settlement/pkg/models"
	"github.com/novachain/admin-settlement/pkg/storage"
	dydbstore "github.com/novachain/admin-settlement/pkg/storage/dynamodb"
	"github.com/rs/zerolog"
)

var store storage.Storage
var publisher audit.Publisher
var logger zerolog.Logger

const stuckRequestThreshold = 24 * time.Hour

func init() {
	logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "reconciliation-lambda").Logger()

	// Load environment variables for local testing.
	godotenv.Load()

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
	store = dydbstore.New(dbClient, tables)

	publisher = audit.NoOpPublisher{}
	if queueURL := os.Getenv("SQS_AUDIT_QUEUE_URL"); queueURL != "" {
		publisher = audit.NewSQSPublisher(sqs.NewFromConfig(cfg), queueURL)
	}
}

// HandleRequest is triggered by an EventBridge Schedule. It surfaces
// requests that sat pending past the review threshold so operators can
// chase them; nothing is auto-settled here.
func HandleRequest(ctx context.Context) error {
	logger.Info().Msg("starting reconciliation scan for stale pending requests")

	stuckDeposits, err := store.GetStuckDeposits(ctx, stuckRequestThreshold)
	if err != nil {
		logger.Error().Err(err).Msg("failed to get stuck deposits")
		return err
	}
	stuckWithdrawals, err := store.GetStuckWithdrawals(ctx, stuckRequestThreshold)
	if err != nil {
		logger.Error().Err(err).Msg("failed to get stuck withdrawals")
		return err
	}

	if len(stuckDeposits) == 0 && len(stuckWithdrawals) == 0 {
		logger.Info().Msg("no stale pending requests found")
		return nil
	}

	for _, d := range stuckDeposits {
		logger.Warn().
			Str("deposit_id", d.ID).
			Str("user_id", d.UserID).
			Time("created_at", d.CreatedAt).
			Msg("deposit pending past review threshold")

		event := &models.TransitionEvent{
			EventID:    uuid.NewString(),
			Kind:       models.KindDeposit,
			EntityID:   d.ID,
			UserID:     d.UserID,
			OldStatus:  string(models.StatusPending),
			NewStatus:  string(models.StatusPending),
			Actor:      "reconciliation",
			Detail:     "stale pending request",
			OccurredAt: time.Now().UTC(),
		}
		if err := publisher.PublishTransition(ctx, event); err != nil {
			logger.Error().Err(err).Str("deposit_id", d.ID).Msg("failed to publish stale-deposit alert")
			// Continue with the rest of the batch.
			continue
		}
	}

	for _, w := range stuckWithdrawals {
		logger.Warn().
			Str("withdrawal_id", w.ID).
			Str("user_id", w.UserID).
			Time("created_at", w.CreatedAt).
			Msg("withdrawal pending past review threshold")

		event := &models.TransitionEvent{
			EventID:    uuid.NewString(),
			Kind:       models.KindWithdrawal,
			EntityID:   w.ID,
			UserID:     w.UserID,
			OldStatus:  string(models.StatusPending),
			NewStatus:  string(models.StatusPending),
			Actor:      "reconciliation",
			Detail:     "stale pending request",
			OccurredAt: time.Now().UTC(),
		}
		if err := publisher.PublishTransition(ctx, event); err != nil {
			logger.Error().Err(err).Str("withdrawal_id", w.ID).Msg("failed to publish stale-withdrawal alert")
			continue
		}
	}

	logger.Info().
		Int("stuck_deposits", len(stuckDeposits)).
		Int("stuck_withdrawals", len(stuckWithdrawals)).
		Msg("reconciliation scan finished")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
