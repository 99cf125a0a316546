package services

import (
	"context"
	"fmt"
	"log/slog"

	"salestree/internal/amqp"
	"salestree/internal/core"
	"salestree/internal/importer"
	"salestree/internal/storage"
)

// JournalService orchestrates journal writes across SQLite and AMQP.
// The local database is the source of truth; sync messages are fire
// and forget so a broker outage never blocks bookkeeping.
type JournalService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewJournalService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *JournalService {
	return &JournalService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

func (s *JournalService) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.LoadAll(ctx)
}

func (s *JournalService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.Get(ctx, id)
}

// Insert validates and saves a transaction locally, then publishes a
// sync message for the spreadsheet worker.
func (s *JournalService) Insert(ctx context.Context, t core.Transaction) (string, error) {
	t = t.Normalized()
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}

	id, err := s.storage.Insert(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishSyncMessage(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
		// Transaction is saved locally, do not fail the request.
	}

	return id, nil
}

func (s *JournalService) Update(ctx context.Context, id string, t core.Transaction) error {
	t = t.Normalized()
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.storage.Update(ctx, id, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if err := s.publishSyncMessage(ctx, id, 2); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return nil
}

func (s *JournalService) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publishDeleteMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

// ReplaceAll swaps the whole journal, as after a bulk import.
func (s *JournalService) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	if err := s.storage.ReplaceAll(ctx, txs); err != nil {
		return fmt.Errorf("replace journal: %w", err)
	}
	return nil
}

// Import appends the usable rows of a parsed tabular file to the
// journal. Rows the importer skipped are reported, not fatal.
func (s *JournalService) Import(ctx context.Context, result importer.Result) (int, error) {
	inserted := 0
	for _, t := range result.Transactions {
		if _, err := s.Insert(ctx, t); err != nil {
			slog.WarnContext(ctx, "Skipping unimportable transaction",
				"counterparty", t.Counterparty, "error", err)
			continue
		}
		inserted++
	}

	slog.InfoContext(ctx, "Imported journal rows",
		"inserted", inserted,
		"skipped", len(result.Skipped))

	return inserted, nil
}

func (s *JournalService) publishSyncMessage(ctx context.Context, id string, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishTransactionSync(ctx, id, version)
}

func (s *JournalService) publishDeleteMessage(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}

	return s.amqpClient.PublishTransactionDelete(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *JournalService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close journal service: %v", errs)
	}

	return nil
}
