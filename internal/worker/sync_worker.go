// Package worker pushes local journal changes to the Google Sheets
// mirror. It is driven by AMQP messages, with a periodic full reconcile
// as the backstop for lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"salestree/internal/amqp"
	"salestree/internal/core"
	"salestree/internal/journal"
	"salestree/internal/storage"
)

// SheetMirror is what the worker needs from the spreadsheet side. The
// Google client satisfies it; tests use a fake.
type SheetMirror interface {
	Upsert(ctx context.Context, id string, t core.Transaction) error
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, txs []core.Transaction) error
}

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    SheetMirror
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, mirror SheetMirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// Handler returns the AMQP dispatch table for this worker.
func (w *SyncWorker) Handler(ctx context.Context) amqp.Handler {
	return amqp.Handler{
		Sync: func(msg *amqp.TransactionSyncMessage) error {
			return w.HandleSyncMessage(ctx, msg)
		},
		Delete: func(msg *amqp.TransactionDeleteMessage) error {
			return w.HandleDeleteMessage(ctx, msg)
		},
	}
}

// HandleSyncMessage mirrors one inserted or updated row to the sheet.
// The message carries only the ID; the database row is the truth.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	t, err := w.storage.Get(ctx, msg.ID)
	if errors.Is(err, journal.ErrNotFound) {
		// Row was deleted locally between publish and consume. The delete
		// message will clean up the sheet, nothing to do here.
		slog.WarnContext(ctx, "Transaction gone before sync, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirror.Upsert(ctx, msg.ID, t); err != nil {
		return fmt.Errorf("mirror transaction to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored", "id", msg.ID)
	return nil
}

// HandleDeleteMessage removes the row from the sheet. A row the sheet
// never had is treated as done.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	err := w.mirror.Delete(ctx, msg.ID)
	if errors.Is(err, journal.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction already absent from sheet", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete transaction from sheet: %w", err)
	}

	slog.InfoContext(ctx, "Transaction removed from sheet", "id", msg.ID)
	return nil
}

// Reconcile rewrites the whole sheet from the local database. Run
// periodically, it repairs any drift from lost messages or manual sheet
// edits.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	txs, err := w.storage.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}

	if err := w.mirror.ReplaceAll(ctx, txs); err != nil {
		return fmt.Errorf("replace sheet contents: %w", err)
	}

	slog.InfoContext(ctx, "Journal reconciled to sheet", "row_count", len(txs))
	return nil
}
