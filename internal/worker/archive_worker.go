// Package worker mirrors archived months to an external writer.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"anggaran/internal/amqp"
	"anggaran/internal/core"
	"anggaran/internal/ledger"
	applog "anggaran/internal/log"
	"anggaran/internal/sheets"
	"anggaran/internal/storage"
)

// ArchiveWorker copies monthly archives from the budget store to a sheets
// writer. It only reads the store.
type ArchiveWorker struct {
	store  storage.Store
	writer sheets.ArchiveWriter
	logger *applog.Logger

	mu     sync.Mutex
	synced map[core.Month]time.Time // month -> ArchivedAt last written
}

func NewArchiveWorker(store storage.Store, writer sheets.ArchiveWriter, logger *applog.Logger) *ArchiveWorker {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &ArchiveWorker{
		store:  store,
		writer: writer,
		logger: logger.WithComponent(applog.ComponentWorker),
		synced: make(map[core.Month]time.Time),
	}
}

// HandleArchiveSync processes one archive message. A month with no
// archive is acknowledged without writing; a redelivered archive that was
// already written is skipped.
func (w *ArchiveWorker) HandleArchiveSync(ctx context.Context, msg *amqp.ArchiveSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing archive sync message",
		applog.FieldMonth, string(msg.Month),
		"timestamp", msg.Timestamp)

	archives, err := w.loadArchives(ctx)
	if err != nil {
		return err
	}
	for _, a := range archives {
		if a.Month == msg.Month {
			return w.syncArchive(ctx, a)
		}
	}
	w.logger.WarnContext(ctx, "Archive not found in store, nothing to sync", applog.FieldMonth, string(msg.Month))
	return nil
}

// ProcessAllArchives writes every stored archive not yet written by this
// worker. This is a backup mechanism in case AMQP messages are lost. The
// writer upserts by month, so a restarted worker rewrites rather than
// duplicates.
func (w *ArchiveWorker) ProcessAllArchives(ctx context.Context) (int, error) {
	archives, err := w.loadArchives(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range archives {
		if w.alreadySynced(a) {
			continue
		}
		if err := w.syncArchive(ctx, a); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Backfilled archives", "count", n)
	}
	return n, nil
}

func (w *ArchiveWorker) loadArchives(ctx context.Context) ([]core.MonthlyArchive, error) {
	if r, ok := w.store.(storage.Refresher); ok {
		if err := r.Refresh(); err != nil {
			return nil, fmt.Errorf("refresh store: %w", err)
		}
	}
	archives, err := storage.Load[[]core.MonthlyArchive](ctx, w.store, string(ledger.SlotArchives), nil)
	if err != nil {
		return nil, fmt.Errorf("load archives: %w", err)
	}
	return archives, nil
}

func (w *ArchiveWorker) syncArchive(ctx context.Context, a core.MonthlyArchive) error {
	if w.alreadySynced(a) {
		w.logger.InfoContext(ctx, "Archive already synced, skipping", applog.FieldMonth, string(a.Month))
		return nil
	}
	if err := w.writer.UpsertArchive(ctx, a); err != nil {
		w.logger.ErrorContext(ctx, "Failed to write archive",
			applog.FieldOperation, applog.OpSync,
			applog.FieldMonth, string(a.Month),
			applog.FieldError, err)
		return fmt.Errorf("write archive %s: %w", a.Month, err)
	}
	w.mu.Lock()
	w.synced[a.Month] = a.ArchivedAt
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Successfully synced archive",
		applog.FieldOperation, applog.OpSync,
		applog.FieldMonth, string(a.Month),
		"categories", len(a.Categories))
	return nil
}

func (w *ArchiveWorker) alreadySynced(a core.MonthlyArchive) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	at, ok := w.synced[a.Month]
	return ok && at.Equal(a.ArchivedAt)
}
