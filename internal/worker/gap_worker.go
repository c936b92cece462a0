// Package worker consumes transaction events and maintains the mapping-gap table.
package worker

import (
	"context"
	"fmt"

	"donghaeng/internal/amqp"
	applog "donghaeng/internal/log"
	"donghaeng/internal/ports"
)

// reportLimit caps how many gaps a summary logs.
const reportLimit = 10

// GapWorker counts raw category labels that did not map to a standard category.
type GapWorker struct {
	gaps   ports.GapRecorder
	logger *applog.Logger
}

func NewGapWorker(gaps ports.GapRecorder, logger *applog.Logger) *GapWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &GapWorker{gaps: gaps, logger: logger.WithComponent(applog.ComponentWorker)}
}

// HandleEvent implements amqp.EventHandler. Only created events with an
// unmapped category are recorded; a returned error requeues the message.
func (w *GapWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	if event.Type != amqp.EventCreated || event.Mapped {
		w.logger.DebugContext(ctx, "Skipping event", "type", event.Type, applog.FieldTxID, event.TransactionID)
		return nil
	}

	if err := w.gaps.RecordMappingGap(ctx, event.RawCategory, event.Timestamp); err != nil {
		return fmt.Errorf("record mapping gap: %w", err)
	}

	w.logger.InfoContext(ctx, "Recorded mapping gap",
		applog.FieldRawCategory, event.RawCategory,
		applog.FieldTxID, event.TransactionID,
		applog.FieldOwnerID, event.OwnerID)
	return nil
}

// ReportGaps logs the most frequent unmapped labels so they can be added to
// the mapping table.
func (w *GapWorker) ReportGaps(ctx context.Context) error {
	gaps, err := w.gaps.ListMappingGaps(ctx)
	if err != nil {
		return fmt.Errorf("list mapping gaps: %w", err)
	}
	if len(gaps) == 0 {
		w.logger.InfoContext(ctx, "No mapping gaps recorded")
		return nil
	}

	if len(gaps) > reportLimit {
		gaps = gaps[:reportLimit]
	}
	for _, g := range gaps {
		w.logger.WarnContext(ctx, "Unmapped category label",
			applog.FieldRawCategory, g.Label,
			"count", g.Count,
			"last_seen", g.LastSeen)
	}
	return nil
}
