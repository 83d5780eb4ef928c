package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry drains buffered telemetry before the planner process exits.
// Prometheus metrics are pull-based and need no flush, so this amounts to
// syncing the log buffers. Call it after in-flight API requests have drained,
// so the last session activity makes it to the sink.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	logger.Info("draining telemetry buffers")
	if err := logger.Sync(); err != nil {
		return fmt.Errorf("flush logs: %w", err)
	}
	return nil
}
