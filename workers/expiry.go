package workers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"museum-ticketing/logger"
	orderService "museum-ticketing/services/order"
)

// DefaultSweepInterval is how often unpaid orders are checked for
// expiry when ORDER_EXPIRY_SWEEP_MINUTES is not set.
const DefaultSweepInterval = 5 * time.Minute

// ExpiryWorker periodically expires pending orders whose payment
// deadline has passed. Each sweep uses guarded per-order updates, so a
// sweep racing a proof upload or a crashed-and-restarted worker never
// expires an order twice.
type ExpiryWorker struct {
	Orders   *orderService.Service
	Interval time.Duration
}

func NewExpiryWorker(orders *orderService.Service) *ExpiryWorker {
	return &ExpiryWorker{
		Orders:   orders,
		Interval: sweepIntervalFromEnv(),
	}
}

func sweepIntervalFromEnv() time.Duration {
	raw := os.Getenv("ORDER_EXPIRY_SWEEP_MINUTES")
	if raw == "" {
		return DefaultSweepInterval
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 1 {
		logger.Warning("Invalid ORDER_EXPIRY_SWEEP_MINUTES, using default: " + raw)
		return DefaultSweepInterval
	}
	return time.Duration(minutes) * time.Minute
}

// Run sweeps once immediately, then on every tick until ctx is
// cancelled. Call it from its own goroutine.
func (w *ExpiryWorker) Run(ctx context.Context) {
	logger.Info(fmt.Sprintf("Order expiry worker started, sweeping every %s", w.Interval))

	w.sweep(ctx)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Order expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	swept, err := w.Orders.ExpireSweep(ctx)
	if err != nil {
		logger.Error("Order expiry sweep failed", err)
		return
	}
	if swept > 0 {
		logger.Info(fmt.Sprintf("Expired %d unpaid orders", swept))
	}
}
