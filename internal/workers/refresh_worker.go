package workers

import (
	"context"
	"time"

	"zborinfo/dispecer/internal/constants"
	"zborinfo/dispecer/internal/logging"
	"zborinfo/dispecer/internal/registry"
	"zborinfo/dispecer/internal/services"
)

// RefreshWorker keeps the flight cache warm for the core airports so page
// loads rarely hit a cold miss, and periodically rescans the cache for
// airports the auto-loader has not seen yet.
type RefreshWorker struct {
	flights  *services.FlightsService
	loader   *registry.AutoLoader
	airports []string
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewRefreshWorker builds the worker for the given airport codes.
func NewRefreshWorker(flights *services.FlightsService, loader *registry.AutoLoader, airports []string, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		flights:  flights,
		loader:   loader,
		airports: airports,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the refresh loop. The first pass runs immediately.
func (w *RefreshWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the loop and waits for the in-flight pass to finish.
func (w *RefreshWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *RefreshWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refreshAll(ctx)

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

func (w *RefreshWorker) refreshAll(ctx context.Context) {
	start := time.Now()
	refreshed := 0

	for _, airport := range w.airports {
		for _, way := range []constants.FlightWay{constants.FlightWayArrivals, constants.FlightWayDepartures} {
			select {
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			default:
			}

			if err := w.flights.Refresh(ctx, airport, way); err != nil {
				// Stale cached data keeps serving; next tick retries.
				logging.Warn("background refresh failed", "airport", airport, "way", string(way), "error", err.Error())
				continue
			}
			refreshed++
		}
	}

	if w.loader != nil {
		w.loader.ScanCache(ctx)
	}

	logging.Info("background refresh pass finished",
		"airports", len(w.airports),
		"refreshed", refreshed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
