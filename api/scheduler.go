/*
scheduler.go - Automated contract maintenance

PURPOSE:
  Periodically expires active contracts whose end date has passed and
  generates missing schedules for active contracts whose best-effort
  generation failed at save time.

DESIGN:
  - Runs on robfig/cron with a configurable spec (SWEEP_SCHEDULE)
  - Overlapping runs are skipped (SkipIfStillRunning), panics recovered
  - Runs once immediately on Start
  - Keeps the last result for the admin endpoint

USAGE:
  scheduler, err := NewMaintenanceScheduler(handler, "@daily", log)
  scheduler.Start()
  // ... later
  scheduler.Stop(ctx)

SEE ALSO:
  - generic/contract.go: ExpireEnded, GenerateMissing
  - config/config.go: SWEEP_SCHEDULE
*/
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/warp/lease-engine/generic"
)

// MaintenanceScheduler runs the contract maintenance sweep.
type MaintenanceScheduler struct {
	Handler *Handler
	Log     logrus.FieldLogger

	cron *cron.Cron
	mu   sync.Mutex
	last *SweepResultDTO
}

// NewMaintenanceScheduler creates a scheduler running the sweep on the
// given cron spec.
func NewMaintenanceScheduler(h *Handler, spec string, log logrus.FieldLogger) (*MaintenanceScheduler, error) {
	ms := &MaintenanceScheduler{Handler: h, Log: log}
	logger := cronLogger{log: log}
	ms.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)),
	)
	if _, err := ms.cron.AddFunc(spec, func() { ms.RunOnce(context.Background(), h.Clock()) }); err != nil {
		return nil, err
	}
	return ms, nil
}

// Start begins the scheduler and runs one sweep in the background.
func (ms *MaintenanceScheduler) Start() {
	ms.cron.Start()
	go ms.RunOnce(context.Background(), ms.Handler.Clock())
	ms.Log.WithField("entries", len(ms.cron.Entries())).Info("maintenance scheduler started")
}

// Stop stops the scheduler and waits for a running sweep or ctx.
func (ms *MaintenanceScheduler) Stop(ctx context.Context) {
	done := ms.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	ms.Log.Info("maintenance scheduler stopped")
}

// RunOnce expires ended contracts, then repairs missing schedules.
func (ms *MaintenanceScheduler) RunOnce(ctx context.Context, today generic.Date) SweepResultDTO {
	result := SweepResultDTO{RanAt: time.Now().UTC(), AsOf: today}
	log := ms.Log.WithField("as_of", today.String())

	expired, err := ms.Handler.Contracts.ExpireEnded(ctx, today)
	result.Expired = expired
	if err != nil {
		result.Error = err.Error()
		log.WithError(err).Error("contract expiry failed")
	} else {
		generated, err := ms.Handler.Contracts.GenerateMissing(ctx)
		result.Generated = generated
		if err != nil {
			result.Error = err.Error()
			log.WithError(err).Error("schedule repair failed")
		}
	}

	if result.Expired > 0 || result.Generated > 0 {
		log.WithFields(logrus.Fields{
			"expired":   result.Expired,
			"generated": result.Generated,
		}).Info("maintenance sweep completed")
	}

	ms.mu.Lock()
	ms.last = &result
	ms.mu.Unlock()
	return result
}

// TriggerSweep runs a sweep now (?as_of= overrides today).
func (ms *MaintenanceScheduler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	today, err := ms.Handler.today(r)
	if err != nil {
		writeEngineError(w, "Invalid date", err)
		return
	}
	writeJSON(w, http.StatusOK, ms.RunOnce(r.Context(), today))
}

// LastSweep returns the result of the most recent sweep, or null.
func (ms *MaintenanceScheduler) LastSweep(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	last := ms.last
	ms.mu.Unlock()
	writeJSON(w, http.StatusOK, last)
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(kv []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			fields[k] = kv[i+1]
		}
	}
	return fields
}
