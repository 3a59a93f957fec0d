// Package dispatch orchestrates conversions: it validates the request
// against the capability registry, walks the engine fallback chain, and owns
// input-file cleanup and analytics recording for every attempt.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/swiftconvert/backend/internal/engine"
	"github.com/swiftconvert/backend/internal/filestore"
	"github.com/swiftconvert/backend/internal/models"
	"github.com/swiftconvert/backend/internal/registry"
)

// Recorder receives one analytics record per dispatch, success or failure.
// Implementations must not block the caller.
type Recorder interface {
	Record(rec models.AnalyticsRecord)
}

// NopRecorder discards records. Used in tests.
type NopRecorder struct{}

func (NopRecorder) Record(models.AnalyticsRecord) {}

// Dispatcher routes conversion requests through the engine fallback chain.
// Engine invocations are bounded by a weighted semaphore so a burst of
// requests queues instead of forking unbounded subprocesses, while unrelated
// requests never serialize behind a single global lock.
type Dispatcher struct {
	registry      *registry.Registry
	engines       map[models.EngineID]engine.Engine
	store         *filestore.Store
	recorder      Recorder
	sem           *semaphore.Weighted
	engineTimeout time.Duration
}

// Config carries dispatcher tuning knobs.
type Config struct {
	MaxConcurrent int
	EngineTimeout time.Duration
}

// New builds a Dispatcher. Engines absent from the map are skipped in chains
// that reference them.
func New(reg *registry.Registry, engines []engine.Engine, store *filestore.Store, rec Recorder, cfg Config) *Dispatcher {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.EngineTimeout <= 0 {
		cfg.EngineTimeout = 2 * time.Minute
	}
	if rec == nil {
		rec = NopRecorder{}
	}

	byID := make(map[models.EngineID]engine.Engine, len(engines))
	for _, e := range engines {
		byID[e.ID()] = e
	}

	return &Dispatcher{
		registry:      reg,
		engines:       byID,
		store:         store,
		recorder:      rec,
		sem:           semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		engineTimeout: cfg.EngineTimeout,
	}
}

// Registry exposes the injected capability table for the API layer.
func (d *Dispatcher) Registry() *registry.Registry { return d.registry }

// Dispatch runs one conversion request to completion. The input file is
// deleted exactly once on every exit path, including validation failures;
// idempotent deletion in the filestore makes double-delete harmless.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.ConversionRequest) *models.ConversionResult {
	start := time.Now()
	result := d.dispatch(ctx, req)
	result.TimingMs = time.Since(start).Milliseconds()

	_ = d.store.DeleteNow(req.InputPath)

	d.recorder.Record(models.AnalyticsRecord{
		Timestamp:    start,
		InputFormat:  string(req.InputFormat),
		OutputFormat: string(req.OutputFormat),
		Success:      result.Success,
		ErrorKind:    string(result.ErrorKind),
		DurationMs:   result.TimingMs,
	})
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, req *models.ConversionRequest) *models.ConversionResult {
	chain := d.registry.Chain(req.InputFormat, req.OutputFormat)
	if len(chain) == 0 {
		return &models.ConversionResult{
			Success:   false,
			ErrorKind: models.ErrKindUnsupportedConversion,
			Err: fmt.Errorf("%w: %s -> %s",
				models.ErrUnsupportedConversion, req.InputFormat, req.OutputFormat),
		}
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return &models.ConversionResult{
			Success:   false,
			ErrorKind: models.ErrKindEngineExecution,
			Err:       fmt.Errorf("waiting for conversion slot: %w", err),
		}
	}
	defer d.sem.Release(1)

	var attempted []models.EngineID
	var lastErr error

	for _, id := range chain {
		eng, ok := d.engines[id]
		if !ok {
			continue
		}
		attempted = append(attempted, id)

		engCtx, cancel := context.WithTimeout(ctx, d.engineTimeout)
		outPath, err := eng.Convert(engCtx, req.InputPath, d.store.OutputDir(), req.InputFormat, req.OutputFormat)
		cancel()

		if err == nil {
			return &models.ConversionResult{
				OutputPath: outPath,
				EngineUsed: id,
				Success:    true,
			}
		}
		lastErr = err

		// A cancelled parent context means the client is gone; retrying
		// the next engine would just burn resources.
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no configured engine in chain %v", chain)
	}
	aggErr := &models.AllEnginesFailedError{Attempted: attempted, Last: lastErr}
	return &models.ConversionResult{
		Success:   false,
		ErrorKind: models.ErrKindAllEnginesFailed,
		Err:       aggErr,
	}
}
