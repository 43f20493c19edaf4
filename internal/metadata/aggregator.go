// Package metadata provides the agencyd metadata aggregator: a live snapshot
// of system identity, uptime, and task counters attached to every response
// envelope.
package metadata

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agencyd/internal/config"
)

// Version is the agencyd release identity, set via ldflags during build.
var Version = "dev"

const defaultServiceName = "agencyd"

// Aggregator collects system metadata. All methods are safe for concurrent
// use; Snapshot reads live state at call time.
type Aggregator struct {
	cfg     config.MetadataConfig
	runID   string
	started time.Time

	processed atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
}

// NewAggregator creates a metadata aggregator seeded with its config section.
func NewAggregator(cfg config.MetadataConfig, logger *zap.Logger) (*Aggregator, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}

	a := &Aggregator{
		cfg:     cfg,
		runID:   uuid.New().String(),
		started: time.Now(),
	}

	if logger != nil {
		logger.Info("metadata aggregator initialized",
			zap.String("service", cfg.ServiceName),
			zap.String("run_id", a.runID),
		)
	}
	return a, nil
}

// RecordTask counts one completed task outcome.
func (a *Aggregator) RecordTask(success bool) {
	a.processed.Add(1)
	if success {
		a.succeeded.Add(1)
	} else {
		a.failed.Add(1)
	}
}

// Snapshot returns the current metadata state. The verbose form adds runtime
// detail; envelopes use the non-verbose form.
func (a *Aggregator) Snapshot(verbose bool) map[string]any {
	snap := map[string]any{
		"service":        a.cfg.ServiceName,
		"version":        Version,
		"run_id":         a.runID,
		"started_at":     a.started.UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(a.started).Seconds()),
		"tasks": map[string]any{
			"processed": a.processed.Load(),
			"succeeded": a.succeeded.Load(),
			"failed":    a.failed.Load(),
		},
	}
	if a.cfg.Environment != "" {
		snap["environment"] = a.cfg.Environment
	}

	if verbose {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		snap["runtime"] = map[string]any{
			"go_version":       runtime.Version(),
			"goroutines":       runtime.NumGoroutine(),
			"num_cpu":          runtime.NumCPU(),
			"heap_alloc_bytes": mem.HeapAlloc,
			"os":               runtime.GOOS,
			"arch":             runtime.GOARCH,
		}
	}
	return snap
}
