package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agencyd/internal/processor"
)

const instrumentationName = "github.com/fyrsmithlabs/agencyd/internal/orchestrator"

// ContextFetcher retrieves externally stored context for task enrichment.
type ContextFetcher interface {
	Fetch(ctx context.Context, contextID string) (string, error)
}

// ResultStore persists successful processing results.
type ResultStore interface {
	Store(ctx context.Context, id string, result any) error
}

// Metadata provides the snapshot attached to every envelope and records
// task outcomes.
type Metadata interface {
	Snapshot(verbose bool) map[string]any
	RecordTask(success bool)
}

// Options configures the orchestrator with its capability handles.
type Options struct {
	Engine   processor.Engine
	Contexts ContextFetcher
	Store    ResultStore
	Metadata Metadata
	Logger   *zap.Logger
}

// Orchestrator executes the per-task pipeline. It holds no per-task state
// and is safe for concurrent use.
type Orchestrator struct {
	engine   processor.Engine
	contexts ContextFetcher
	store    ResultStore
	meta     Metadata
	logger   *zap.Logger

	tracer      trace.Tracer
	meter       metric.Meter
	taskCounter metric.Int64Counter
}

// New creates an orchestrator. Every capability handle is required.
func New(opts Options) (*Orchestrator, error) {
	if opts.Engine == nil {
		return nil, errors.New("processing engine is required")
	}
	if opts.Contexts == nil {
		return nil, errors.New("context fetcher is required")
	}
	if opts.Store == nil {
		return nil, errors.New("result store is required")
	}
	if opts.Metadata == nil {
		return nil, errors.New("metadata aggregator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		engine:   opts.Engine,
		contexts: opts.Contexts,
		store:    opts.Store,
		meta:     opts.Metadata,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}
	o.initMetrics()
	return o, nil
}

// initMetrics initializes OpenTelemetry counters.
func (o *Orchestrator) initMetrics() {
	var err error
	o.taskCounter, err = o.meter.Int64Counter(
		"agencyd.orchestrator.tasks_total",
		metric.WithDescription("Total number of tasks processed"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		o.logger.Warn("failed to create task counter", zap.Error(err))
	}
}

// ProcessTask runs one task through enrichment, delegation, conditional
// persistence, and envelope assembly.
//
// Capability errors return a nil envelope and a non-nil error. A semantic
// processing failure returns a success=false envelope and a nil error.
func (o *Orchestrator) ProcessTask(ctx context.Context, task Task) (*Envelope, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.process_task")
	defer span.End()
	span.SetAttributes(
		attribute.String("task_id", task.ID),
		attribute.Bool("requires_context", task.RequiresContext),
	)

	o.logger.Info("processing task",
		zap.String("task_id", task.ID),
		zap.Bool("requires_context", task.RequiresContext),
	)

	req := processor.Request{Content: task.Content}

	if task.RequiresContext {
		value, err := o.contexts.Fetch(ctx, task.ContextID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("fetching context %s: %w", task.ContextID, err)
		}
		req.Context = value
	}

	result, err := o.engine.Process(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("processing task: %w", err)
	}

	if !result.OK {
		o.recordOutcome(ctx, false)
		o.logger.Info("task processing complete", zap.String("task_id", task.ID), zap.Bool("success", false))
		return FailureEnvelope(FailureMessage, o.meta.Snapshot(false)), nil
	}

	taskID := task.ID
	if taskID == "" {
		taskID = deriveTaskID(task.Content)
	}

	if err := o.store.Store(ctx, taskID, result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing result %s: %w", taskID, err)
	}

	o.recordOutcome(ctx, true)
	span.SetAttributes(attribute.String("resolved_task_id", taskID))
	o.logger.Info("task processing complete", zap.String("task_id", taskID), zap.Bool("success", true))

	return SuccessEnvelope(taskID, result, o.meta.Snapshot(false)), nil
}

// recordOutcome updates the metadata counters and telemetry.
func (o *Orchestrator) recordOutcome(ctx context.Context, success bool) {
	o.meta.RecordTask(success)
	if o.taskCounter != nil {
		o.taskCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}
}
