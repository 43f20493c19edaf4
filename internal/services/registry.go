// Package services wires and holds the long-lived agencyd capabilities.
package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agencyd/internal/config"
	"github.com/fyrsmithlabs/agencyd/internal/contextapi"
	"github.com/fyrsmithlabs/agencyd/internal/memory"
	"github.com/fyrsmithlabs/agencyd/internal/metadata"
	"github.com/fyrsmithlabs/agencyd/internal/processor"
	"github.com/fyrsmithlabs/agencyd/internal/storage"
)

// Registry provides access to all agencyd capabilities.
// Use accessor methods to retrieve individual capabilities.
type Registry interface {
	Processor() processor.Engine
	Memory() *memory.Store
	Metadata() *metadata.Aggregator
	ContextAPI() contextapi.Fetcher
	Storage() storage.Store
}

// Options configures the registry with capability instances.
type Options struct {
	Processor  processor.Engine
	Memory     *memory.Store
	Metadata   *metadata.Aggregator
	ContextAPI contextapi.Fetcher
	Storage    storage.Store
}

// registry is the concrete implementation of Registry.
type registry struct {
	processor  processor.Engine
	memory     *memory.Store
	metadata   *metadata.Aggregator
	contextAPI contextapi.Fetcher
	storage    storage.Store
}

// NewRegistry creates a registry from pre-built capabilities.
func NewRegistry(opts Options) Registry {
	return &registry{
		processor:  opts.Processor,
		memory:     opts.Memory,
		metadata:   opts.Metadata,
		contextAPI: opts.ContextAPI,
		storage:    opts.Storage,
	}
}

// Build constructs every capability from the resolved configuration.
//
// The memory store is constructed before the processing engine, which
// depends on it; the remaining capabilities are independent. No constructor
// performs I/O, and any single failure is fatal: a partial registry is
// never returned.
func Build(cfg *config.Config, logger *zap.Logger) (Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mem, err := memory.NewStore(cfg.Memory, logger.Named("memory"))
	if err != nil {
		return nil, fmt.Errorf("constructing memory store: %w", err)
	}

	engine, err := processor.NewEngine(cfg.Processor, mem, logger.Named("processor"))
	if err != nil {
		return nil, fmt.Errorf("constructing processing engine: %w", err)
	}

	meta, err := metadata.NewAggregator(cfg.Metadata, logger.Named("metadata"))
	if err != nil {
		return nil, fmt.Errorf("constructing metadata aggregator: %w", err)
	}

	apiClient, err := contextapi.NewClient(cfg.API, logger.Named("contextapi"))
	if err != nil {
		return nil, fmt.Errorf("constructing context client: %w", err)
	}

	store, err := storage.NewService(cfg.Storage, logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("constructing storage service: %w", err)
	}

	return NewRegistry(Options{
		Processor:  engine,
		Memory:     mem,
		Metadata:   meta,
		ContextAPI: apiClient,
		Storage:    store,
	}), nil
}

func (r *registry) Processor() processor.Engine    { return r.processor }
func (r *registry) Memory() *memory.Store          { return r.memory }
func (r *registry) Metadata() *metadata.Aggregator { return r.metadata }
func (r *registry) ContextAPI() contextapi.Fetcher { return r.contextAPI }
func (r *registry) Storage() storage.Store         { return r.storage }
