// Package processor provides the agencyd processing engine capability.
//
// The orchestrator treats the engine as opaque: it submits a Request and
// branches only on Result.OK. Semantic failures (empty or invalid input) are
// reported through Result, not through the error return; errors are reserved
// for capability faults and propagate to the caller.
package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agencyd/internal/config"
	"github.com/fyrsmithlabs/agencyd/internal/memory"
)

// Defaults applied to a zero-value processor section.
const (
	defaultMinContentLength = 1
	defaultMaxContentLength = 64 * 1024
	defaultRecallLimit      = 3
)

// Request is one unit of content submitted for processing. Context carries
// externally fetched enrichment and may be empty.
type Request struct {
	Content string
	Context string
}

// Result is the explicit outcome of processing. OK is false for semantic
// failures: empty, too-short, or oversized content.
type Result struct {
	OK      bool            `json:"ok"`
	Output  string          `json:"output,omitempty"`
	Tokens  int             `json:"tokens,omitempty"`
	Related []memory.Recall `json:"related,omitempty"`
}

// Memory is the slice of the memory capability the engine consumes.
type Memory interface {
	Remember(ctx context.Context, id, content string, meta map[string]string) error
	Recall(ctx context.Context, query string, k int) ([]memory.Recall, error)
}

// Engine processes task content.
type Engine interface {
	Process(ctx context.Context, req Request) (Result, error)
}

// engine is the default Engine implementation.
type engine struct {
	cfg    config.ProcessorConfig
	mem    Memory
	logger *zap.Logger
}

// NewEngine creates the default processing engine. The engine depends on the
// memory capability, which must be constructed first.
func NewEngine(cfg config.ProcessorConfig, mem Memory, logger *zap.Logger) (Engine, error) {
	if mem == nil {
		return nil, fmt.Errorf("memory capability is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.MinContentLength == 0 {
		cfg.MinContentLength = defaultMinContentLength
	}
	if cfg.MaxContentLength == 0 {
		cfg.MaxContentLength = defaultMaxContentLength
	}
	if cfg.RecallLimit == 0 {
		cfg.RecallLimit = defaultRecallLimit
	}

	return &engine{cfg: cfg, mem: mem, logger: logger}, nil
}

// Process canonicalizes the content, recalls related memories, and records
// the processed content for future recall.
func (e *engine) Process(ctx context.Context, req Request) (Result, error) {
	content := strings.TrimSpace(req.Content)
	if len(content) < e.cfg.MinContentLength || len(content) > e.cfg.MaxContentLength {
		e.logger.Debug("rejecting content",
			zap.Int("length", len(content)),
			zap.Int("min", e.cfg.MinContentLength),
			zap.Int("max", e.cfg.MaxContentLength),
		)
		return Result{}, nil
	}

	canonical := strings.Join(strings.Fields(content), " ")

	query := canonical
	if req.Context != "" {
		query = canonical + " " + req.Context
	}
	related, err := e.mem.Recall(ctx, query, e.cfg.RecallLimit)
	if err != nil {
		return Result{}, fmt.Errorf("recalling related memories: %w", err)
	}

	id := contentID(canonical)
	meta := map[string]string{"source": "processor"}
	if req.Context != "" {
		meta["enriched"] = "true"
	}
	if err := e.mem.Remember(ctx, id, canonical, meta); err != nil {
		return Result{}, fmt.Errorf("remembering processed content: %w", err)
	}

	res := Result{
		OK:      true,
		Output:  canonical,
		Tokens:  len(strings.Fields(canonical)),
		Related: related,
	}

	e.logger.Debug("processed content",
		zap.String("memory_id", id),
		zap.Int("tokens", res.Tokens),
		zap.Int("related", len(related)),
	)
	return res, nil
}

// contentID derives a stable memory key from content.
func contentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "mem-" + hex.EncodeToString(sum[:8])
}
