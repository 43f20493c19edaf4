// Package storage provides the agencyd persistence capability: a filesystem
// result store with periodic backup snapshots.
//
// Construction captures configuration only; directories are created lazily
// on the first write.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agencyd/internal/config"
)

const instrumentationName = "github.com/fyrsmithlabs/agencyd/internal/storage"

const (
	resultsDir = "results"
	backupsDir = "backups"
)

// Store persists task results by id.
type Store interface {
	Store(ctx context.Context, id string, result any) error
}

// record is the persisted document layout.
type record struct {
	TaskID   string    `json:"task_id"`
	Result   any       `json:"result"`
	StoredAt time.Time `json:"stored_at"`
}

// Service is the filesystem implementation of Store.
type Service struct {
	cfg    config.StorageConfig
	logger *zap.Logger
	tracer trace.Tracer

	mu         sync.Mutex
	ready      bool
	lastBackup time.Time
}

// NewService creates a storage service seeded with the storage section.
func NewService(cfg config.StorageConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BackupInterval < 0 {
		return nil, errors.New("backup interval cannot be negative")
	}

	if cfg.Location == "" {
		cfg.Location = config.DefaultStorageLocation
	}
	if cfg.BackupInterval == 0 {
		cfg.BackupInterval = config.DefaultStorageBackupTime
	}

	return &Service{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
	}, nil
}

// Store writes one result document and takes a backup snapshot when the
// configured interval has elapsed.
func (s *Service) Store(ctx context.Context, id string, result any) error {
	_, span := s.tracer.Start(ctx, "storage.store")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", id))

	if id == "" {
		return errors.New("result id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDirs(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	doc, err := json.MarshalIndent(record{TaskID: id, Result: result, StoredAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("encoding result %s: %w", id, err)
	}

	path := filepath.Join(s.cfg.Location, resultsDir, sanitizeID(id)+".json")
	if err := os.WriteFile(path, doc, 0600); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("writing result %s: %w", id, err)
	}

	s.logger.Info("stored result", zap.String("task_id", id), zap.String("path", path))

	if err := s.maybeBackup(); err != nil {
		// Backups are best-effort; the result itself is already durable.
		s.logger.Warn("backup snapshot failed", zap.Error(err))
	}
	return nil
}

// ensureDirs lazily creates the storage layout. Caller holds s.mu.
func (s *Service) ensureDirs() error {
	if s.ready {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(s.cfg.Location, resultsDir), 0700); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	s.ready = true
	return nil
}

// maybeBackup snapshots the results directory when the interval elapsed.
// The first write arms the timer without taking a snapshot. Caller holds s.mu.
func (s *Service) maybeBackup() error {
	if s.lastBackup.IsZero() {
		s.lastBackup = time.Now()
		return nil
	}
	if time.Since(s.lastBackup) < s.cfg.BackupInterval {
		return nil
	}

	src := filepath.Join(s.cfg.Location, resultsDir)
	dst := filepath.Join(s.cfg.Location, backupsDir, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(dst, 0700); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("listing results: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dst, entry.Name()), data, 0600); err != nil {
			return fmt.Errorf("copying %s: %w", entry.Name(), err)
		}
	}

	s.lastBackup = time.Now()
	s.logger.Info("backup snapshot written", zap.String("path", dst), zap.Int("files", len(entries)))
	return nil
}

// sanitizeID makes a task id safe for use as a file name.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}
