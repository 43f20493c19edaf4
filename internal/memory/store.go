package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agencyd/internal/config"
)

// Defaults applied to a zero-value memory section.
const (
	defaultPath        = "data/memory"
	defaultCollection  = "agencyd_memory"
	defaultVectorSize  = 128
	defaultRecallLimit = 5
)

// Recall is one similarity match returned from the store.
type Recall struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// Store is the memory capability backed by an embedded chromem-go database.
type Store struct {
	cfg    config.MemoryConfig
	logger *zap.Logger

	once    sync.Once
	openErr error
	db      *chromem.DB
	coll    *chromem.Collection

	mu sync.Mutex
}

// NewStore creates a memory store. Only the configuration section is
// captured here; the database is opened on first use.
func NewStore(cfg config.MemoryConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.VectorSize < 0 {
		return nil, fmt.Errorf("vector size cannot be negative: %d", cfg.VectorSize)
	}

	if cfg.Path == "" {
		cfg.Path = defaultPath
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	if cfg.VectorSize == 0 {
		cfg.VectorSize = defaultVectorSize
	}
	if cfg.RecallLimit == 0 {
		cfg.RecallLimit = defaultRecallLimit
	}

	return &Store{cfg: cfg, logger: logger}, nil
}

// open lazily initializes the persistent database and default collection.
func (s *Store) open() error {
	s.once.Do(func() {
		if err := os.MkdirAll(s.cfg.Path, 0700); err != nil {
			s.openErr = fmt.Errorf("creating memory directory %s: %w", s.cfg.Path, err)
			return
		}

		db, err := chromem.NewPersistentDB(s.cfg.Path, s.cfg.Compress)
		if err != nil {
			s.openErr = fmt.Errorf("opening memory database: %w", err)
			return
		}

		coll, err := db.GetOrCreateCollection(s.cfg.Collection, nil, hashEmbedding(s.cfg.VectorSize))
		if err != nil {
			s.openErr = fmt.Errorf("opening collection %s: %w", s.cfg.Collection, err)
			return
		}

		s.db = db
		s.coll = coll
		s.logger.Info("memory store opened",
			zap.String("path", s.cfg.Path),
			zap.String("collection", s.cfg.Collection),
			zap.Int("vector_size", s.cfg.VectorSize),
		)
	})
	return s.openErr
}

// Remember stores content under the given id. Storing the same id again
// replaces the previous entry.
func (s *Store) Remember(ctx context.Context, id, content string, meta map[string]string) error {
	if id == "" {
		return fmt.Errorf("memory id is required")
	}
	if content == "" {
		return fmt.Errorf("memory content is required")
	}
	if err := s.open(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := chromem.Document{ID: id, Content: content, Metadata: meta}
	if err := s.coll.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("remembering %s: %w", id, err)
	}

	s.logger.Debug("remembered content", zap.String("id", id), zap.Int("bytes", len(content)))
	return nil
}

// Recall returns up to k entries similar to the query, best first.
// An empty store recalls nothing.
func (s *Store) Recall(ctx context.Context, query string, k int) ([]Recall, error) {
	if query == "" {
		return nil, nil
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = s.cfg.RecallLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// chromem requires k <= stored document count.
	count := s.coll.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.coll.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("recalling %q: %w", query, err)
	}

	recalls := make([]Recall, 0, len(results))
	for _, r := range results {
		recalls = append(recalls, Recall{ID: r.ID, Content: r.Content, Score: r.Similarity})
	}
	return recalls, nil
}

// Size returns the number of remembered entries, zero before first use.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coll == nil {
		return 0
	}
	return s.coll.Count()
}
