package settings

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/pathmark-go/internal/core/domain"
	"github.com/yndnr/pathmark-go/internal/telemetry/logger"
	"github.com/yndnr/pathmark-go/pkg/crypto/adaptive"
)

// Default configuration values.
const (
	DefaultGCInterval  = 10 * time.Minute
	DefaultGCThreshold = 0.5
)

// Config configures the settings store.
type Config struct {
	// Dir is the Badger storage directory.
	Dir string

	// GCInterval is the interval between value-log GC runs.
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	GCThreshold float64

	// SyncWrites enables fsync after each write. Settings values are
	// small and infrequent, so durability is preferred by default.
	SyncWrites bool

	// Cipher optionally seals values at rest.
	Cipher adaptive.Cipher

	// Logger is the structured logger.
	Logger logger.Logger
}

// DefaultConfig returns the default settings configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		GCInterval:  DefaultGCInterval,
		GCThreshold: DefaultGCThreshold,
		SyncWrites:  true,
	}
}

// Store is the durable settings namespace.
type Store struct {
	db     *badger.DB
	cfg    Config
	logger logger.Logger

	lastGCTime atomic.Int64

	metricsTotalSize  prometheus.Gauge
	metricsLastGCTime prometheus.Gauge

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens (creating if necessary) the settings namespace at cfg.Dir.
func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("settings: dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = DefaultGCInterval
	}
	if cfg.GCThreshold <= 0 {
		cfg.GCThreshold = DefaultGCThreshold
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = &badgerLogger{logger: cfg.Logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("settings: open db: %w", err)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		logger: cfg.Logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go s.gcLoop()

	cfg.Logger.Debug("settings store opened",
		"dir", cfg.Dir,
		"sealed", cfg.Cipher != nil)

	return s, nil
}

// Get reads a named value.
// Returns domain.ErrValueNotFound when the name does not exist.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrValueNotFound.WithDetails(name)
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if domain.IsDomainError(err, domain.ErrValueNotFound.Code) {
			return nil, err
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}

	if s.cfg.Cipher != nil {
		plain, err := s.cfg.Cipher.Decrypt(value, []byte(name))
		if err != nil {
			return nil, domain.ErrStorageError.WithDetails("unseal " + name).WithCause(err)
		}
		return plain, nil
	}
	return value, nil
}

// Set writes a named value, replacing any previous contents.
// The write is atomic from the caller's perspective.
func (s *Store) Set(ctx context.Context, name string, value []byte) error {
	if name == "" {
		return domain.ErrInvalidArgument.WithDetails("value name is empty")
	}

	stored := value
	if s.cfg.Cipher != nil {
		sealed, err := s.cfg.Cipher.Encrypt(value, []byte(name))
		if err != nil {
			return domain.ErrStorageError.WithDetails("seal " + name).WithCause(err)
		}
		stored = sealed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), stored)
	})
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// Delete removes a named value. Removing an absent name is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(name))
	})
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// Names lists all value names in the namespace.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	var names []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return names, nil
}

// GC triggers value-log garbage collection.
func (s *Store) GC(ctx context.Context) error {
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return fmt.Errorf("settings: gc: %w", err)
		}
	}
	s.lastGCTime.Store(time.Now().UnixMilli())
	return nil
}

// RegisterMetrics registers store metrics with the given registry.
// Returns the store for method chaining.
func (s *Store) RegisterMetrics(registry prometheus.Registerer) *Store {
	s.metricsTotalSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pathmark",
		Subsystem: "settings",
		Name:      "total_size_bytes",
		Help:      "Settings store total size in bytes (LSM + value log)",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pathmark",
		Subsystem: "settings",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last value-log GC run",
	})

	registry.MustRegister(s.metricsTotalSize, s.metricsLastGCTime)
	return s
}

// gcLoop runs periodic value-log GC and metric updates.
func (s *Store) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.GC(ctx); err != nil {
				s.logger.Warn("settings gc failed", "error", err)
			}
			cancel()
			s.updateMetrics()

		case <-s.stopCh:
			return
		}
	}
}

// updateMetrics refreshes registered gauges.
func (s *Store) updateMetrics() {
	if s.metricsTotalSize == nil {
		return
	}
	lsm, vlog := s.db.Size()
	s.metricsTotalSize.Set(float64(lsm + vlog))
	s.metricsLastGCTime.Set(float64(s.lastGCTime.Load()) / 1000)
}

// Close gracefully shuts down the settings store.
func (s *Store) Close() error {
	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("settings: close db: %w", err)
	}
	return nil
}

// badgerLogger adapts the application logger to Badger's interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf("badger: "+format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf("badger: "+format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf("badger: "+format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf("badger: "+format, args...))
}
