// Package kvstore is an embedded persistence gateway on BadgerDB.
//
// Each entity kind lives under its own key prefix ("guild/", "user/",
// "partner/") with JSON values. It serves single-node deployments that do
// not run SurrealDB, and tests that want a real store without a server.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

// Config holds configuration for the embedded store
type Config struct {
	// Path is the data directory. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in RAM; contents are lost on Close
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
	// GCInterval is how often value log GC runs; zero disables it
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// Store owns a BadgerDB instance and its GC loop
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}

	Guilds   *Collection[model.Guild]
	Users    *Collection[model.User]
	Partners *Collection[model.Partner]
}

// Open opens the store, creating the data directory if needed
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
		logger = slog.Default()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %v", database.ErrConnection, err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.Guilds = newCollection(db, "guild/", func(g *model.Guild) string { return g.ID })
	s.Users = newCollection(db, "user/", func(u *model.User) string { return u.ID })
	s.Partners = newCollection(db, "partner/", func(p *model.Partner) string { return p.ID })

	if cfg.GCInterval > 0 && !cfg.InMemory {
		ratio := cfg.GCDiscardRatio
		if ratio <= 0 || ratio >= 1 {
			ratio = 0.5
		}
		go s.runGC(cfg.GCInterval, ratio)
	} else {
		close(s.done)
	}

	return s, nil
}

// Close stops GC and closes the database
func (s *Store) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	return s.db.Close()
}

// Ping reports whether the database is still open
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("%w: store closed", database.ErrConnection)
	}
	return nil
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("badger value log GC failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Collection stores one entity kind as JSON under a key prefix
type Collection[T any] struct {
	db     *badger.DB
	prefix string
	key    func(*T) string
}

func newCollection[T any](db *badger.DB, prefix string, key func(*T) string) *Collection[T] {
	return &Collection[T]{db: db, prefix: prefix, key: key}
}

// FindAll returns every stored entity in key order
func (c *Collection[T]) FindAll(ctx context.Context) ([]*T, error) {
	var out []*T
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(c.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var v T
			if err := it.Item().Value(func(raw []byte) error {
				return json.Unmarshal(raw, &v)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, &v)
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

// Create stores a new entity; an existing key yields database.ErrDuplicate
func (c *Collection[T]) Create(ctx context.Context, v *T) error {
	return c.write(ctx, v, func(txn *badger.Txn, key []byte) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", database.ErrDuplicate, key)
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		default:
			return err
		}
	})
}

// Update replaces an entity
func (c *Collection[T]) Update(ctx context.Context, v *T) error {
	return c.write(ctx, v, nil)
}

// Delete removes an entity; a missing key is not an error
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapErr(c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(c.prefix + id))
	}))
}

func (c *Collection[T]) write(ctx context.Context, v *T, check func(*badger.Txn, []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	key := []byte(c.prefix + c.key(v))

	return wrapErr(c.db.Update(func(txn *badger.Txn) error {
		if check != nil {
			if err := check(txn, key); err != nil {
				return err
			}
		}
		return txn.Set(key, raw)
	}))
}

func wrapErr(err error) error {
	if err == nil || errors.Is(err, database.ErrDuplicate) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", database.ErrQuery, err)
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
