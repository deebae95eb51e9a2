package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgo/guildhall/api/internal/database"
)

// TestDB is a connected database in a namespace of its own
type TestDB struct {
	DB        database.Database
	Namespace string
	t         *testing.T
}

var (
	migrationOnce sync.Once
	migrations    []string
	migrationErr  error

	counter atomic.Int64
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testConfig() database.Config {
	return database.Config{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "8000"),
		User:     envOr("TEST_DB_USER", "root"),
		Password: envOr("TEST_DB_PASSWORD", "root"),
		Database: "test",
	}
}

func uniqueNamespace() string {
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter.Add(1))
}

// loadMigrations reads migrations/*.surql in name order, searching upward
// from the package under test
func loadMigrations() ([]string, error) {
	migrationOnce.Do(func() {
		dir := ""
		for _, p := range []string{"migrations", "../migrations", "../../migrations", "../../../migrations"} {
			if info, err := os.Stat(p); err == nil && info.IsDir() {
				dir = p
				break
			}
		}
		if dir == "" {
			if root := os.Getenv("GUILDHALL_ROOT"); root != "" {
				dir = filepath.Join(root, "migrations")
			}
		}
		if dir == "" {
			migrationErr = fmt.Errorf("could not find migrations directory")
			return
		}

		files, err := filepath.Glob(filepath.Join(dir, "*.surql"))
		if err != nil {
			migrationErr = err
			return
		}
		sort.Strings(files)

		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				migrationErr = fmt.Errorf("reading %s: %w", filepath.Base(f), err)
				return
			}
			migrations = append(migrations, string(content))
		}
	})
	return migrations, migrationErr
}

// New connects to the test server and applies migrations in a fresh
// namespace. The test is skipped when the server cannot be reached.
func New(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("testdb: skipped in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := testConfig()
	cfg.Namespace = uniqueNamespace()

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Skipf("testdb: surrealdb unavailable at %s:%s: %v", cfg.Host, cfg.Port, err)
	}

	tdb := &TestDB{DB: db, Namespace: cfg.Namespace, t: t}
	t.Cleanup(tdb.close)

	migs, err := loadMigrations()
	if err != nil {
		t.Fatalf("testdb: load migrations: %v", err)
	}
	for i, mig := range migs {
		if strings.TrimSpace(mig) == "" {
			continue
		}
		if err := db.Execute(ctx, mig, nil); err != nil {
			t.Fatalf("testdb: migration %d failed: %v", i+1, err)
		}
	}

	return tdb
}

func (tdb *TestDB) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, "REMOVE NAMESPACE "+tdb.Namespace, nil)
	_ = tdb.DB.Close()
}

// Ctx returns a context bound to the test's lifetime with a 10s timeout
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}
