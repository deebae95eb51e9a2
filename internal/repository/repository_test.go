package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// fakeDB records statements and replays a canned query result
type fakeDB struct {
	queries []string
	vars    []map[string]interface{}
	result  []interface{}
	err     error
}

func (f *fakeDB) Connect(ctx context.Context) error { return nil }
func (f *fakeDB) Close() error                      { return nil }
func (f *fakeDB) Ping(ctx context.Context) error    { return nil }

func (f *fakeDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	f.queries = append(f.queries, query)
	f.vars = append(f.vars, vars)
	return f.result, f.err
}

func (f *fakeDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := f.Query(ctx, query, vars)
	return err
}

func rows(r ...map[string]interface{}) []interface{} {
	out := make([]interface{}, len(r))
	for i := range r {
		out[i] = r[i]
	}
	return []interface{}{map[string]interface{}{"status": "OK", "result": out}}
}

// ============================================================================
// Record ids
// ============================================================================

func TestExtractRecordID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"plain key", "g1", "g1"},
		{"key with colon", "discord:123", "discord:123"},
		{"record id", models.RecordID{Table: "guild", ID: "g1"}, "g1"},
		{"map form", map[string]interface{}{"tb": "guild", "id": "g1"}, "g1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := extractRecordID(tt.in); got != tt.want {
				t.Errorf("extractRecordID(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Guilds
// ============================================================================

func TestGuildRepository_FindAll(t *testing.T) {
	t.Parallel()

	db := &fakeDB{result: rows(map[string]interface{}{
		"id":    "g1",
		"type":  float64(2),
		"name":  "Alpha",
		"owner": "u1",
	})}
	repo := NewGuildRepository(db)

	guilds, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(guilds) != 1 {
		t.Fatalf("expected 1 guild, got %d", len(guilds))
	}
	g := guilds[0]
	if g.ID != "g1" || g.Type != 2 || g.Name != "Alpha" || g.Owner != "u1" || g.Advisor != "" {
		t.Errorf("unexpected guild %+v", g)
	}
}

func TestGuildRepository_CreateDuplicate(t *testing.T) {
	t.Parallel()

	db := &fakeDB{err: database.ErrDuplicate}
	repo := NewGuildRepository(db)

	err := repo.Create(context.Background(), &model.Guild{ID: "g1"})
	if !errors.Is(err, database.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGuildRepository_WritesByID(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	repo := NewGuildRepository(db)
	ctx := context.Background()

	g := &model.Guild{ID: "g1", Name: "Alpha", Voter: "u3"}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, g); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "g1"); err != nil {
		t.Fatal(err)
	}

	for i, prefix := range []string{"CREATE", "UPDATE", "DELETE"} {
		if !strings.HasPrefix(db.queries[i], prefix) {
			t.Errorf("statement %d: expected %s, got %q", i, prefix, db.queries[i])
		}
		if db.vars[i]["id"] != "g1" {
			t.Errorf("statement %d: expected id var g1, got %v", i, db.vars[i]["id"])
		}
	}
	content, ok := db.vars[0]["content"].(map[string]interface{})
	if !ok {
		t.Fatal("expected content map")
	}
	if _, hasID := content["id"]; hasID {
		t.Error("content must not carry the record id")
	}
	if content["voter"] != "u3" {
		t.Errorf("expected voter u3, got %v", content["voter"])
	}
}

// ============================================================================
// Users
// ============================================================================

func TestUserRepository_FindAll(t *testing.T) {
	t.Parallel()

	db := &fakeDB{result: rows(
		map[string]interface{}{
			"id":     "u1",
			"guilds": []interface{}{"g1", "g2"},
			"roles":  []interface{}{"owner", "observer"},
		},
		map[string]interface{}{"id": "u2"},
	)}
	repo := NewUserRepository(db)

	users, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if !users[0].InGuild("g2") || !users[0].HasRole(model.RoleObserver) {
		t.Errorf("unexpected user %+v", users[0])
	}
	if users[1].Guilds == nil || users[1].Roles == nil {
		t.Error("missing sets should load as empty, not nil")
	}
}

func TestUserRepository_UpdateVars(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	repo := NewUserRepository(db)

	u := &model.User{ID: "u1", Roles: []model.Role{model.RoleOwner}}
	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatal(err)
	}

	vars := db.vars[0]
	if guilds, ok := vars["guilds"].([]string); !ok || guilds == nil {
		t.Errorf("expected empty guild list, got %#v", vars["guilds"])
	}
	if roles, ok := vars["roles"].([]string); !ok || len(roles) != 1 || roles[0] != "owner" {
		t.Errorf("unexpected roles %#v", vars["roles"])
	}
}

// ============================================================================
// Partners
// ============================================================================

func TestPartnerRepository_FindAllError(t *testing.T) {
	t.Parallel()

	db := &fakeDB{err: database.ErrConnection}
	repo := NewPartnerRepository(db)

	if _, err := repo.FindAll(context.Background()); !errors.Is(err, database.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}
