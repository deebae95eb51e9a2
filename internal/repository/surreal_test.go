package repository_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/internal/repository"
	"github.com/forgo/guildhall/api/internal/testing/testdb"
)

// These tests run against a live SurrealDB and skip when none is reachable.

func TestSurreal_GuildRoundTrip(t *testing.T) {
	tdb := testdb.New(t)
	repo := repository.NewGuildRepository(tdb.DB)
	ctx := tdb.Ctx()

	g := &model.Guild{ID: "g-1", Type: 2, Name: "Alpha", Owner: "u1", Voter: "u2"}
	require.NoError(t, repo.Create(ctx, g))

	err := repo.Create(ctx, g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrDuplicate), "expected duplicate, got %v", err)

	g.Name = "Beta"
	g.Voter = ""
	require.NoError(t, repo.Update(ctx, g))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, g, all[0])

	require.NoError(t, repo.Delete(ctx, g.ID))
	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSurreal_UserRoundTrip(t *testing.T) {
	tdb := testdb.New(t)
	repo := repository.NewUserRepository(tdb.DB)
	ctx := tdb.Ctx()

	u := &model.User{ID: "u1", Guilds: []string{"g1"}, Roles: []model.Role{model.RoleOwner}}
	require.NoError(t, repo.Create(ctx, u))

	u.Roles = append(u.Roles, model.RoleObserver)
	require.NoError(t, repo.Update(ctx, u))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "u1", all[0].ID)
	assert.Equal(t, []string{"g1"}, all[0].Guilds)
	assert.True(t, slices.Contains(all[0].Roles, model.RoleObserver))

	require.NoError(t, repo.Delete(ctx, "u1"))
}

func TestSurreal_PartnerRoundTrip(t *testing.T) {
	tdb := testdb.New(t)
	repo := repository.NewPartnerRepository(tdb.DB)
	ctx := tdb.Ctx()

	require.NoError(t, repo.Create(ctx, &model.Partner{ID: "p1", Name: "Acme"}))
	require.NoError(t, repo.Update(ctx, &model.Partner{ID: "p1", Name: "Globex"}))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, &model.Partner{ID: "p1", Name: "Globex"}, all[0])
}
