package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

func TestCollection_ClonesOnWriteAndRead(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := &model.User{ID: "u1", Guilds: []string{"g1"}, Roles: []model.Role{}}
	require.NoError(t, s.Users.Create(ctx, u))
	u.Guilds[0] = "mutated"

	got, ok := s.Users.Get("u1")
	require.True(t, ok)
	assert.Equal(t, []string{"g1"}, got.Guilds)
}

func TestCollection_Duplicate(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Guilds.Create(ctx, &model.Guild{ID: "g1"}))
	assert.ErrorIs(t, s.Guilds.Create(ctx, &model.Guild{ID: "g1"}), database.ErrDuplicate)
}

func TestCollection_FailOn(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	s.Users.FailOn(OpUpdate, "u2", boom)
	assert.NoError(t, s.Users.Update(ctx, model.NewUser("u1")))
	assert.ErrorIs(t, s.Users.Update(ctx, model.NewUser("u2")), boom)
	assert.Equal(t, 2, s.Users.Calls(OpUpdate))

	s.Users.FailOn(OpUpdate, "", nil)
	assert.NoError(t, s.Users.Update(ctx, model.NewUser("u2")))
}

func TestCollection_FindAllSorted(t *testing.T) {
	s := New()
	s.Partners.Seed(&model.Partner{ID: "b"}, &model.Partner{ID: "a"})

	all, err := s.Partners.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}
