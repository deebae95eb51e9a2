package repository

import (
	"context"
	"fmt"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// FindAll returns every stored user
func (r *UserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	result, err := r.db.Query(ctx, `SELECT record::id(id) AS id, guilds, roles FROM user`, nil)
	if err != nil {
		return nil, err
	}

	rows := extractRows(result)
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, parseUser(row))
	}
	return users, nil
}

// Create stores a new user under its own id
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `CREATE type::thing("user", $id) CONTENT { guilds: $guilds, roles: $roles }`
	if err := r.db.Execute(ctx, query, userVars(user)); err != nil {
		return fmt.Errorf("user %s: %w", user.ID, err)
	}
	return nil
}

// Update replaces a user's sets
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE type::thing("user", $id) SET guilds = $guilds, roles = $roles`
	return r.db.Execute(ctx, query, userVars(user))
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::thing("user", $id)`, map[string]interface{}{"id": id})
}

func userVars(u *model.User) map[string]interface{} {
	roles := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		roles[i] = string(role)
	}
	guilds := u.Guilds
	if guilds == nil {
		guilds = []string{}
	}
	return map[string]interface{}{
		"id":     u.ID,
		"guilds": guilds,
		"roles":  roles,
	}
}

func parseUser(row map[string]interface{}) *model.User {
	user := model.NewUser(extractRecordID(row["id"]))
	user.Guilds = getStringSlice(row, "guilds")
	for _, role := range getStringSlice(row, "roles") {
		user.Roles = append(user.Roles, model.Role(role))
	}
	return user
}
