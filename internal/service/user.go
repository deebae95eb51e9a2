package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

// GetUser returns a cached user
func (s *RegistryService) GetUser(id string) (*model.User, error) {
	u, ok := s.cache.user(id)
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.Clone(), nil
}

// ListUsers returns every cached user, sorted by id
func (s *RegistryService) ListUsers() []*model.User {
	return s.cache.listUsers()
}

// CreateUser stores a new user
func (s *RegistryService) CreateUser(ctx context.Context, input *model.User) (_ *model.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("create_user", err) }()

	if _, ok := s.cache.user(input.ID); ok {
		return nil, ErrUserExists
	}

	user := model.NewUser(input.ID)
	user.Guilds = append(user.Guilds, input.Guilds...)
	user.Roles = append(user.Roles, input.Roles...)
	user = (model.UserPatch{Guilds: &user.Guilds, Roles: &user.Roles}).ApplyTo(user)

	if err := s.insertUser(ctx, user); err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// EditUser replaces a user's guilds or roles. Structural roles cannot be
// added or removed here. A guilds change is refused while any guild in the
// old or new set assigns the user a role slot.
func (s *RegistryService) EditUser(ctx context.Context, id string, patch model.UserPatch) (_ *model.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("edit_user", err) }()

	current, ok := s.cache.user(id)
	if !ok {
		return nil, ErrUserNotFound
	}

	next := patch.ApplyTo(current)
	changed := current.Diff(next)
	if len(changed) == 0 {
		s.logger.Debug("user unchanged", slog.String("user", id))
		return current.Clone(), nil
	}

	if patch.Roles != nil && slices.Contains(changed, "roles") {
		for _, role := range model.StructuralRoles {
			if next.HasRole(role) != current.HasRole(role) {
				return nil, fmt.Errorf("%w: %s", ErrStructuralRole, role)
			}
		}
	}

	if patch.Guilds != nil && slices.Contains(changed, "guilds") {
		for _, guildID := range next.Guilds {
			guild, ok := s.cache.guild(guildID)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownGuild, guildID)
			}
			if guild.HoldsSlot(id) {
				return nil, fmt.Errorf("%w: %s", ErrSlotHeld, guildID)
			}
		}
		for _, guildID := range current.Guilds {
			if next.InGuild(guildID) {
				continue
			}
			if guild, ok := s.cache.guild(guildID); ok && guild.HoldsSlot(id) {
				return nil, fmt.Errorf("%w: %s", ErrSlotHeld, guildID)
			}
		}
	}

	if err := s.saveUser(ctx, next); err != nil {
		return nil, err
	}
	s.emit(EventUserEdit, next)

	return next.Clone(), nil
}

// RemoveUser deletes a user. Guild role slots naming the user are left as is.
func (s *RegistryService) RemoveUser(ctx context.Context, id string) (_ *model.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("remove_user", err) }()

	user, ok := s.cache.user(id)
	if !ok {
		return nil, ErrUserNotFound
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete user %s: %w", id, err)
	}
	s.cache.deleteUser(id)
	s.emit(EventUserRemove, user)

	return user.Clone(), nil
}

// AddUserRole adds a free role, creating the user if it does not exist
func (s *RegistryService) AddUserRole(ctx context.Context, id string, role model.Role) (_ *model.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("add_user_role", err) }()

	if role.IsStructural() {
		return nil, fmt.Errorf("%w: %s", ErrStructuralRole, role)
	}

	seed := model.NewUser(id)
	seed.Roles = append(seed.Roles, role)
	user, created, err := s.ensureUser(ctx, seed)
	if err != nil {
		return nil, err
	}
	if created {
		return user.Clone(), nil
	}

	next := user.Clone()
	if !addToSet(&next.Roles, role) {
		return user.Clone(), nil
	}
	if err := s.saveUser(ctx, next); err != nil {
		return nil, err
	}
	s.emit(EventUserRoleAdd, model.UserRoleChange{User: id, Role: role})

	return next.Clone(), nil
}

// RemoveUserRole removes a free role. A missing user yields nil, nil.
func (s *RegistryService) RemoveUserRole(ctx context.Context, id string, role model.Role) (_ *model.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("remove_user_role", err) }()

	if role.IsStructural() {
		return nil, fmt.Errorf("%w: %s", ErrStructuralRole, role)
	}

	user, ok := s.cache.user(id)
	if !ok {
		return nil, nil
	}

	next := user.Clone()
	if !pullFromSet(&next.Roles, role) {
		return user.Clone(), nil
	}
	if err := s.saveUser(ctx, next); err != nil {
		return nil, err
	}
	s.emit(EventUserRoleRemove, model.UserRoleChange{User: id, Role: role})

	return next.Clone(), nil
}

// AddUserGuild adds a guild membership, creating the user if it does not exist
func (s *RegistryService) AddUserGuild(ctx context.Context, id, guildID string) (_ *model.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("add_user_guild", err) }()

	if _, ok := s.cache.guild(guildID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGuild, guildID)
	}

	seed := model.NewUser(id)
	seed.Guilds = append(seed.Guilds, guildID)
	user, created, err := s.ensureUser(ctx, seed)
	if err != nil {
		return nil, err
	}
	if created {
		return user.Clone(), nil
	}

	next := user.Clone()
	if !addToSet(&next.Guilds, guildID) {
		return user.Clone(), nil
	}
	if err := s.saveUser(ctx, next); err != nil {
		return nil, err
	}
	s.emit(EventUserGuildAdd, model.UserGuildChange{User: id, Guild: guildID})

	return next.Clone(), nil
}

// RemoveUserGuild drops a guild membership. A missing user yields nil, nil.
// Members holding one of the guild's role slots must be unassigned first.
func (s *RegistryService) RemoveUserGuild(ctx context.Context, id, guildID string) (_ *model.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("remove_user_guild", err) }()

	user, ok := s.cache.user(id)
	if !ok {
		return nil, nil
	}
	guild, ok := s.cache.guild(guildID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGuild, guildID)
	}
	if guild.HoldsSlot(id) {
		return nil, fmt.Errorf("%w: %s", ErrSlotHeld, guildID)
	}

	next := user.Clone()
	if !pullFromSet(&next.Guilds, guildID) {
		return user.Clone(), nil
	}
	if err := s.saveUser(ctx, next); err != nil {
		return nil, err
	}
	s.emit(EventUserGuildRemove, model.UserGuildChange{User: id, Guild: guildID})

	return next.Clone(), nil
}

// ensureUser returns the cached user with seed's id, or stores seed as a new
// user. created reports which happened.
func (s *RegistryService) ensureUser(ctx context.Context, seed *model.User) (user *model.User, created bool, err error) {
	if existing, ok := s.cache.user(seed.ID); ok {
		return existing, false, nil
	}
	if err := s.insertUser(ctx, seed); err != nil {
		return nil, false, err
	}
	return seed, true, nil
}

func (s *RegistryService) insertUser(ctx context.Context, user *model.User) error {
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ErrUserExists
		}
		return fmt.Errorf("create user %s: %w", user.ID, err)
	}
	s.cache.putUser(user)
	s.emit(EventUserAdd, user)
	return nil
}

func (s *RegistryService) saveUser(ctx context.Context, user *model.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}
	s.cache.putUser(user)
	return nil
}
