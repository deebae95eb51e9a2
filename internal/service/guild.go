package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

// GetGuild returns a cached guild
func (s *RegistryService) GetGuild(id string) (*model.Guild, error) {
	g, ok := s.cache.guild(id)
	if !ok {
		return nil, ErrGuildNotFound
	}
	return g.Clone(), nil
}

// ListGuilds returns every cached guild, sorted by id
func (s *RegistryService) ListGuilds() []*model.Guild {
	return s.cache.listGuilds()
}

// CreateGuild stores a new guild and links each user named in its role slots,
// creating users that do not exist yet.
func (s *RegistryService) CreateGuild(ctx context.Context, input *model.Guild) (_ *model.Guild, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("create_guild", err) }()

	if _, ok := s.cache.guild(input.ID); ok {
		return nil, ErrGuildExists
	}

	guild := input.Clone()
	if err := s.guildRepo.Create(ctx, guild); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrGuildExists
		}
		return nil, fmt.Errorf("create guild %s: %w", guild.ID, err)
	}
	s.cache.putGuild(guild)
	s.emit(EventGuildAdd, guild)

	for _, role := range model.StructuralRoles {
		userID := guild.Slot(role)
		if userID == "" {
			continue
		}
		if err := s.linkSlotHolder(ctx, userID, guild.ID, role); err != nil {
			s.cascadeFailed("create_guild", guild.ID, err)
			return nil, err
		}
	}

	return guild.Clone(), nil
}

// EditGuild merges patch into a guild. Users entering a role slot are linked
// before the guild is written; users leaving one lose the role unless another
// guild still assigns it to them.
func (s *RegistryService) EditGuild(ctx context.Context, id string, patch model.GuildPatch) (_ *model.Guild, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("edit_guild", err) }()

	current, ok := s.cache.guild(id)
	if !ok {
		return nil, ErrGuildNotFound
	}

	next := patch.ApplyTo(current)
	changed := current.Diff(next)
	if len(changed) == 0 {
		s.logger.Debug("guild unchanged", slog.String("guild", id))
		return current.Clone(), nil
	}

	for _, role := range model.StructuralRoles {
		prev, now := current.Slot(role), next.Slot(role)
		if prev == now {
			continue
		}
		if now != "" {
			if err := s.linkSlotHolder(ctx, now, id, role); err != nil {
				s.cascadeFailed("edit_guild", id, err)
				return nil, err
			}
		}
		if prev != "" {
			if err := s.releaseSlotHolder(ctx, prev, role, next); err != nil {
				s.cascadeFailed("edit_guild", id, err)
				return nil, err
			}
		}
	}

	if err := s.guildRepo.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("update guild %s: %w", id, err)
	}
	s.cache.putGuild(next)
	s.emit(EventGuildEdit, next)

	return next.Clone(), nil
}

// RemoveGuild deletes a guild and releases the structural roles of its slot
// holders. Users keep the guild id in their guilds set.
func (s *RegistryService) RemoveGuild(ctx context.Context, id string) (_ *model.Guild, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("remove_guild", err) }()

	guild, ok := s.cache.guild(id)
	if !ok {
		return nil, ErrGuildNotFound
	}

	if err := s.guildRepo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete guild %s: %w", id, err)
	}
	s.cache.deleteGuild(id)
	s.emit(EventGuildRemove, guild)

	for _, role := range model.StructuralRoles {
		userID := guild.Slot(role)
		if userID == "" {
			continue
		}
		if err := s.releaseSlotHolder(ctx, userID, role, nil); err != nil {
			s.cascadeFailed("remove_guild", id, err)
			return nil, err
		}
	}

	return guild.Clone(), nil
}

// linkSlotHolder makes sure userID has guildID and role, creating the user
// if needed
func (s *RegistryService) linkSlotHolder(ctx context.Context, userID, guildID string, role model.Role) error {
	seed := model.NewUser(userID)
	seed.Guilds = append(seed.Guilds, guildID)
	seed.Roles = append(seed.Roles, role)

	user, created, err := s.ensureUser(ctx, seed)
	if err != nil || created {
		return err
	}

	next := user.Clone()
	guildAdded := addToSet(&next.Guilds, guildID)
	roleAdded := addToSet(&next.Roles, role)
	if !guildAdded && !roleAdded {
		return nil
	}

	if err := s.saveUser(ctx, next); err != nil {
		return err
	}
	s.emit(EventUserEdit, next)
	return nil
}

// releaseSlotHolder drops role from userID when no guild assigns it anymore.
// pending stands in for the cached copy of a guild that is being rewritten.
func (s *RegistryService) releaseSlotHolder(ctx context.Context, userID string, role model.Role, pending *model.Guild) error {
	user, ok := s.cache.user(userID)
	if !ok {
		return nil
	}
	if s.cache.slotAssigned(userID, role, pending) {
		return nil
	}

	next := user.Clone()
	if !pullFromSet(&next.Roles, role) {
		return nil
	}

	if err := s.saveUser(ctx, next); err != nil {
		return err
	}
	s.emit(EventUserEdit, next)
	return nil
}
