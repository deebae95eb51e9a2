package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

// GetPartner returns a cached partner
func (s *RegistryService) GetPartner(id string) (*model.Partner, error) {
	p, ok := s.cache.partner(id)
	if !ok {
		return nil, ErrPartnerNotFound
	}
	return p.Clone(), nil
}

// ListPartners returns every cached partner, sorted by id
func (s *RegistryService) ListPartners() []*model.Partner {
	return s.cache.listPartners()
}

// CreatePartner stores a new partner
func (s *RegistryService) CreatePartner(ctx context.Context, input *model.Partner) (_ *model.Partner, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("create_partner", err) }()

	if _, ok := s.cache.partner(input.ID); ok {
		return nil, ErrPartnerExists
	}

	partner := input.Clone()
	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrPartnerExists
		}
		return nil, fmt.Errorf("create partner %s: %w", partner.ID, err)
	}
	s.cache.putPartner(partner)
	s.emit(EventPartnerAdd, partner)

	return partner.Clone(), nil
}

// EditPartner merges patch into a partner
func (s *RegistryService) EditPartner(ctx context.Context, id string, patch model.PartnerPatch) (_ *model.Partner, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("edit_partner", err) }()

	current, ok := s.cache.partner(id)
	if !ok {
		return nil, ErrPartnerNotFound
	}

	next := patch.ApplyTo(current)
	if *next == *current {
		s.logger.Debug("partner unchanged", slog.String("partner", id))
		return current.Clone(), nil
	}

	if err := s.partnerRepo.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("update partner %s: %w", id, err)
	}
	s.cache.putPartner(next)
	s.emit(EventPartnerEdit, next)

	return next.Clone(), nil
}

// RemovePartner deletes a partner
func (s *RegistryService) RemovePartner(ctx context.Context, id string) (_ *model.Partner, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.observe("remove_partner", err) }()

	partner, ok := s.cache.partner(id)
	if !ok {
		return nil, ErrPartnerNotFound
	}

	if err := s.partnerRepo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete partner %s: %w", id, err)
	}
	s.cache.deletePartner(id)
	s.emit(EventPartnerRemove, partner)

	return partner.Clone(), nil
}
