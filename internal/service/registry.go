package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/forgo/guildhall/api/internal/metrics"
	"github.com/forgo/guildhall/api/internal/model"
)

// GuildRepository persists guilds
type GuildRepository interface {
	FindAll(ctx context.Context) ([]*model.Guild, error)
	Create(ctx context.Context, guild *model.Guild) error
	Update(ctx context.Context, guild *model.Guild) error
	Delete(ctx context.Context, id string) error
}

// UserRepository persists users
type UserRepository interface {
	FindAll(ctx context.Context) ([]*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// PartnerRepository persists partners
type PartnerRepository interface {
	FindAll(ctx context.Context) ([]*model.Partner, error)
	Create(ctx context.Context, partner *model.Partner) error
	Update(ctx context.Context, partner *model.Partner) error
	Delete(ctx context.Context, id string) error
}

// RegistryServiceConfig wires a RegistryService
type RegistryServiceConfig struct {
	GuildRepo   GuildRepository
	UserRepo    UserRepository
	PartnerRepo PartnerRepository
	Events      Publisher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// RegistryService owns guilds, users and partners. It keeps the cache, the
// store and the event stream in step and maintains the guild/user
// relationships:
//
//   - every user named in a guild role slot has that guild in its guilds set
//     and the slot's role in its roles set
//   - a structural role leaves a user only once no guild assigns the user to
//     that slot
//
// Mutations are serialized; reads go straight to the cache.
type RegistryService struct {
	guildRepo   GuildRepository
	userRepo    UserRepository
	partnerRepo PartnerRepository
	events      Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger

	cache *entityCache
	mu    sync.Mutex
}

// NewRegistryService creates a new registry service with an empty cache
func NewRegistryService(cfg RegistryServiceConfig) *RegistryService {
	events := cfg.Events
	if events == nil {
		events = discardPublisher{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryService{
		guildRepo:   cfg.GuildRepo,
		userRepo:    cfg.UserRepo,
		partnerRepo: cfg.PartnerRepo,
		events:      events,
		metrics:     cfg.Metrics,
		logger:      logger,
		cache:       newEntityCache(),
	}
}

// Load replaces the cache with the full contents of the store
func (s *RegistryService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		guilds   []*model.Guild
		users    []*model.User
		partners []*model.Partner
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		guilds, err = s.guildRepo.FindAll(gctx)
		return wrapLoad("guilds", err)
	})
	g.Go(func() (err error) {
		users, err = s.userRepo.FindAll(gctx)
		return wrapLoad("users", err)
	})
	g.Go(func() (err error) {
		partners, err = s.partnerRepo.FindAll(gctx)
		return wrapLoad("partners", err)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, u := range users {
		normalizeUser(u)
	}
	s.cache.replace(guilds, users, partners)
	s.recordCounts()

	s.logger.Info("registry loaded",
		slog.Int("guilds", len(guilds)),
		slog.Int("users", len(users)),
		slog.Int("partners", len(partners)),
	)
	return nil
}

func wrapLoad(collection string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", collection, err)
	}
	return nil
}

// Snapshot returns every cached entity, sorted by id
func (s *RegistryService) Snapshot() *model.Snapshot {
	return &model.Snapshot{
		Users:    s.cache.listUsers(),
		Guilds:   s.cache.listGuilds(),
		Partners: s.cache.listPartners(),
	}
}

// SnapshotAndSubscribe captures a snapshot and registers a subscriber with
// no mutation in between, so the subscriber sees every later event exactly
// once.
func (s *RegistryService) SnapshotAndSubscribe(hub *EventHub, subscriberID string) (*model.Snapshot, *Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Snapshot(), hub.Subscribe(subscriberID)
}

func (s *RegistryService) emit(eventType EventType, data interface{}) {
	s.events.Publish(&Event{Type: eventType, Data: data})
}

// observe records the outcome of a mutation
func (s *RegistryService) observe(operation string, err error) {
	s.metrics.Mutation(operation, outcome(err))
	s.recordCounts()
}

func (s *RegistryService) recordCounts() {
	guilds, users, partners := s.cache.counts()
	s.metrics.SetCached("guilds", guilds)
	s.metrics.SetCached("users", users)
	s.metrics.SetCached("partners", partners)
}

// cascadeFailed logs a failed follow-up write. The primary change is already
// committed, so store and cache may disagree until the next audit.
func (s *RegistryService) cascadeFailed(operation, id string, err error) {
	s.logger.Warn("cascade write failed",
		slog.String("operation", operation),
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
}

// normalizeUser gives stored users non-nil sets
func normalizeUser(u *model.User) {
	if u.Guilds == nil {
		u.Guilds = []string{}
	}
	if u.Roles == nil {
		u.Roles = []model.Role{}
	}
}
