package jobs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/guildhall/api/internal/service"
)

// Auditor checks the guild/user relationships
type Auditor interface {
	Audit() []service.Violation
}

// InvariantAuditor periodically audits the registry cache and logs every
// violation it finds. It never repairs anything.
type InvariantAuditor struct {
	auditor  Auditor
	interval time.Duration
	delay    time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// InvariantAuditorConfig configures the auditor job
type InvariantAuditorConfig struct {
	Interval time.Duration
	// StartDelay postpones the first audit after Start
	StartDelay time.Duration
	Logger     *slog.Logger
}

// NewInvariantAuditor creates a new auditor job
func NewInvariantAuditor(auditor Auditor, cfg InvariantAuditorConfig) *InvariantAuditor {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &InvariantAuditor{
		auditor:  auditor,
		interval: cfg.Interval,
		delay:    cfg.StartDelay,
		logger:   cfg.Logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the audit loop
func (a *InvariantAuditor) Start() {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.mu.Unlock()

	a.wg.Add(1)
	go a.run()
	a.logger.Info("invariant auditor started", slog.Duration("interval", a.interval))
}

// Stop gracefully stops the audit loop
func (a *InvariantAuditor) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	close(a.stopCh)
	a.wg.Wait()
	a.logger.Info("invariant auditor stopped")
}

func (a *InvariantAuditor) run() {
	defer a.wg.Done()

	select {
	case <-time.After(a.delay):
		a.RunOnce()
	case <-a.stopCh:
		return
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.RunOnce()
		case <-a.stopCh:
			return
		}
	}
}

// RunOnce audits immediately and returns the violations found
func (a *InvariantAuditor) RunOnce() []service.Violation {
	violations := a.auditor.Audit()
	for _, v := range violations {
		a.logger.Warn("invariant violation",
			slog.String("kind", string(v.Kind)),
			slog.String("guild", v.Guild),
			slog.String("user", v.User),
			slog.String("role", string(v.Role)),
		)
	}
	if len(violations) == 0 {
		a.logger.Debug("invariant audit clean")
	}
	return violations
}

// IsRunning returns whether the auditor is running
func (a *InvariantAuditor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
