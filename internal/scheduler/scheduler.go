package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"groupfarm/internal/provider"
	"groupfarm/internal/storage"
)

// Service is the provisioning controller. The run/pause flag is owned here
// and toggled via Pause/Resume; account-level state lives in the store.
type Service struct {
	cfg      Config
	store    Store
	pool     provider.Pool
	notifier Notifier
	log      zerolog.Logger

	running atomic.Bool
}

func New(cfg Config, store Store, pool provider.Pool, notifier Notifier, log zerolog.Logger) *Service {
	cfg.setDefaults()
	s := &Service{
		cfg:      cfg,
		store:    store,
		pool:     pool,
		notifier: notifier,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
	s.running.Store(true)
	return s
}

// SetNotifier installs the operator alert channel. Call before Run.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// Resume lets the loop process passes again.
func (s *Service) Resume() { s.running.Store(true) }

// Pause stops new passes. An in-flight provisioning action is never
// cancelled; pausing takes effect at the next loop check.
func (s *Service) Pause() { s.running.Store(false) }

func (s *Service) IsRunning() bool { return s.running.Load() }

// Run executes the control loop until ctx is cancelled. A pass-level failure
// never terminates the loop: it is logged to the error table and the loop
// backs off before retrying.
func (s *Service) Run(ctx context.Context) {
	s.log.Info().
		Dur("poll_interval", s.cfg.PollInterval).
		Int("max_groups", s.cfg.Limits.MaxGroups).
		Dur("max_age", s.cfg.Limits.MaxAge).
		Dur("cooldown", s.cfg.Limits.Cooldown).
		Msg("scheduler started")

	for {
		if ctx.Err() != nil {
			s.log.Info().Msg("scheduler stopped")
			return
		}
		if !s.running.Load() {
			if !s.sleep(ctx, s.cfg.PausedCheck) {
				return
			}
			continue
		}

		if err := s.pass(ctx, time.Now().UTC()); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error().Err(err).Msg("scheduler pass failed")
			if aerr := s.store.AppendError(ctx, storage.ErrorRecord{
				Context: "scheduler_main_loop",
				Text:    err.Error(),
			}); aerr != nil {
				s.log.Error().Err(aerr).Msg("append error record failed")
			}
			if !s.sleep(ctx, s.cfg.ErrorBackoff) {
				return
			}
			continue
		}

		if !s.sleep(ctx, s.cfg.PollInterval) {
			return
		}
	}
}

// pass processes one snapshot of the active accounts in id order. The slice
// index supplies the 1-based ordinal used in group titles.
func (s *Service) pass(ctx context.Context, now time.Time) error {
	accounts, err := s.store.ListAccounts(ctx, true)
	if err != nil {
		return fmt.Errorf("list active accounts: %w", err)
	}

	for i, acc := range accounts {
		if ctx.Err() != nil {
			return nil
		}

		switch Evaluate(acc, s.cfg.Limits, now) {
		case QuotaExhausted:
			s.log.Debug().Int64("account", acc.ID).Int("groups", acc.CreatedGroups).
				Msg("account reached group quota")
			continue
		case AgeExceeded:
			s.log.Info().Int64("account", acc.ID).Msg("account exceeded maximum age, disabling")
			if err := s.store.DisableAccount(ctx, acc.ID, reasonMaxAge); err != nil {
				return fmt.Errorf("disable account %d: %w", acc.ID, err)
			}
			s.pool.Drop(acc.ID)
			continue
		case CoolingDown:
			continue
		}

		if err := s.provision(ctx, acc, i+1, now); err != nil {
			s.handleFailure(ctx, acc, err)
		}
	}
	return nil
}

// sleep waits for d or until ctx is done; it reports whether the loop should
// keep going.
func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
