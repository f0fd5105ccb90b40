package scheduler

import (
	"context"
	"time"

	"groupfarm/internal/storage"
)

// Config controls the loop timing and the per-account limits.
type Config struct {
	// PollInterval is the sleep between passes.
	PollInterval time.Duration
	// PausedCheck is the re-check interval while paused.
	PausedCheck time.Duration
	// ErrorBackoff is the sleep after a pass-level failure.
	ErrorBackoff time.Duration
	// MessageDelay paces seed message delivery within one group.
	MessageDelay time.Duration

	Limits Limits
}

// Limits are the global per-account eligibility bounds.
type Limits struct {
	// MaxGroups is the lifetime group quota per account.
	MaxGroups int
	// MaxAge bounds account lifetime, measured from its first activity.
	MaxAge time.Duration
	// Cooldown is the minimum interval between two provisioning actions
	// for one account.
	Cooldown time.Duration
}

func (c *Config) setDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.PausedCheck <= 0 {
		c.PausedCheck = 5 * time.Second
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = 10 * time.Second
	}
	if c.MessageDelay <= 0 {
		c.MessageDelay = time.Second
	}
	if c.Limits.MaxGroups <= 0 {
		c.Limits.MaxGroups = 450
	}
	if c.Limits.MaxAge <= 0 {
		c.Limits.MaxAge = 10 * 24 * time.Hour
	}
	if c.Limits.Cooldown <= 0 {
		c.Limits.Cooldown = 30 * time.Minute
	}
}

// Store is the slice of the persistence layer the loop needs.
type Store interface {
	ListAccounts(ctx context.Context, activeOnly bool) ([]storage.Account, error)
	DisableAccount(ctx context.Context, id int64, reason string) error
	CreateGroup(ctx context.Context, accountID int64, chatID, title string, at time.Time) (int64, error)
	SetGroupMessages(ctx context.Context, groupID int64, n int) error
	IncrementGroupCount(ctx context.Context, accountID int64) error
	UpdateActivity(ctx context.Context, accountID int64, first, last time.Time) error
	AppendError(ctx context.Context, rec storage.ErrorRecord) error
}

// Notifier pushes operator alerts. Best-effort: failures are logged, never
// propagated into the pass.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
