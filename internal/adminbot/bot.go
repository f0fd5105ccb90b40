// Package adminbot is the operator surface: a Telegram bot with a flat
// command set for controlling the scheduler and managing the account pool,
// plus the notification channel for scheduler alerts and the daily digest.
package adminbot

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"groupfarm/internal/provider"
	"groupfarm/internal/storage"
)

const commandTimeout = 15 * time.Second

type Config struct {
	Token    string
	AdminIDs []int64
	// DigestCron schedules the daily stats digest; empty disables it.
	DigestCron string
}

// Store is the slice of the persistence layer the operator commands need.
type Store interface {
	ListAccounts(ctx context.Context, activeOnly bool) ([]storage.Account, error)
	Account(ctx context.Context, id int64) (storage.Account, error)
	AddAccount(ctx context.Context, phone, sessionPath, label string) (int64, error)
	ToggleAccount(ctx context.Context, id int64) (storage.Account, error)
	DeleteAccount(ctx context.Context, id int64) (bool, error)
	UpdateProxy(ctx context.Context, id int64, p storage.ProxyConfig) error
	LatestErrors(ctx context.Context, limit int) ([]storage.ErrorRecord, error)
	GlobalStats(ctx context.Context) (storage.Stats, error)
}

// Controller is the scheduler's run/pause flag.
type Controller interface {
	Pause()
	Resume()
	IsRunning() bool
}

type Bot struct {
	cfg   Config
	bot   *tele.Bot
	store Store
	ctl   Controller
	pool  provider.Pool
	log   zerolog.Logger
	cron  *cron.Cron

	admins map[int64]struct{}
}

func New(cfg Config, store Store, ctl Controller, pool provider.Pool, log zerolog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}

	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	b := &Bot{
		cfg:    cfg,
		bot:    tb,
		store:  store,
		ctl:    ctl,
		pool:   pool,
		log:    log.With().Str("component", "adminbot").Logger(),
		admins: admins,
	}
	b.register()
	return b, nil
}

// Start begins long polling and the digest schedule. Non-blocking.
func (b *Bot) Start(ctx context.Context) {
	if spec := b.cfg.DigestCron; spec != "" && len(b.admins) > 0 {
		b.cron = cron.New()
		if _, err := b.cron.AddFunc(spec, b.sendDigest); err != nil {
			b.log.Warn().Err(err).Str("spec", spec).Msg("invalid digest cron spec, digest disabled")
			b.cron = nil
		} else {
			b.cron.Start()
		}
	}
	go b.bot.Start()
	b.log.Info().Int("admins", len(b.admins)).Msg("admin bot started")
}

func (b *Bot) Stop(ctx context.Context) {
	if b.cron != nil {
		stopCtx := b.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
	}
	b.bot.Stop()
}

// Notify pushes an alert to the first configured admin. Implements the
// scheduler's Notifier.
func (b *Bot) Notify(ctx context.Context, text string) error {
	if len(b.cfg.AdminIDs) == 0 {
		return errors.New("no admin ids configured")
	}
	_, err := b.bot.Send(tele.ChatID(b.cfg.AdminIDs[0]), text)
	return err
}

// restrict drops updates from anyone outside the admin allowlist.
func (b *Bot) restrict(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		if _, ok := b.admins[sender.ID]; !ok {
			b.log.Debug().Int64("from", sender.ID).Msg("ignoring non-admin update")
			return nil
		}
		return next(c)
	}
}

func (b *Bot) sendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	stats, err := b.store.GlobalStats(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("digest stats query failed")
		return
	}
	text := formatDigest(stats, b.ctl.IsRunning())
	for _, id := range b.cfg.AdminIDs {
		if _, err := b.bot.Send(tele.ChatID(id), text); err != nil {
			b.log.Warn().Err(err).Int64("admin", id).Msg("digest send failed")
		}
	}
}
