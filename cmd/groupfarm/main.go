package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"groupfarm/internal/accountimport"
	"groupfarm/internal/adminbot"
	"groupfarm/internal/config"
	"groupfarm/internal/logging"
	"groupfarm/internal/scheduler"
	"groupfarm/internal/sessionwatch"
	"groupfarm/internal/storage"
	"groupfarm/internal/telegram"
)

func main() {
	var importPath string
	flag.StringVar(&importPath, "import", "", "register accounts from a YAML file and continue")
	flag.Parse()

	if err := run(importPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(importPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, closeLog, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := storage.Open(cfg.DBPath, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	log.Info().Str("path", cfg.DBPath).Msg("database ready")

	if importPath != "" {
		entries, err := accountimport.Load(importPath)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		added, err := accountimport.Apply(ctx, store, entries)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		log.Info().Int("added", added).Str("file", importPath).Msg("accounts imported")
	}

	if err := os.MkdirAll(cfg.SessionsDir, 0o755); err != nil {
		return fmt.Errorf("sessions dir: %w", err)
	}

	pool := telegram.NewPool(telegram.Config{
		APIID:         cfg.APIID,
		APIHash:       cfg.APIHash,
		SessionsDir:   cfg.SessionsDir,
		ServiceUserID: cfg.ServiceID,
		ForwardTo:     cfg.ForwardTo,
	}, log)
	defer pool.Close(context.Background())

	sched := scheduler.New(scheduler.Config{
		PollInterval: cfg.PollInterval,
		Limits: scheduler.Limits{
			MaxGroups: cfg.MaxGroupsPerAccount,
			MaxAge:    cfg.MaxAge(),
			Cooldown:  cfg.Cooldown(),
		},
	}, store, pool, nil, log)

	bot, err := adminbot.New(adminbot.Config{
		Token:      cfg.BotToken,
		AdminIDs:   cfg.AdminIDs,
		DigestCron: cfg.DigestCron,
	}, store, sched, pool, log)
	if err != nil {
		return fmt.Errorf("admin bot: %w", err)
	}
	if len(cfg.AdminIDs) > 0 {
		sched.SetNotifier(bot)
	}
	bot.Start(ctx)
	defer bot.Stop(context.Background())

	watcher := sessionwatch.New(cfg.SessionsDir, store, log)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Warn().Err(err).Msg("session watcher stopped")
		}
	}()

	// Connect sessions up front so service-message forwarding is live
	// before the first provisioning pass.
	if accounts, err := store.ListAccounts(ctx, true); err != nil {
		log.Warn().Err(err).Msg("warm-up account listing failed")
	} else {
		pool.WarmUp(ctx, accounts)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	log.Info().Msg("system ready")

	sched.Run(ctx)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	log.Info().Msg("shutting down")
	return nil
}
