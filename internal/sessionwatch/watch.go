// Package sessionwatch auto-registers accounts from session files dropped
// into the sessions directory. A file named session_<phone>.session creates
// an account for that phone unless one already exists.
package sessionwatch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"groupfarm/internal/storage"
)

type Store interface {
	AccountByPhone(ctx context.Context, phone string) (storage.Account, error)
	AddAccount(ctx context.Context, phone, sessionPath, label string) (int64, error)
}

type Watcher struct {
	dir   string
	store Store
	log   zerolog.Logger
}

func New(dir string, store Store, log zerolog.Logger) *Watcher {
	return &Watcher{
		dir:   dir,
		store: store,
		log:   log.With().Str("component", "sessionwatch").Logger(),
	}
}

// Run watches the sessions directory until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info().Str("dir", w.dir).Msg("watching for session files")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.handle(ctx, ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	name := filepath.Base(path)
	phone, ok := PhoneFromSessionFile(name)
	if !ok {
		return
	}

	if _, err := w.store.AccountByPhone(ctx, phone); err == nil {
		return // already registered
	} else if !errors.Is(err, storage.ErrNotFound) {
		w.log.Error().Err(err).Str("phone", phone).Msg("account lookup failed")
		return
	}

	id, err := w.store.AddAccount(ctx, phone, name, "")
	if err != nil {
		w.log.Error().Err(err).Str("phone", phone).Msg("auto-register failed")
		return
	}
	w.log.Info().Int64("account", id).Str("phone", phone).Str("session", name).
		Msg("account auto-registered from session file")
}

// PhoneFromSessionFile extracts the phone number from a session file name of
// the form "session_<digits>.session".
func PhoneFromSessionFile(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "session_")
	if !ok {
		return "", false
	}
	digits, ok := strings.CutSuffix(rest, ".session")
	if !ok || digits == "" {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return "+" + digits, true
}
