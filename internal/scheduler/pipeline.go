package scheduler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"groupfarm/internal/storage"
)

// provision performs one group-creation-and-seeding action for an eligible
// account.
//
// The group row is committed right after the provider confirms creation, so
// a failure during seeding leaves a group with messages_sent = 0 and no
// quota increment. Seeding is at-most-once: a failed message stops the
// attempt, nothing is retried here.
func (s *Service) provision(ctx context.Context, acc storage.Account, ordinal int, now time.Time) error {
	conn, err := s.pool.Acquire(ctx, acc)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}

	number := acc.CreatedGroups + 1
	title := groupTitle(ordinal, number, now)

	chatID, err := conn.CreateGroup(ctx, title)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	groupID, err := s.store.CreateGroup(ctx, acc.ID, chatID, title, now)
	if err != nil {
		return fmt.Errorf("record group: %w", err)
	}

	msgs := datetimeMessages(now)
	lim := rate.NewLimiter(rate.Every(s.cfg.MessageDelay), 1)
	for i, text := range msgs {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		if err := conn.SendMessage(ctx, chatID, text); err != nil {
			return fmt.Errorf("send message %d/%d: %w", i+1, len(msgs), err)
		}
	}

	// Success commit: message count, quota increment, activity timestamps.
	// Each is a separate write; a failure here marks the whole action as
	// failed even though the group exists.
	if err := s.store.SetGroupMessages(ctx, groupID, len(msgs)); err != nil {
		return fmt.Errorf("record message count: %w", err)
	}
	if err := s.store.IncrementGroupCount(ctx, acc.ID); err != nil {
		return fmt.Errorf("increment group count: %w", err)
	}
	if err := s.store.UpdateActivity(ctx, acc.ID, now, now); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}

	s.log.Info().
		Int64("account", acc.ID).
		Str("title", title).
		Int("group_number", number).
		Int("messages", len(msgs)).
		Msg("group created")
	return nil
}
