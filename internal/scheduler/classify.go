package scheduler

import (
	"context"
	"errors"

	"groupfarm/internal/provider"
	"groupfarm/internal/storage"
)

const (
	reasonGroupLimit = "Exceeded Telegram limit for channels/groups"
	reasonMaxAge     = "Exceeded maximum active days"
)

// handleFailure routes a provisioning failure for one account.
//
//   - hard limit: disable the account and alert operators (best effort)
//   - flood wait: stall the entire pass for the signalled duration
//   - anything else: append an error record and move on; the account is
//     re-evaluated naturally next pass
func (s *Service) handleFailure(ctx context.Context, acc storage.Account, err error) {
	if errors.Is(err, provider.ErrGroupLimit) {
		s.log.Warn().Int64("account", acc.ID).Msg("provider group limit reached, disabling account")
		if derr := s.store.DisableAccount(ctx, acc.ID, reasonGroupLimit); derr != nil {
			s.log.Error().Err(derr).Int64("account", acc.ID).Msg("disable account failed")
		}
		s.pool.Drop(acc.ID)
		s.notifyDisabled(ctx, acc, reasonGroupLimit)
		return
	}

	if wait, ok := provider.AsFloodWait(err); ok {
		s.log.Warn().Int64("account", acc.ID).Dur("wait", wait).Msg("flood wait, stalling pass")
		s.sleep(ctx, wait)
		return
	}

	s.log.Error().Err(err).Int64("account", acc.ID).Msg("provisioning failed")
	id := acc.ID
	if aerr := s.store.AppendError(ctx, storage.ErrorRecord{
		AccountID: &id,
		Context:   "provisioning",
		Text:      err.Error(),
	}); aerr != nil {
		s.log.Error().Err(aerr).Msg("append error record failed")
	}
}

func (s *Service) notifyDisabled(ctx context.Context, acc storage.Account, reason string) {
	if s.notifier == nil {
		s.log.Warn().Int64("account", acc.ID).Msg("no notifier configured for disabled-account alert")
		return
	}
	text := "⚠️ Account " + acc.Phone + " disabled\nReason: " + reason
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Warn().Err(err).Int64("account", acc.ID).Msg("disabled-account alert failed")
	}
}
