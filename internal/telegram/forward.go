package telegram

import (
	"context"
	"math/rand"

	"github.com/gotd/td/tg"

	"groupfarm/internal/storage"
)

// registerForward wires the account's update stream so that messages from
// the provider's service account are forwarded to the configured operator
// peer. Best effort: forwarding failures are logged and dropped.
func (p *Pool) registerForward(d tg.UpdateDispatcher, acc storage.Account, api *tg.Client) {
	if p.cfg.ForwardTo == 0 || p.cfg.ServiceUserID == 0 {
		return
	}
	log := p.log.With().Int64("account", acc.ID).Logger()

	d.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		msg, ok := u.Message.(*tg.Message)
		if !ok {
			return nil
		}
		peer, ok := msg.PeerID.(*tg.PeerUser)
		if !ok || peer.UserID != p.cfg.ServiceUserID {
			return nil
		}

		from := &tg.InputPeerUser{UserID: peer.UserID}
		if user, ok := e.Users[peer.UserID]; ok {
			from.AccessHash = user.AccessHash
		}
		_, err := api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
			FromPeer: from,
			ID:       []int{msg.ID},
			RandomID: []int64{rand.Int63()},
			ToPeer:   &tg.InputPeerUser{UserID: p.cfg.ForwardTo},
		})
		if err != nil {
			log.Warn().Err(err).Int("message_id", msg.ID).Msg("service message forward failed")
			return nil
		}
		log.Info().Int("message_id", msg.ID).Msg("service message forwarded")
		return nil
	})
}
