package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
)

// conn is one account's live MTProto session.
type conn struct {
	api    *tg.Client
	sender *message.Sender
	stop   func()
	log    zerolog.Logger

	// peers caches input peers for groups created on this connection;
	// seeding only ever targets freshly created groups.
	mu    sync.Mutex
	peers map[string]*tg.InputPeerChannel
}

func (c *conn) close() { c.stop() }

func (c *conn) CreateGroup(ctx context.Context, title string) (string, error) {
	upd, err := c.api.ChannelsCreateChannel(ctx, &tg.ChannelsCreateChannelRequest{
		Megagroup: true,
		Title:     title,
		About:     "Auto-created group",
	})
	if err != nil {
		return "", mapError(err)
	}
	ch, err := channelFromUpdates(upd)
	if err != nil {
		return "", err
	}

	chatID := strconv.FormatInt(ch.ID, 10)
	c.mu.Lock()
	c.peers[chatID] = &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
	c.mu.Unlock()

	c.log.Debug().Str("chat_id", chatID).Str("title", title).Msg("supergroup created")
	return chatID, nil
}

func (c *conn) SendMessage(ctx context.Context, chatID, text string) error {
	c.mu.Lock()
	peer, ok := c.peers[chatID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("no cached peer for chat %s", chatID)
	}
	if _, err := c.sender.To(peer).Text(ctx, text); err != nil {
		return mapError(err)
	}
	return nil
}

func channelFromUpdates(u tg.UpdatesClass) (*tg.Channel, error) {
	var chats []tg.ChatClass
	switch v := u.(type) {
	case *tg.Updates:
		chats = v.Chats
	case *tg.UpdatesCombined:
		chats = v.Chats
	default:
		return nil, errors.New("unexpected updates type from channel creation")
	}
	for _, chat := range chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return ch, nil
		}
	}
	return nil, errors.New("no channel in provider response")
}
