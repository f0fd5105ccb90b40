// Package provider defines the boundary to the external resource provider:
// the per-account connection, the connection pool, and the closed set of
// failure kinds the scheduler's classifier matches against.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"groupfarm/internal/storage"
)

// Conn is one account's live session with the provider. The scheduler only
// borrows connections; the pool owns their lifecycle.
type Conn interface {
	// CreateGroup creates a supergroup and returns its external chat id.
	CreateGroup(ctx context.Context, title string) (string, error)
	// SendMessage delivers one message into a group created on this connection.
	SendMessage(ctx context.Context, chatID, text string) error
}

// Pool hands out cached per-account connections, dialing on miss.
type Pool interface {
	Acquire(ctx context.Context, acc storage.Account) (Conn, error)
	// Drop tears down the cached connection for an account, if any.
	Drop(accountID int64)
	Close(ctx context.Context) error
}

// ErrGroupLimit is the provider's permanent refusal to create more groups
// for an identity. The account must be disabled; retrying cannot help.
var ErrGroupLimit = errors.New("provider group limit reached")

// FloodWaitError is the provider's "retry after" congestion signal. The
// scheduler suspends the whole pass for Wait before continuing.
type FloodWaitError struct {
	Wait time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %s", e.Wait)
}

// AsFloodWait extracts the wait duration if err carries a FloodWaitError.
func AsFloodWait(err error) (time.Duration, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw.Wait, true
	}
	return 0, false
}
