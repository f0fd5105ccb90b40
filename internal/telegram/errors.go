package telegram

import (
	"fmt"

	"github.com/gotd/td/tgerr"

	"groupfarm/internal/provider"
)

// mapError folds provider RPC errors into the closed taxonomy the failure
// classifier matches against. Anything unrecognized passes through as a
// transient error.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if tgerr.Is(err, "CHANNELS_TOO_MUCH") {
		return fmt.Errorf("%w: %v", provider.ErrGroupLimit, err)
	}
	if wait, ok := tgerr.AsFloodWait(err); ok {
		return &provider.FloodWaitError{Wait: wait}
	}
	return err
}
