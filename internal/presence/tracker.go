// Package presence maintains per-channel live-connection counts per identity.
package presence

import (
	"context"

	"github.com/lumastream/chat-gateway/internal/store"
	"github.com/lumastream/chat-gateway/internal/telemetry"
	"github.com/lumastream/chat-gateway/pkg/log"
)

// Tracker counts live connections per (channel, identity) in the shared
// store. Counts converge to the true number of live connections and never go
// negative: the decrement removes the field atomically once it reaches zero.
//
// The stored counts exist for presence cleanup, not display-accurate viewer
// numbers.
type Tracker struct {
	store store.ChatStore
}

func NewTracker(s store.ChatStore) *Tracker {
	return &Tracker{store: s}
}

func (t *Tracker) Increment(ctx context.Context, channelID, identityID string) error {
	err := t.store.IncrementPresence(ctx, channelID, identityID)
	if err != nil {
		telemetry.Inc(telemetry.StoreErrors)
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Str(log.FieldIdentityID, identityID).Msg("presence increment failed")
	}
	return err
}

func (t *Tracker) Decrement(ctx context.Context, channelID, identityID string) error {
	remaining, err := t.store.DecrementPresence(ctx, channelID, identityID)
	if err != nil {
		telemetry.Inc(telemetry.StoreErrors)
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Str(log.FieldIdentityID, identityID).Msg("presence decrement failed")
		return err
	}

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldChannelID, channelID).Str(log.FieldIdentityID, identityID).Int64(log.FieldCount, remaining).Msg("presence decremented")
	return nil
}

// Count reads the stored count for one identity in a channel.
func (t *Tracker) Count(ctx context.Context, channelID, identityID string) (int64, error) {
	return t.store.PresenceCount(ctx, channelID, identityID)
}
