// Package history manages the per-channel append-only message log.
package history

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/lumastream/chat-gateway/internal/config"
	"github.com/lumastream/chat-gateway/internal/store"
	"github.com/lumastream/chat-gateway/internal/telemetry"
	"github.com/lumastream/chat-gateway/pkg/log"
)

// fetchMaxRetries bounds the retry of the idempotent tail read. Mutations are
// never retried: append and the presence ops are not idempotent and carry no
// deduplication token.
const fetchMaxRetries = 3

// Log is the bounded per-channel history. The shared store holds the only
// authoritative copy; this type carries policy, not state.
type Log struct {
	store   store.ChatStore
	trigger int64
	keep    int64
	fetch   int64
}

func New(s store.ChatStore, cfg config.HistoryConfig) *Log {
	return &Log{
		store:   s,
		trigger: cfg.TriggerSize,
		keep:    cfg.KeepSize,
		fetch:   cfg.FetchSize,
	}
}

// Append adds a serialized message to the channel's log. Failures are logged
// and swallowed: the message already reached live subscribers through the
// hub, only the persisted log misses it.
func (l *Log) Append(ctx context.Context, channelID, payload string) {
	if err := l.store.AppendMessage(ctx, channelID, payload); err != nil {
		telemetry.Inc(telemetry.HistoryAppendFailures)
		telemetry.Inc(telemetry.StoreErrors)
		logger := log.Ctx(ctx)
		logger.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("history append failed, message not persisted")
	}
}

// Recent returns the most recent window of the log, oldest first. The read is
// non-mutating and idempotent, so it is retried with exponential backoff
// before giving up.
func (l *Log) Recent(ctx context.Context, channelID string) ([]string, error) {
	var out []string
	op := func() error {
		var err error
		out, err = l.store.RecentMessages(ctx, channelID, l.fetch)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchMaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		telemetry.Inc(telemetry.StoreErrors)
		return nil, err
	}
	return out, nil
}

// CompactIfNeeded trims the log to the most recent keep entries once it has
// grown to the trigger size. Trimming in batches amortises the cost: the log
// may reach trigger before shrinking back to keep. Never blocks delivery;
// callers run it fire-and-forget after a join.
func (l *Log) CompactIfNeeded(ctx context.Context, channelID string) error {
	length, err := l.store.HistoryLength(ctx, channelID)
	if err != nil {
		telemetry.Inc(telemetry.StoreErrors)
		return err
	}

	if length < l.trigger {
		return nil
	}

	if err := l.store.TrimToRecent(ctx, channelID, l.keep); err != nil {
		telemetry.Inc(telemetry.StoreErrors)
		return err
	}

	telemetry.Inc(telemetry.CompactionsRun)
	logger := log.Ctx(ctx)
	logger.Debug().Str(log.FieldChannelID, channelID).Int64("length", length).Int64("keep", l.keep).Msg("history compacted")
	return nil
}
