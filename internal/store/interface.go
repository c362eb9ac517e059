package store

import "context"

// ChatStore is the shared-store contract backing presence and history. It is
// the single source of truth: the gateway holds no authoritative local copy
// of either, so multiple gateway instances can share one store.
//
// Every mutation must be a single atomic round-trip against the store; no
// read-modify-write sequences.
type ChatStore interface {
	// IncrementPresence atomically adds 1 to the live-connection count for an
	// identity in a channel, creating the field at 1 if absent.
	IncrementPresence(ctx context.Context, channelID, identityID string) error

	// DecrementPresence atomically subtracts 1 and deletes the field when the
	// result is zero or less, in one store round-trip. Returns the
	// post-decrement value.
	DecrementPresence(ctx context.Context, channelID, identityID string) (int64, error)

	// PresenceCount reads the stored count for one identity. Zero when the
	// field is absent.
	PresenceCount(ctx context.Context, channelID, identityID string) (int64, error)

	// AppendMessage appends a serialized message to the tail of the channel's
	// history log.
	AppendMessage(ctx context.Context, channelID, payload string) error

	// RecentMessages returns up to count entries from the tail of the log,
	// oldest first. Non-mutating.
	RecentMessages(ctx context.Context, channelID string, count int64) ([]string, error)

	// HistoryLength returns the current length of the channel's log.
	HistoryLength(ctx context.Context, channelID string) (int64, error)

	// TrimToRecent discards everything but the most recent keep entries.
	TrimToRecent(ctx context.Context, channelID string, keep int64) error

	// Close closes the store connection.
	Close() error
}
