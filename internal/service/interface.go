package service

import (
	"context"

	"github.com/lumastream/chat-gateway/internal/hub"
)

// ChatService coordinates the lifecycle of every connection: connect, join,
// publish, leave, disconnect.
type ChatService interface {
	// HandleConnect resolves the connection's identity and acknowledges it.
	// Always succeeds: identity failures fall back to anonymous.
	HandleConnect(ctx context.Context, c *hub.Client, bearer, remoteAddr string)

	// HandleJoin subscribes the connection to a channel, counts its presence
	// and delivers the recent history window to it. Rejoining a different
	// channel leaves the previous one first.
	HandleJoin(ctx context.Context, c *hub.Client, channelID string) error

	// HandlePublish broadcasts a chat message to the channel and appends it
	// to history. Publishes from unauthenticated participants or outside a
	// channel are silently dropped.
	HandlePublish(ctx context.Context, c *hub.Client, content string) error

	// HandleLeave removes the connection from its current channel, if any.
	HandleLeave(ctx context.Context, c *hub.Client) error

	// HandleDisconnect releases the connection's presence and closes its
	// session. Safe from any state, idempotent.
	HandleDisconnect(ctx context.Context, c *hub.Client) error
}
