package service

import (
	"context"
	"time"

	"github.com/lumastream/chat-gateway/internal/domain"
	"github.com/lumastream/chat-gateway/internal/history"
	"github.com/lumastream/chat-gateway/internal/hub"
	"github.com/lumastream/chat-gateway/internal/identity"
	"github.com/lumastream/chat-gateway/internal/presence"
	"github.com/lumastream/chat-gateway/internal/telemetry"
	"github.com/lumastream/chat-gateway/pkg/log"
)

// compactTimeout bounds the fire-and-forget compaction check triggered after
// a join; it runs detached from the joining connection's context.
const compactTimeout = 10 * time.Second

type chatService struct {
	hub      *hub.Hub
	resolver *identity.Resolver
	presence *presence.Tracker
	history  *history.Log
}

func NewChatService(
	h *hub.Hub,
	resolver *identity.Resolver,
	tracker *presence.Tracker,
	hist *history.Log,
) ChatService {
	return &chatService{
		hub:      h,
		resolver: resolver,
		presence: tracker,
		history:  hist,
	}
}

func (s *chatService) HandleConnect(ctx context.Context, c *hub.Client, bearer, remoteAddr string) {
	p := s.resolver.Resolve(ctx, bearer, remoteAddr)
	c.Session.SetParticipant(p)

	// The client waits for this ack before sending further frames.
	ack, err := domain.NewAuthAckFrame()
	if err == nil {
		c.SendFrame(ack)
	}

	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldClientID, c.ID).
		Str(log.FieldIdentityID, p.IdentityID).
		Bool("authenticated", p.Authenticated).
		Msg("connection identity resolved")
}

func (s *chatService) HandleJoin(ctx context.Context, c *hub.Client, channelID string) error {
	if c.Session.State() == domain.StateClosed {
		return nil
	}

	// Joining the channel the connection is already in is a no-op.
	if c.Session.ChannelID() == channelID {
		return nil
	}

	// Rejoin: release the previous channel before taking the new one.
	if c.Session.IsJoined() {
		if err := s.leaveCurrent(ctx, c); err != nil {
			l := log.Ctx(ctx)
			l.Error().Err(err).Str(log.FieldClientID, c.ID).Msg("failed to leave previous channel on rejoin")
		}
	}

	p := c.Session.Participant()
	if p == nil {
		return nil
	}

	s.hub.Join(c, channelID)
	c.Session.Join(channelID)
	telemetry.Inc(telemetry.JoinsTotal)

	// Store failures below are logged no-ops: the connection stays joined and
	// live delivery keeps working.
	if err := s.presence.Increment(ctx, channelID, p.IdentityID); err == nil {
		l := log.Ctx(ctx)
		l.Debug().Str(log.FieldChannelID, channelID).Str(log.FieldIdentityID, p.IdentityID).Msg("presence incremented")
	}

	// Deliver the recent history window to the joining connection only.
	recent, err := s.history.Recent(ctx, channelID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("history fetch failed, joining without history")
	} else if len(recent) > 0 {
		frame, err := domain.NewChatFrame(recent)
		if err == nil {
			c.SendFrame(frame)
		}
	}

	// Compaction never blocks the join.
	go func() {
		cctx, cancel := context.WithTimeout(context.Background(), compactTimeout)
		defer cancel()
		if err := s.history.CompactIfNeeded(cctx, channelID); err != nil {
			l := log.L()
			l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("history compaction failed")
		}
	}()

	return nil
}

func (s *chatService) HandlePublish(ctx context.Context, c *hub.Client, content string) error {
	if !c.Session.IsJoined() {
		return nil
	}

	p := c.Session.Participant()
	if p == nil {
		return nil
	}

	// Unauthenticated publishes are dropped before any side effect: no
	// broadcast, no history append, no reply. Policy, not an error.
	if !p.Authenticated {
		telemetry.Inc(telemetry.MessagesDroppedUnauth)
		return nil
	}

	channelID := c.Session.ChannelID()

	msg := &domain.ChatMessage{
		Content:           content,
		AuthorIdentityID:  p.IdentityID,
		AuthorDisplayName: p.DisplayName,
		Timestamp:         time.Now().UTC(),
	}

	raw, err := msg.Encode()
	if err != nil {
		return err
	}

	s.broadcast(ctx, channelID, raw)
	return nil
}

// broadcast fans a serialized message out to the channel's subscribers and
// appends it to history. The two legs fail independently: a store outage
// never suppresses live delivery, and a delivery problem never skips the
// append.
func (s *chatService) broadcast(ctx context.Context, channelID, raw string) {
	frame, err := domain.NewChatFrame([]string{raw})
	if err == nil {
		s.hub.Broadcast(channelID, frame)
		telemetry.Inc(telemetry.MessagesBroadcast)
	}

	s.history.Append(ctx, channelID, raw)
}

func (s *chatService) HandleLeave(ctx context.Context, c *hub.Client) error {
	if !c.Session.IsJoined() {
		return nil
	}
	return s.leaveCurrent(ctx, c)
}

func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	if c.Session.State() == domain.StateClosed {
		return nil
	}

	var err error
	if c.Session.IsJoined() {
		err = s.leaveCurrent(ctx, c)
	}
	c.Session.Close()
	return err
}

func (s *chatService) leaveCurrent(ctx context.Context, c *hub.Client) error {
	channelID := c.Session.ChannelID()
	if channelID == "" {
		return nil
	}

	s.hub.Leave(c, channelID)
	c.Session.Leave()

	p := c.Session.Participant()
	if p == nil {
		return nil
	}
	return s.presence.Decrement(ctx, channelID, p.IdentityID)
}
