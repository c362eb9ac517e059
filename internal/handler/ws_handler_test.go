package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lumastream/chat-gateway/internal/config"
	"github.com/lumastream/chat-gateway/internal/domain"
	"github.com/lumastream/chat-gateway/internal/hub"
)

// fakeChatService records lifecycle calls and mimics the connect-time ack.
type fakeChatService struct {
	mu          sync.Mutex
	bearers     []string
	joins       []string
	publishes   []string
	leaves      int
	disconnects int
}

func (f *fakeChatService) HandleConnect(_ context.Context, c *hub.Client, bearer, _ string) {
	f.mu.Lock()
	f.bearers = append(f.bearers, bearer)
	f.mu.Unlock()
	if ack, err := domain.NewAuthAckFrame(); err == nil {
		c.SendFrame(ack)
	}
}

func (f *fakeChatService) HandleJoin(_ context.Context, _ *hub.Client, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, channelID)
	return nil
}

func (f *fakeChatService) HandlePublish(_ context.Context, _ *hub.Client, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes = append(f.publishes, content)
	return nil
}

func (f *fakeChatService) HandleLeave(context.Context, *hub.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves++
	return nil
}

func (f *fakeChatService) HandleDisconnect(context.Context, *hub.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeChatService) snapshot() fakeChatService {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeChatService{
		bearers:     append([]string(nil), f.bearers...),
		joins:       append([]string(nil), f.joins...),
		publishes:   append([]string(nil), f.publishes...),
		leaves:      f.leaves,
		disconnects: f.disconnects,
	}
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}
}

func startServer(t *testing.T) (*httptest.Server, *fakeChatService) {
	t.Helper()

	h := hub.NewHub(testWSConfig())
	go h.Run()

	fake := &fakeChatService{}
	wsHandler := NewWSHandler(h, fake, testWSConfig())

	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, fake
}

func dial(t *testing.T, srv *httptest.Server, header http.Header, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) domain.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame domain.Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func TestHandleWebSocket_AuthAckFirst(t *testing.T) {
	req := require.New(t)
	srv, fake := startServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer my-token")
	conn := dial(t, srv, header, "")

	frame := readFrame(t, conn)
	req.Equal(domain.EventAuth, frame.Event)

	req.Eventually(func() bool {
		s := fake.snapshot()
		return len(s.bearers) == 1 && s.bearers[0] == "my-token"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleWebSocket_TokenQueryFallback(t *testing.T) {
	req := require.New(t)
	srv, fake := startServer(t)

	conn := dial(t, srv, nil, "?token=query-token")
	readFrame(t, conn)

	req.Eventually(func() bool {
		s := fake.snapshot()
		return len(s.bearers) == 1 && s.bearers[0] == "query-token"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleFrame_Dispatch(t *testing.T) {
	req := require.New(t)
	srv, fake := startServer(t)

	conn := dial(t, srv, nil, "")
	readFrame(t, conn) // auth ack

	writeFrame(t, conn, `{"event":"join","data":{"channelId":"c1"}}`)
	writeFrame(t, conn, `{"event":"chat","data":"hello"}`)
	writeFrame(t, conn, `{"event":"leave"}`)

	req.Eventually(func() bool {
		s := fake.snapshot()
		return len(s.joins) == 1 && s.joins[0] == "c1" &&
			len(s.publishes) == 1 && s.publishes[0] == "hello" &&
			s.leaves == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleFrame_MalformedKeepsConnectionAlive(t *testing.T) {
	req := require.New(t)
	srv, fake := startServer(t)

	conn := dial(t, srv, nil, "")
	readFrame(t, conn) // auth ack

	// Unparseable frame: one error reply, connection survives.
	writeFrame(t, conn, `this is not json`)
	frame := readFrame(t, conn)
	req.Equal(domain.EventError, frame.Event)

	// Join without a channel id.
	writeFrame(t, conn, `{"event":"join","data":{}}`)
	frame = readFrame(t, conn)
	req.Equal(domain.EventError, frame.Event)

	// Chat payload of the wrong shape.
	writeFrame(t, conn, `{"event":"chat","data":{"nested":"object"}}`)
	frame = readFrame(t, conn)
	req.Equal(domain.EventError, frame.Event)

	// Unknown event.
	writeFrame(t, conn, `{"event":"dance"}`)
	frame = readFrame(t, conn)
	req.Equal(domain.EventError, frame.Event)

	// The connection is still usable.
	writeFrame(t, conn, `{"event":"ping"}`)
	frame = readFrame(t, conn)
	req.Equal(domain.EventPong, frame.Event)

	s := fake.snapshot()
	req.Empty(s.joins)
	req.Empty(s.publishes)
}

func TestDisconnect_InvokedOnClose(t *testing.T) {
	req := require.New(t)
	srv, fake := startServer(t)

	conn := dial(t, srv, nil, "")
	readFrame(t, conn)
	conn.Close()

	req.Eventually(func() bool {
		return fake.snapshot().disconnects == 1
	}, 2*time.Second, 10*time.Millisecond)
}
