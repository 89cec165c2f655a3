package gateway

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"launchpad-indexer/internal/broadcast"
)

type wsFixture struct {
	hub    *broadcast.Hub
	server *httptest.Server
	conn   *websocket.Conn
}

func dialWS(t *testing.T) *wsFixture {
	t.Helper()

	hub := broadcast.NewHub(nil)
	srv := NewServer(ServerConfig{
		Addr:    "127.0.0.1:0",
		Rewards: &stubRewards{},
		Sweeper: &stubSweeper{},
		Hub:     hub,
		Watcher: &stubStatus{},
	})
	ts := httptest.NewServer(srv.Handler())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial %s: %v", url, err)
	}

	t.Cleanup(func() {
		conn.Close()
		ts.Close()
	})
	return &wsFixture{hub: hub, server: ts, conn: conn}
}

func (f *wsFixture) send(t *testing.T, msg clientMessage) {
	t.Helper()
	if err := f.conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (f *wsFixture) read(t *testing.T) map[string]any {
	t.Helper()
	_ = f.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := f.conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return decoded
}

// waitForMembers polls until the channel has the expected member count.
// Subscription happens on the server goroutine after the ack is written.
func (f *wsFixture) waitForMembers(t *testing.T, channel string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.hub.SubscriberCount(channel) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel %s members = %d, want %d", channel, f.hub.SubscriberCount(channel), want)
}

func TestWSSubscribeAck(t *testing.T) {
	f := dialWS(t)

	f.send(t, clientMessage{Action: "subscribe", Channel: "new_tokens"})
	ack := f.read(t)
	if ack["event"] != "subscribed" || ack["channel"] != "new_tokens" {
		t.Fatalf("ack = %v", ack)
	}
	f.waitForMembers(t, broadcast.ChannelNewTokens, 1)
}

func TestWSReceivesEmittedEvents(t *testing.T) {
	f := dialWS(t)

	f.send(t, clientMessage{Action: "subscribe", Channel: "trades"})
	if ack := f.read(t); ack["event"] != "subscribed" {
		t.Fatalf("ack = %v", ack)
	}
	f.waitForMembers(t, broadcast.ChannelTrades, 1)

	f.hub.Emit(broadcast.ChannelTrades, []byte(`{"event":"trade","token_address":"tok1"}`))
	msg := f.read(t)
	if msg["event"] != "trade" || msg["token_address"] != "tok1" {
		t.Fatalf("event = %v", msg)
	}
}

func TestWSTokenChannelRequiresAddress(t *testing.T) {
	f := dialWS(t)

	f.send(t, clientMessage{Action: "subscribe", Channel: "token"})
	if msg := f.read(t); msg["event"] != "error" {
		t.Fatalf("expected error, got %v", msg)
	}

	f.send(t, clientMessage{Action: "subscribe", Channel: "token", TokenAddress: "tok1"})
	ack := f.read(t)
	if ack["event"] != "subscribed" || ack["token_address"] != "tok1" {
		t.Fatalf("ack = %v", ack)
	}
	f.waitForMembers(t, broadcast.TokenChannel("tok1"), 1)
}

func TestWSUnsubscribeStopsDelivery(t *testing.T) {
	f := dialWS(t)

	f.send(t, clientMessage{Action: "subscribe", Channel: "trending"})
	if ack := f.read(t); ack["event"] != "subscribed" {
		t.Fatalf("ack = %v", ack)
	}
	f.waitForMembers(t, broadcast.ChannelTrending, 1)

	f.send(t, clientMessage{Action: "unsubscribe", Channel: "trending"})
	if ack := f.read(t); ack["event"] != "unsubscribed" {
		t.Fatalf("ack = %v", ack)
	}
	f.waitForMembers(t, broadcast.ChannelTrending, 0)
}

func TestWSUnknownActionRejected(t *testing.T) {
	f := dialWS(t)

	f.send(t, clientMessage{Action: "listen", Channel: "trades"})
	if msg := f.read(t); msg["event"] != "error" {
		t.Fatalf("expected error, got %v", msg)
	}
}

func TestWSDisconnectDropsMembership(t *testing.T) {
	f := dialWS(t)

	f.send(t, clientMessage{Action: "subscribe", Channel: "new_tokens"})
	if ack := f.read(t); ack["event"] != "subscribed" {
		t.Fatalf("ack = %v", ack)
	}
	f.waitForMembers(t, broadcast.ChannelNewTokens, 1)

	f.conn.Close()
	f.waitForMembers(t, broadcast.ChannelNewTokens, 0)
}
