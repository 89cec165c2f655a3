package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"launchpad-indexer/internal/broadcast"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second

	// Outbound buffer per client. A client that cannot drain this many
	// events is disconnected rather than allowed to stall the hub.
	wsSendBuffer = 256

	maxInboundBytes = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientMessage is the inbound subscription protocol.
type clientMessage struct {
	Action       string `json:"action"`
	Channel      string `json:"channel"`
	TokenAddress string `json:"token_address,omitempty"`
}

type ackMessage struct {
	Event        string `json:"event"`
	Channel      string `json:"channel"`
	TokenAddress string `json:"token_address,omitempty"`
}

// wsClient is one connected observer. Send never blocks the hub: events
// queue into the buffered channel and the client is dropped on overflow.
type wsClient struct {
	conn   *websocket.Conn
	hub    *broadcast.Hub
	send   chan []byte
	done   chan struct{}
	logger *zap.Logger
}

// Send implements broadcast.Subscriber.
func (c *wsClient) Send(payload []byte) {
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		c.logger.Warn("slow websocket client, dropping connection")
		c.close()
	}
}

func (c *wsClient) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn:   conn,
		hub:    s.cfg.Hub,
		send:   make(chan []byte, wsSendBuffer),
		done:   make(chan struct{}),
		logger: s.logger.With(zap.String("remote", conn.RemoteAddr().String())),
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.WSClientsConnected.Inc()
	}
	s.logger.Debug("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go client.writePump()
	client.readPump()

	s.cfg.Hub.Drop(client)
	client.close()
	_ = conn.Close()
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.WSClientsConnected.Dec()
	}
	s.logger.Debug("websocket client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (c *wsClient) readPump() {
	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handle(msg)
	}
}

func (c *wsClient) handle(msg clientMessage) {
	channel, ok := resolveChannel(msg)
	if !ok {
		c.sendError("unknown channel")
		return
	}

	switch msg.Action {
	case "subscribe":
		c.hub.Subscribe(channel, c)
		c.ack("subscribed", msg)
	case "unsubscribe":
		c.hub.Unsubscribe(channel, c)
		c.ack("unsubscribed", msg)
	default:
		c.sendError("unknown action")
	}
}

// resolveChannel maps the wire channel name to a hub channel key. The
// "token" channel requires a token address; the rest are global.
func resolveChannel(msg clientMessage) (string, bool) {
	switch msg.Channel {
	case "token":
		if msg.TokenAddress == "" {
			return "", false
		}
		return broadcast.TokenChannel(msg.TokenAddress), true
	case broadcast.ChannelNewTokens, broadcast.ChannelTrades, broadcast.ChannelTrending:
		return msg.Channel, true
	default:
		return "", false
	}
}

func (c *wsClient) ack(event string, msg clientMessage) {
	payload, err := json.Marshal(ackMessage{
		Event:        event,
		Channel:      msg.Channel,
		TokenAddress: msg.TokenAddress,
	})
	if err != nil {
		return
	}
	c.Send(payload)
}

func (c *wsClient) sendError(msg string) {
	payload, err := json.Marshal(map[string]any{
		"event": "error",
		"error": msg,
	})
	if err != nil {
		return
	}
	c.Send(payload)
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			// Unblock readPump so the handler can clean up.
			_ = c.conn.Close()
			return
		}
	}
}
