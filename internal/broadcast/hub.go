// Package broadcast fans realtime events out to subscribed observers.
package broadcast

import (
	"sync"

	"go.uber.org/zap"
)

// Global channel keys. Asset-scoped channels use TokenChannel.
const (
	ChannelNewTokens = "new_tokens"
	ChannelTrades    = "trades"
	ChannelTrending  = "trending"
)

// TokenChannel returns the asset-scoped channel key for a token address.
func TokenChannel(tokenAddress string) string {
	return "token:" + tokenAddress
}

// Subscriber receives events for channels it is subscribed to. Send must
// not block indefinitely; slow consumers are the subscriber's problem.
type Subscriber interface {
	Send(payload []byte)
}

// Hub maintains channel membership and delivers emitted events to current
// members only. Events are never queued for later joiners. Per-channel
// delivery order matches emission order.
type Hub struct {
	mu sync.RWMutex
	// channels maps channel key to its member set.
	channels map[string]map[Subscriber]struct{}
	// membership is the reverse index used by Drop.
	membership map[Subscriber]map[string]struct{}

	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		channels:   make(map[string]map[Subscriber]struct{}),
		membership: make(map[Subscriber]map[string]struct{}),
		logger:     logger.Named("broadcast"),
	}
}

// Subscribe adds the subscriber to a channel. Subscribing twice is a no-op.
func (h *Hub) Subscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.channels[channel]
	if !ok {
		members = make(map[Subscriber]struct{})
		h.channels[channel] = members
	}
	members[sub] = struct{}{}

	joined, ok := h.membership[sub]
	if !ok {
		joined = make(map[string]struct{})
		h.membership[sub] = joined
	}
	joined[channel] = struct{}{}
}

// Unsubscribe removes the subscriber from one channel.
func (h *Hub) Unsubscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(channel, sub)
}

// Drop removes the subscriber from every channel it is in. Called on
// disconnect.
func (h *Hub) Drop(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range h.membership[sub] {
		h.removeLocked(channel, sub)
	}
}

func (h *Hub) removeLocked(channel string, sub Subscriber) {
	if members, ok := h.channels[channel]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	if joined, ok := h.membership[sub]; ok {
		delete(joined, channel)
		if len(joined) == 0 {
			delete(h.membership, sub)
		}
	}
}

// Emit delivers the payload to every current member of the channel.
func (h *Hub) Emit(channel string, payload []byte) {
	h.mu.RLock()
	members := make([]Subscriber, 0, len(h.channels[channel]))
	for sub := range h.channels[channel] {
		members = append(members, sub)
	}
	h.mu.RUnlock()

	for _, sub := range members {
		sub.Send(payload)
	}
}

// SubscriberCount returns the current member count of a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
