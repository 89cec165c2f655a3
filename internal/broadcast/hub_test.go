package broadcast

import (
	"testing"
)

// recordingSub captures delivered payloads.
type recordingSub struct {
	payloads [][]byte
}

func (s *recordingSub) Send(payload []byte) {
	s.payloads = append(s.payloads, payload)
}

func TestHub_EmitReachesOnlyChannelMembers(t *testing.T) {
	hub := NewHub(nil)

	subA := &recordingSub{}
	subB := &recordingSub{}

	hub.Subscribe(TokenChannel("ADDR_A"), subA)
	hub.Subscribe(TokenChannel("ADDR_B"), subB)

	hub.Emit(TokenChannel("ADDR_A"), []byte(`{"event":"price_update"}`))

	if len(subA.payloads) != 1 {
		t.Errorf("expected 1 payload for ADDR_A subscriber, got %d", len(subA.payloads))
	}
	if len(subB.payloads) != 0 {
		t.Errorf("expected 0 payloads for ADDR_B subscriber, got %d", len(subB.payloads))
	}
}

func TestHub_NoQueueingForLateJoiners(t *testing.T) {
	hub := NewHub(nil)

	hub.Emit(ChannelNewTokens, []byte(`{"event":"token_created"}`))

	late := &recordingSub{}
	hub.Subscribe(ChannelNewTokens, late)

	if len(late.payloads) != 0 {
		t.Errorf("late joiner should receive nothing, got %d payloads", len(late.payloads))
	}

	hub.Emit(ChannelNewTokens, []byte(`{"event":"token_created"}`))
	if len(late.payloads) != 1 {
		t.Errorf("expected 1 payload after joining, got %d", len(late.payloads))
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(nil)

	sub := &recordingSub{}
	hub.Subscribe(ChannelTrades, sub)
	hub.Unsubscribe(ChannelTrades, sub)

	hub.Emit(ChannelTrades, []byte(`{}`))

	if len(sub.payloads) != 0 {
		t.Errorf("unsubscribed observer received %d payloads", len(sub.payloads))
	}
	if n := hub.SubscriberCount(ChannelTrades); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestHub_DropRemovesFromAllChannels(t *testing.T) {
	hub := NewHub(nil)

	sub := &recordingSub{}
	other := &recordingSub{}
	hub.Subscribe(ChannelTrades, sub)
	hub.Subscribe(ChannelTrending, sub)
	hub.Subscribe(TokenChannel("MINT1"), sub)
	hub.Subscribe(ChannelTrades, other)

	hub.Drop(sub)

	hub.Emit(ChannelTrades, []byte(`{}`))
	hub.Emit(ChannelTrending, []byte(`{}`))
	hub.Emit(TokenChannel("MINT1"), []byte(`{}`))

	if len(sub.payloads) != 0 {
		t.Errorf("dropped observer received %d payloads", len(sub.payloads))
	}
	if len(other.payloads) != 1 {
		t.Errorf("remaining observer expected 1 payload, got %d", len(other.payloads))
	}
}

func TestHub_DeliveryOrderMatchesEmissionOrder(t *testing.T) {
	hub := NewHub(nil)

	sub := &recordingSub{}
	hub.Subscribe(ChannelTrades, sub)

	hub.Emit(ChannelTrades, []byte("first"))
	hub.Emit(ChannelTrades, []byte("second"))
	hub.Emit(ChannelTrades, []byte("third"))

	want := []string{"first", "second", "third"}
	if len(sub.payloads) != len(want) {
		t.Fatalf("expected %d payloads, got %d", len(want), len(sub.payloads))
	}
	for i, w := range want {
		if string(sub.payloads[i]) != w {
			t.Errorf("payload %d: expected %q, got %q", i, w, sub.payloads[i])
		}
	}
}

func TestHub_DuplicateSubscribeIsNoOp(t *testing.T) {
	hub := NewHub(nil)

	sub := &recordingSub{}
	hub.Subscribe(ChannelTrades, sub)
	hub.Subscribe(ChannelTrades, sub)

	hub.Emit(ChannelTrades, []byte(`{}`))

	if len(sub.payloads) != 1 {
		t.Errorf("expected single delivery, got %d", len(sub.payloads))
	}
}
