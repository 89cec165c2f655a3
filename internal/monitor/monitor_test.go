package monitor

import (
	"context"
	"errors"
	"testing"

	"launchpad-indexer/internal/solana"
)

type stubRPC struct {
	slot int64
	err  error
}

func (s *stubRPC) GetTransaction(ctx context.Context, _ string) (*solana.Transaction, error) {
	return nil, nil
}
func (s *stubRPC) GetSlot(ctx context.Context) (int64, error)               { return s.slot, s.err }
func (s *stubRPC) GetBalance(ctx context.Context, _ string) (uint64, error) { return 0, nil }
func (s *stubRPC) GetLatestBlockhash(ctx context.Context) (string, error)   { return "", nil }
func (s *stubRPC) SendTransaction(ctx context.Context, _ string) (string, error) {
	return "", nil
}
func (s *stubRPC) GetSignatureStatuses(ctx context.Context, _ []string) ([]*solana.SignatureStatus, error) {
	return nil, nil
}

type fixedSource int64

func (f fixedSource) LastSlot() int64 { return int64(f) }

func TestMonitor_CheckReportsLag(t *testing.T) {
	m := New(&stubRPC{slot: 1500}, fixedSource(1400), nil, nil, 0)

	if lag := m.Check(context.Background()); lag != 100 {
		t.Errorf("expected lag 100, got %d", lag)
	}
}

func TestMonitor_CheckClampsNegativeLag(t *testing.T) {
	// Subscription slightly ahead of the polled head is not a lag.
	m := New(&stubRPC{slot: 1400}, fixedSource(1410), nil, nil, 0)

	if lag := m.Check(context.Background()); lag != 0 {
		t.Errorf("expected lag 0, got %d", lag)
	}
}

func TestMonitor_CheckSurvivesRPCFailure(t *testing.T) {
	m := New(&stubRPC{err: errors.New("rpc down")}, fixedSource(100), nil, nil, 0)

	if lag := m.Check(context.Background()); lag != -1 {
		t.Errorf("expected -1 on failure, got %d", lag)
	}
}
