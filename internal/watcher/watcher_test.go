package watcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/events"
	"launchpad-indexer/internal/solana"
)

// gradLog builds one graduation "Program data:" line for fixtures.
func gradLog(ts int64) string {
	var buf bytes.Buffer
	buf.Write([]byte{95, 114, 97, 156, 212, 46, 152, 8}) // graduation discriminator
	buf.Write(make([]byte, 32))                          // mint
	buf.Write(make([]byte, 32))                          // pool
	var t [8]byte
	binary.LittleEndian.PutUint64(t[:], uint64(ts))
	buf.Write(t[:])
	return "Program data: " + base64.StdEncoding.EncodeToString(buf.Bytes())
}

const (
	testProgram   = "Prog1111111111111111111111111111111111111111"
	testDeployKey = "Dep11111111111111111111111111111111111111111"
)

// stubWS feeds notifications through a test-owned channel.
type stubWS struct {
	ch chan solana.LogNotification
}

func newStubWS() *stubWS {
	return &stubWS{ch: make(chan solana.LogNotification, 16)}
}

func (s *stubWS) SubscribeLogs(ctx context.Context, filter solana.LogsFilter) (<-chan solana.LogNotification, error) {
	return s.ch, nil
}

func (s *stubWS) Close() error {
	close(s.ch)
	return nil
}

// stubRPC serves canned transactions by signature.
type stubRPC struct {
	mu  sync.Mutex
	txs map[string]*solana.Transaction
	err error
}

func (s *stubRPC) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubRPC) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.txs[signature], nil
}

func (s *stubRPC) GetSlot(ctx context.Context) (int64, error)              { return 0, nil }
func (s *stubRPC) GetBalance(ctx context.Context, _ string) (uint64, error) { return 0, nil }
func (s *stubRPC) GetLatestBlockhash(ctx context.Context) (string, error)  { return "", nil }
func (s *stubRPC) SendTransaction(ctx context.Context, _ string) (string, error) {
	return "", nil
}
func (s *stubRPC) GetSignatureStatuses(ctx context.Context, _ []string) ([]*solana.SignatureStatus, error) {
	return nil, nil
}

// recordingSink collects batches and signals each arrival.
type recordingSink struct {
	mu      sync.Mutex
	batches [][]domain.Event
	arrived chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{arrived: make(chan struct{}, 16)}
}

func (s *recordingSink) ApplyBatch(ctx context.Context, events []domain.Event) {
	s.mu.Lock()
	s.batches = append(s.batches, events)
	s.mu.Unlock()
	s.arrived <- struct{}{}
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *recordingSink) waitOne(t *testing.T) {
	t.Helper()
	select {
	case <-s.arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink delivery")
	}
}

func admittedTx() *solana.Transaction {
	return &solana.Transaction{
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testProgram, testDeployKey, "payer"},
		},
	}
}

func setup(t *testing.T, rpc *stubRPC) (*Watcher, *stubWS, *recordingSink) {
	t.Helper()

	ws := newStubWS()
	sink := newRecordingSink()
	w, err := New(Config{
		WS:        ws,
		RPC:       rpc,
		Parser:    events.NewParser(),
		Sink:      sink,
		ProgramID: testProgram,
		DeployKey: testDeployKey,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, ws, sink
}

func TestWatcher_AdmittedTransactionReachesSink(t *testing.T) {
	rpc := &stubRPC{txs: map[string]*solana.Transaction{"sig1": admittedTx()}}
	_, ws, sink := setup(t, rpc)

	ws.ch <- solana.LogNotification{
		Signature: "sig1",
		Slot:      100,
		Logs:      []string{gradLog(1700000000)},
	}

	sink.waitOne(t)
	if sink.count() != 1 {
		t.Fatalf("expected 1 batch, got %d", sink.count())
	}
}

func TestWatcher_FailedTransactionRejected(t *testing.T) {
	rpc := &stubRPC{txs: map[string]*solana.Transaction{"sig1": admittedTx()}}
	w, ws, sink := setup(t, rpc)

	ws.ch <- solana.LogNotification{
		Signature: "sig1",
		Slot:      100,
		Logs:      []string{gradLog(1700000000)},
		Err:       map[string]interface{}{"InstructionError": []interface{}{}},
	}

	waitIdle(t, w)
	if sink.count() != 0 {
		t.Fatalf("failed tx must not reach sink, got %d batches", sink.count())
	}
}

func TestWatcher_DuplicateSignatureRejected(t *testing.T) {
	rpc := &stubRPC{txs: map[string]*solana.Transaction{"sig1": admittedTx()}}
	w, ws, sink := setup(t, rpc)

	n := solana.LogNotification{
		Signature: "sig1",
		Slot:      100,
		Logs:      []string{gradLog(1700000000)},
	}
	ws.ch <- n
	sink.waitOne(t)
	ws.ch <- n

	waitIdle(t, w)
	if sink.count() != 1 {
		t.Fatalf("expected 1 batch after redelivery, got %d", sink.count())
	}
}

func TestWatcher_ForeignDeploymentRejected(t *testing.T) {
	foreign := &solana.Transaction{
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testProgram, "SomeOtherDeployer", "payer"},
		},
	}
	rpc := &stubRPC{txs: map[string]*solana.Transaction{"sig1": foreign}}
	w, ws, sink := setup(t, rpc)

	ws.ch <- solana.LogNotification{
		Signature: "sig1",
		Slot:      100,
		Logs:      []string{gradLog(1700000000)},
	}

	waitIdle(t, w)
	if sink.count() != 0 {
		t.Fatalf("foreign deployment must not reach sink, got %d batches", sink.count())
	}
}

func TestWatcher_FetchFailureRejected(t *testing.T) {
	rpc := &stubRPC{err: errors.New("rpc unavailable")}
	w, ws, sink := setup(t, rpc)

	ws.ch <- solana.LogNotification{
		Signature: "sig1",
		Slot:      100,
		Logs:      []string{gradLog(1700000000)},
	}

	waitIdle(t, w)
	if sink.count() != 0 {
		t.Fatalf("fetch failure must reject, got %d batches", sink.count())
	}
}

func TestWatcher_FetchFailureThenRedeliveryAdmitted(t *testing.T) {
	rpc := &stubRPC{
		txs: map[string]*solana.Transaction{"sig1": admittedTx()},
		err: errors.New("rpc unavailable"),
	}
	w, ws, sink := setup(t, rpc)

	n := solana.LogNotification{
		Signature: "sig1",
		Slot:      100,
		Logs:      []string{gradLog(1700000000)},
	}
	ws.ch <- n
	waitIdle(t, w)
	if sink.count() != 0 {
		t.Fatalf("fetch failure must reject, got %d batches", sink.count())
	}

	// The RPC recovers and the chain redelivers the same signature. The
	// earlier fetch failure must not count as a seen duplicate.
	rpc.setErr(nil)
	ws.ch <- n

	sink.waitOne(t)
	if sink.count() != 1 {
		t.Fatalf("expected 1 batch after redelivery, got %d", sink.count())
	}
}

func TestWatcher_StreamClosureMarksInactive(t *testing.T) {
	rpc := &stubRPC{txs: map[string]*solana.Transaction{}}
	w, ws, _ := setup(t, rpc)

	close(ws.ch)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !w.Status().Running {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("watcher still reports running after its stream closed")
}

func TestWatcher_StartIdempotent(t *testing.T) {
	rpc := &stubRPC{txs: map[string]*solana.Transaction{}}
	w, _, _ := setup(t, rpc)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("second start should no-op, got %v", err)
	}
	if !w.Status().Running {
		t.Fatal("watcher should still be running")
	}
}

func TestWatcher_StatusTracksSlot(t *testing.T) {
	rpc := &stubRPC{txs: map[string]*solana.Transaction{"sig1": admittedTx()}}
	w, ws, sink := setup(t, rpc)

	ws.ch <- solana.LogNotification{
		Signature: "sig1",
		Slot:      4242,
		Logs:      []string{gradLog(1700000000)},
	}
	sink.waitOne(t)

	if got := w.Status().LastSlot; got != 4242 {
		t.Errorf("expected last slot 4242, got %d", got)
	}

	w.Stop()
	if w.Status().Running {
		t.Error("watcher should report stopped")
	}
}

// waitIdle gives in-flight notification goroutines time to settle when no
// sink delivery is expected.
func waitIdle(t *testing.T, w *Watcher) {
	t.Helper()
	time.Sleep(100 * time.Millisecond)
	_ = w
}
