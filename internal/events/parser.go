package events

import (
	"encoding/base64"
	"encoding/binary"
	"strings"

	"github.com/mr-tron/base58"

	"launchpad-indexer/internal/domain"
)

// programDataPrefix marks anchor-emitted event records in transaction logs.
const programDataPrefix = "Program data: "

// Event discriminators: first 8 bytes of sha256("event:<Name>").
var (
	discCreate   = [8]byte{27, 114, 169, 77, 222, 235, 99, 118}
	discTrade    = [8]byte{189, 219, 127, 211, 78, 230, 97, 238}
	discComplete = [8]byte{95, 114, 97, 156, 212, 46, 152, 8}
)

// Native currency and token amount scaling.
const (
	lamportsPerSol = 1_000_000_000
	tokenUnits     = 1_000_000 // launch tokens carry 6 decimals
)

// Parser decodes structured launch-program events from transaction logs.
// Each event is one base64 "Program data:" line: an 8-byte discriminator
// followed by a borsh-encoded payload. Unrecognized or malformed lines are
// skipped. The parser performs no I/O.
type Parser struct{}

// NewParser creates an event parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts events from one transaction's logs, in log order. Zero
// events is a valid outcome.
func (p *Parser) Parse(logs []string, txSig string, slot int64) []domain.Event {
	var events []domain.Event

	for _, log := range logs {
		encoded, ok := strings.CutPrefix(log, programDataPrefix)
		if !ok {
			continue
		}

		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(data) < 8 {
			continue
		}

		var disc [8]byte
		copy(disc[:], data[:8])
		payload := data[8:]

		var event domain.Event
		switch disc {
		case discCreate:
			event = decodeCreate(payload, txSig, slot)
		case discTrade:
			event = decodeTrade(payload, txSig, slot)
		case discComplete:
			event = decodeComplete(payload, txSig, slot)
		}

		if event != nil {
			events = append(events, event)
		}
	}

	return events
}

// decodeCreate decodes a token launch record:
// name, symbol, uri strings; mint, pool, fee vault, creator pubkeys;
// creator kind u8; timestamp i64.
func decodeCreate(payload []byte, txSig string, slot int64) domain.Event {
	r := reader{data: payload}

	name := r.string()
	symbol := r.string()
	r.string() // metadata URI, not persisted
	mint := r.pubkey()
	pool := r.pubkey()
	vault := r.pubkey()
	creator := r.pubkey()
	kind := r.byte()
	ts := r.int64()

	if r.failed {
		return nil
	}

	creatorKind := domain.CreatorKindHuman
	if kind == 1 {
		creatorKind = domain.CreatorKindAgent
	}

	return &domain.TokenCreatedEvent{
		Signature:    txSig,
		Slot:         slot,
		Timestamp:    ts * 1000,
		TokenAddress: mint,
		Name:         name,
		Symbol:       symbol,
		Creator:      creator,
		CreatorKind:  creatorKind,
		PoolAddress:  pool,
		VaultAddress: vault,
	}
}

// decodeTrade decodes a swap record:
// mint, pool, trader pubkeys; isBuy u8; sol amount u64 (lamports);
// token amount u64 (6 decimals); timestamp i64.
func decodeTrade(payload []byte, txSig string, slot int64) domain.Event {
	r := reader{data: payload}

	mint := r.pubkey()
	pool := r.pubkey()
	trader := r.pubkey()
	isBuy := r.byte()
	solRaw := r.uint64()
	tokenRaw := r.uint64()
	ts := r.int64()

	if r.failed {
		return nil
	}

	side := domain.TradeSideSell
	if isBuy == 1 {
		side = domain.TradeSideBuy
	}

	amountSol := float64(solRaw) / lamportsPerSol
	amountTokens := float64(tokenRaw) / tokenUnits

	var price float64
	if amountTokens > 0 {
		price = amountSol / amountTokens
	}

	return &domain.TradeEvent{
		Signature:    txSig,
		Slot:         slot,
		Timestamp:    ts * 1000,
		TokenAddress: mint,
		PoolAddress:  pool,
		Trader:       trader,
		Side:         side,
		AmountSol:    amountSol,
		AmountTokens: amountTokens,
		Price:        price,
	}
}

// decodeComplete decodes a graduation record: mint, pool pubkeys;
// timestamp i64.
func decodeComplete(payload []byte, txSig string, slot int64) domain.Event {
	r := reader{data: payload}

	mint := r.pubkey()
	pool := r.pubkey()
	ts := r.int64()

	if r.failed {
		return nil
	}

	return &domain.GraduationEvent{
		Signature:    txSig,
		Slot:         slot,
		Timestamp:    ts * 1000,
		TokenAddress: mint,
		PoolAddress:  pool,
	}
}

// reader is a cursor over a borsh payload. Once a read runs past the end,
// failed latches and every subsequent read returns a zero value.
type reader struct {
	data   []byte
	off    int
	failed bool
}

func (r *reader) take(n int) []byte {
	if r.failed || r.off+n > len(r.data) {
		r.failed = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) byte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) int64() int64 {
	return int64(r.uint64())
}

// string reads a u32-length-prefixed UTF-8 string.
func (r *reader) string() string {
	b := r.take(4)
	if b == nil {
		return ""
	}
	n := int(binary.LittleEndian.Uint32(b))
	if n > len(r.data)-r.off {
		r.failed = true
		return ""
	}
	return string(r.take(n))
}

// pubkey reads a 32-byte key and base58-encodes it.
func (r *reader) pubkey() string {
	b := r.take(32)
	if b == nil {
		return ""
	}
	return base58.Encode(b)
}
