package fountain

import (
	"fmt"

	"github.com/duskwire/duskwire/gf256"
	"github.com/duskwire/duskwire/wire"
)

// Encoder produces systematic symbols followed by unbounded repair
// symbols for one generation's payload (spec.md §4.5).
type Encoder struct {
	genID      uint16
	symbolSize int
	k          int
	l          int
	intermed   [][]byte // L symbols, each symbolSize bytes
	cursor     uint32
}

// NewEncoder builds an encoder for payload under the given generation id
// and symbol size. K = ceil(len/symbolSize); rejects K > MaxK.
func NewEncoder(genID uint16, payload []byte, symbolSize int) (*Encoder, error) {
	if symbolSize <= 0 {
		return nil, wire.Errf(wire.KindInvalidState, "fountain.NewEncoder", fmt.Errorf("symbolSize must be positive"))
	}
	k := (len(payload) + symbolSize - 1) / symbolSize
	if k == 0 {
		k = 1
	}
	if k > MaxK {
		return nil, wire.Errf(wire.KindInvalidState, "fountain.NewEncoder", fmt.Errorf("K=%d exceeds MaxK=%d", k, MaxK))
	}
	l := k + LDPCOverhead

	intermed := make([][]byte, l)
	for i := 0; i < k; i++ {
		sym := make([]byte, symbolSize)
		start := i * symbolSize
		end := start + symbolSize
		if end > len(payload) {
			end = len(payload)
		}
		if start < len(payload) {
			copy(sym, payload[start:end])
		}
		intermed[i] = sym
	}
	for i := 0; i < LDPCOverhead; i++ {
		parity := make([]byte, symbolSize)
		mask := neighborMask(genID, k, i)
		for j, on := range mask {
			if on {
				gf256.RowAddScaled(parity, intermed[j], 1)
			}
		}
		intermed[k+i] = parity
	}

	return &Encoder{
		genID:      genID,
		symbolSize: symbolSize,
		k:          k,
		l:          l,
		intermed:   intermed,
		cursor:     0,
	}, nil
}

// K returns the source-symbol count for this generation.
func (e *Encoder) K() int { return e.k }

// GenID returns this encoder's generation id.
func (e *Encoder) GenID() uint16 { return e.genID }

// Done reports whether the encoder has emitted every systematic symbol at
// least once (repair symbols are unbounded, so callers decide when to stop
// pumping an encoder independent of Done).
func (e *Encoder) Done() bool {
	return int(e.cursor) >= e.k
}

// reservedByte saturates K at 255 for the header's reserved field.
func (e *Encoder) reservedByte() uint8 {
	if e.k > 255 {
		return 255
	}
	return uint8(e.k)
}

// NextPacket emits the symbol at the current cursor, then advances it.
// Returns the header fields (type, symbol id, reserved=K) and the payload
// bytes to encrypt and send.
func (e *Encoder) NextPacket() (symbolID uint32, typ wire.Type, payload []byte, reserved uint8) {
	id := e.cursor
	e.cursor++

	if id < uint32(e.k) {
		out := make([]byte, e.symbolSize)
		copy(out, e.intermed[id])
		return id, wire.TypeData, out, e.reservedByte()
	}

	coeffs := coeffRow(uint64(id), e.l)
	out := make([]byte, e.symbolSize)
	for i := 0; i < e.l; i++ {
		if coeffs[i] == 0 {
			continue
		}
		gf256.RowAddScaled(out, e.intermed[i], coeffs[i])
	}
	return id, wire.TypeCoded, out, e.reservedByte()
}
