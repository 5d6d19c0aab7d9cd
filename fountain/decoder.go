package fountain

import (
	"fmt"

	"github.com/duskwire/duskwire/gf256"
	"github.com/duskwire/duskwire/wire"
)

// decoderSlack is extra row capacity beyond L, absorbing redundant
// equations received after the system is already full-rank-eligible
// (spec.md §3: "Capacity is L + 8 rows").
const decoderSlack = 8

// Decoder accumulates equations for one generation and, once it holds L
// linearly-independent rows, recovers the original payload via Gaussian
// elimination (spec.md §4.6).
type Decoder struct {
	genID      uint16
	symbolSize int
	k          int
	l          int
	capacity   int

	coeffs *gf256.Matrix // capacity x l
	data   [][]byte      // capacity rows, each symbolSize bytes
	count  int
	seen   map[uint32]bool
	solved bool
	result []byte
}

// NewDecoder constructs a decoder for (K, symbolSize, genID) and loads the
// S LDPC constraint rows immediately.
func NewDecoder(genID uint16, k, symbolSize int) (*Decoder, error) {
	if k <= 0 || k > MaxK {
		return nil, wire.Errf(wire.KindInvalidState, "fountain.NewDecoder", fmt.Errorf("invalid K=%d", k))
	}
	if symbolSize <= 0 {
		return nil, wire.Errf(wire.KindInvalidState, "fountain.NewDecoder", fmt.Errorf("symbolSize must be positive"))
	}
	l := k + LDPCOverhead
	capacity := l + decoderSlack

	d := &Decoder{
		genID:      genID,
		symbolSize: symbolSize,
		k:          k,
		l:          l,
		capacity:   capacity,
		coeffs:     gf256.NewMatrix(capacity, l),
		data:       make([][]byte, capacity),
		seen:       make(map[uint32]bool),
	}
	for i := 0; i < capacity; i++ {
		d.data[i] = make([]byte, symbolSize)
	}

	for i := 0; i < LDPCOverhead; i++ {
		p := k + i
		row := d.coeffs.Row(i)
		row[p] = 1
		mask := neighborMask(genID, k, i)
		for j, on := range mask {
			if on {
				row[j] = 1
			}
		}
		// RHS is the zero symbol — d.data[i] is already zeroed.
	}
	d.count = LDPCOverhead

	return d, nil
}

// K returns the source-symbol count this decoder was constructed with.
func (d *Decoder) K() int { return d.k }

// Solved reports whether the payload has been recovered.
func (d *Decoder) Solved() bool { return d.solved }

// ReceiveSymbol absorbs one symbol. On the packet that completes a
// full-rank system, it returns the recovered payload as K*symbolSize
// bytes, including the encoder's zero padding (the codec only knows
// symbol-sized chunks; trimming to the original length is the caller's
// job). On a singular system it
// returns (nil, false, nil): "no result yet", not an error
// (spec.md §7). On any other failure it returns a non-nil error.
func (d *Decoder) ReceiveSymbol(genID uint16, symbolID uint32, payload []byte) ([]byte, bool, error) {
	if genID != d.genID {
		return nil, false, wire.Errf(wire.KindInvalidState, "fountain.ReceiveSymbol", fmt.Errorf("generation mismatch"))
	}
	if d.seen[symbolID] {
		return nil, false, nil
	}
	if d.count >= d.capacity {
		return nil, false, wire.Errf(wire.KindInvalidState, "fountain.ReceiveSymbol", fmt.Errorf("decoder matrix full"))
	}
	if len(payload) != d.symbolSize {
		return nil, false, wire.Errf(wire.KindWireFormatError, "fountain.ReceiveSymbol", fmt.Errorf("payload size %d != symbol size %d", len(payload), d.symbolSize))
	}

	row := d.coeffs.Row(d.count)
	if symbolID < uint32(d.k) {
		row[symbolID] = 1
	} else {
		copy(row, coeffRow(uint64(symbolID), d.l))
	}
	copy(d.data[d.count], payload)
	d.seen[symbolID] = true
	d.count++

	if d.solved {
		return d.result, true, nil
	}
	if d.count < d.l {
		return nil, false, nil
	}

	recovered, ok, err := d.tryEliminate()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	d.solved = true
	d.result = recovered
	return recovered, true, nil
}

// tryEliminate runs Gaussian elimination on the first d.count rows against
// the payload data, pivoting the coefficient matrix and applying the same
// row operations to the payload matrix concurrently (spec.md §4.6).
func (d *Decoder) tryEliminate() ([]byte, bool, error) {
	n := d.count
	l := d.l
	coeffs := gf256.NewMatrix(n, l)
	for r := 0; r < n; r++ {
		copy(coeffs.Row(r), d.coeffs.Row(r))
	}
	data := make([][]byte, n)
	for r := 0; r < n; r++ {
		data[r] = append([]byte(nil), d.data[r]...)
	}

	pivotRow := make([]int, l) // pivotRow[col] = row holding the pivot for col, or -1
	for i := range pivotRow {
		pivotRow[i] = -1
	}

	row := 0
	for col := 0; col < l && row < n; col++ {
		pivot := -1
		for r := row; r < n; r++ {
			if coeffs.Get(r, col) != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			continue // no pivot for this column yet — rank deficient so far
		}
		if pivot != row {
			swapRows(coeffs, data, pivot, row)
		}

		inv := gf256.Invert(coeffs.Get(row, col))
		scaleRow(coeffs, data, row, inv)

		for r := 0; r < n; r++ {
			if r == row {
				continue
			}
			factor := coeffs.Get(r, col)
			if factor == 0 {
				continue
			}
			gf256.RowAddScaled(coeffs.Row(r), coeffs.Row(row), factor)
			gf256.RowAddScaled(data[r], data[row], factor)
		}
		pivotRow[col] = row
		row++
	}

	if row < l {
		return nil, false, nil // singular: rank < L, await more packets
	}

	out := make([]byte, 0, d.k*d.symbolSize)
	for col := 0; col < d.k; col++ {
		r := pivotRow[col]
		if r == -1 {
			return nil, false, nil
		}
		out = append(out, data[r]...)
	}
	return out, true, nil
}

func swapRows(coeffs *gf256.Matrix, data [][]byte, a, b int) {
	ra, rb := coeffs.Row(a), coeffs.Row(b)
	for i := range ra {
		ra[i], rb[i] = rb[i], ra[i]
	}
	data[a], data[b] = data[b], data[a]
}

func scaleRow(coeffs *gf256.Matrix, data [][]byte, r int, factor byte) {
	row := coeffs.Row(r)
	for i := range row {
		row[i] = gf256.Mul(row[i], factor)
	}
	d := data[r]
	for i := range d {
		d[i] = gf256.Mul(d[i], factor)
	}
}
