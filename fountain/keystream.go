// Package fountain implements the systematic fountain codec (spec.md
// §4.5/§4.6): source symbols pass through unmodified (systematic phase),
// repair symbols are random linear combinations of LDPC-augmented
// intermediate symbols, and the decoder recovers the original payload via
// Gaussian elimination once it has accumulated L linearly-independent
// equations.
package fountain

import "encoding/binary"

// LDPCOverhead (S) is the fixed number of parity rows the precode adds.
const LDPCOverhead = 8

// MaxK is the hard cap on source-symbol count. The wire's reserved byte
// can only carry up to 255 (spec.md §9: tightened from the 256 mentioned
// in spec.md §4.5, since the wire cannot represent 256).
const MaxK = 255

// keystream expands a 64-bit seed into an n-byte pseudorandom stream using
// a simple counter-mode construction over FNV-1a mixing. Both the encoder
// and decoder call this with identical seeds and must therefore produce
// identical streams — this is not a cryptographic primitive, only a
// reproducible coefficient/neighbor-selection source.
func keystream(seed uint64, n int) []byte {
	out := make([]byte, n)
	var counter uint64
	var block [8]byte
	for i := 0; i < n; i += 8 {
		h := seed
		binary.LittleEndian.PutUint64(block[:], counter)
		for _, b := range block {
			h ^= uint64(b)
			h *= 0x100000001b3
		}
		binary.LittleEndian.PutUint64(block[:], h)
		copy(out[i:], block[:])
		counter++
	}
	return out
}

// neighborSeed builds the seed for parity row i's neighbor set:
// (gen_id << 16) | (K + i), per spec.md §4.5.
func neighborSeed(genID uint16, k, i int) uint64 {
	return (uint64(genID) << 16) | uint64(k+i)
}

// neighborMask returns, for parity index i, a K-length boolean mask: true
// where the neighbor keystream byte's high bit is set (the 50%-density
// subset, spec.md §4.5).
func neighborMask(genID uint16, k, i int) []bool {
	ks := keystream(neighborSeed(genID, k, i), k)
	mask := make([]bool, k)
	for j, b := range ks {
		mask[j] = b&0x80 != 0
	}
	return mask
}

// coeffRow returns the L-length coefficient row for a repair symbol with
// the given cursor/symbol id used as seed, per spec.md §4.5/§4.6.
func coeffRow(seed uint64, l int) []byte {
	return keystream(seed, l)
}
