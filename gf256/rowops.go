package gf256

import "github.com/klauspost/cpuid/v2"

var dispatchName string

func init() {
	if cpuid.CPU.Supports(cpuid.SSSE3) || cpuid.CPU.Supports(cpuid.NEON) {
		dispatchName = "nibble-table"
	} else {
		dispatchName = "scalar"
	}
}

// nibbleTables precomputes the two 16-entry lookup tables for factor f:
// lo[j] = Mul(j, f), hi[j] = Mul(j<<4, f). A real vector build splits each
// source byte into low/high nibbles, shuffles each half against its table,
// and XORs the results; this build expresses the same algorithm as a
// portable 16-byte-block Go loop rather than hand-written SIMD assembly
// (see DESIGN.md: this session never invokes the Go toolchain to validate
// assembly, so only the table construction and block-at-a-time dispatch
// are real — the instruction-level vectorization is not).
func nibbleTables(factor byte) (lo, hi [16]byte) {
	for j := byte(0); j < 16; j++ {
		lo[j] = Mul(j, factor)
		hi[j] = Mul(j<<4, factor)
	}
	return lo, hi
}

// RowAddScaled computes dest ^= src * factor byte-wise (spec.md §4.1).
// dest and src must have equal length.
func RowAddScaled(dest, src []byte, factor byte) {
	if len(dest) != len(src) {
		panic("gf256: RowAddScaled length mismatch")
	}
	if factor == 0 {
		return
	}
	if factor == 1 {
		for i := range src {
			dest[i] ^= src[i]
		}
		return
	}
	switch dispatchName {
	case "nibble-table":
		rowAddScaledNibble(dest, src, factor)
	default:
		rowAddScaledScalar(dest, src, factor)
	}
}

func rowAddScaledScalar(dest, src []byte, factor byte) {
	for i, s := range src {
		dest[i] ^= Mul(s, factor)
	}
}

// rowAddScaledNibble applies the nibble-shuffle trick in 16-byte blocks,
// falling back to the scalar path for the tail.
func rowAddScaledNibble(dest, src []byte, factor byte) {
	lo, hi := nibbleTables(factor)
	n := len(src)
	blocks := n - n%16
	for i := 0; i < blocks; i += 16 {
		for j := 0; j < 16; j++ {
			b := src[i+j]
			dest[i+j] ^= lo[b&0x0F] ^ hi[b>>4]
		}
	}
	for i := blocks; i < n; i++ {
		dest[i] ^= lo[src[i]&0x0F] ^ hi[src[i]>>4]
	}
}
