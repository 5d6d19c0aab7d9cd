// Package gf256 implements GF(2^8) arithmetic over the AES polynomial
// 0x11B with generator 3, plus the bulk row operation the fountain
// codec and the all-or-nothing transform build on.
package gf256

// poly is the field-defining polynomial (x^8 + x^4 + x^3 + x + 1).
const poly = 0x11B

// generator is the primitive element used to build the log/exp tables.
const generator = 3

var expTable [512]byte // doubled so mul's table lookup never wraps
var logTable [256]byte

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		expTable[i] = x
		logTable[x] = byte(i)
		x = mulPoly(x, generator)
	}
	expTable[255] = 1
	for i := 255; i < 512; i++ {
		expTable[i] = expTable[i-255]
	}
}

// mulPoly multiplies a, b in GF(2^8) by the carry-less long-multiplication
// reduced modulo poly. Used only to bootstrap the log/exp tables.
func mulPoly(a, b byte) byte {
	var result byte
	for b != 0 {
		if b&1 != 0 {
			result ^= a
		}
		hi := a & 0x80
		a <<= 1
		if hi != 0 {
			a ^= byte(poly & 0xFF)
		}
		b >>= 1
	}
	return result
}

// Mul multiplies a and b using the exp/log tables. NOT constant-time —
// for bulk coding paths only (spec.md §9: never for secret-dependent ops).
func Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[int(logTable[a])+int(logTable[b])]
}

// MulSafe multiplies a and b via Russian-peasant multiplication: constant
// time, for key-adjacent mixing (AONT, anything touching secret bytes).
func MulSafe(a, b byte) byte {
	var result byte
	for i := 0; i < 8; i++ {
		mask := byte(0) - (b & 1)
		result ^= a & mask
		hi := a & 0x80
		a <<= 1
		a ^= (byte(0) - (hi >> 7)) & byte(poly&0xFF)
		b >>= 1
	}
	return result
}

// Invert returns the multiplicative inverse of x, with Invert(0) == 0.
func Invert(x byte) byte {
	if x == 0 {
		return 0
	}
	return expTable[255-int(logTable[x])]
}

// DispatchName reports which row_add_scaled implementation this build uses.
// Reported through a string accessor for operator visibility (spec.md §4.1).
func DispatchName() string {
	return dispatchName
}
