// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ACCUMX Column Signature Accounting - Hardware Reference Model
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// A signature is the bookkeeping record of a weighted-binary summation: for
// every power-of-two column it counts how many logically independent bits are
// waiting to be summed at that weight. The reduction network is sized from the
// signature at elaboration time; the flat bit vector fed to it at run time is
// the physical carrier of exactly those bits, ordered column by column.
//
// Everything in this package is elaboration-time arithmetic. None of it exists
// as run-time hardware: a signature describes wiring, it does not carry data.
//
// HARDWARE MODEL:
// ───────────────
// This Go code is a reference model for SystemVerilog RTL elaboration.
//   Signature entry s[c]   → number of wires routed into column c of the
//                            compressor, known at generate time
//   Count()                → total wire count = width of the flat input bus
//   Extend()               → generate-time widening that reserves one extra
//                            slot per column for the accumulator feedback bit
//   Columns()              → bus slicing, pure wiring (0 gates)
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package sig

import (
	"fmt"
	"math/bits"
)

// Signature is an ordered per-column bit count. Index = column weight
// exponent, so s[0] counts bits of weight 2^0. A column with entry 0
// contributes nothing; entries are never negative in a valid signature.
type Signature []int

// Count returns the total number of bits described by the signature. This is
// the required length of any flat bit vector carrying the signature's bits.
//
// Hardware: the width of the compressor's flattened input bus.
func (s Signature) Count() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Validate reports whether every entry is non-negative. A negative entry can
// only arise from caller construction bugs; it aborts elaboration.
func (s Signature) Validate() error {
	for c, n := range s {
		if n < 0 {
			return fmt.Errorf("sig: column %d has negative bit count %d", c, n)
		}
	}
	return nil
}

// Extend widens base with the accumulator's own feedback column slots: the
// result has max(accW, len(base)) columns, and every column c < accW gains
// exactly one extra slot for the single feedback bit of accumulator bit c.
//
// Guarantee: Extend(base, accW).Count() == base.Count() + accW.
//
// The feedback bit itself is assembled at run time (last within its column,
// after all of base's bits); this function only reserves its slot.
func Extend(base Signature, accW int) Signature {
	n := len(base)
	if accW > n {
		n = accW
	}
	out := make(Signature, n)
	for c := range out {
		if c < len(base) {
			out[c] = base[c]
		}
		if c < accW {
			out[c]++
		}
	}
	return out
}

// Columns slices a flat, column-ordered bit vector into its per-column
// groups, preserving the within-column sub-order. No bits are copied; the
// returned slices alias the input.
//
// Hardware: pure wiring. A flat bus is split into per-column bundles; a
// length mismatch is a port-width violation in the instantiating module, so
// it panics rather than returning an error.
func (s Signature) Columns(vec []bool) [][]bool {
	if len(vec) != s.Count() {
		panic(fmt.Sprintf("sig: bit vector length %d does not match signature count %d", len(vec), s.Count()))
	}
	cols := make([][]bool, len(s))
	pos := 0
	for c, n := range s {
		cols[c] = vec[pos : pos+n]
		pos += n
	}
	return cols
}

// MaxSum returns the largest weighted sum the signature can produce
// (every bit high), and whether that value is representable in 64 bits.
// Elaboration rejects signatures whose maximum sum overflows, which bounds
// the result bus of any network built from the signature.
func (s Signature) MaxSum() (uint64, bool) {
	var sum uint64
	for c, n := range s {
		if n == 0 {
			continue
		}
		if c >= 64 {
			return 0, false
		}
		hi, lo := bits.Mul64(uint64(n), 1<<uint(c))
		if hi != 0 {
			return 0, false
		}
		next, carry := bits.Add64(sum, lo, 0)
		if carry != 0 {
			return 0, false
		}
		sum = next
	}
	return sum, true
}
