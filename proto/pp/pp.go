// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ACCUMX Partial-Product Layout - Hardware Reference Model
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// A radix-2 multiplier is an AND-gate array plus a summation: every pair
// (row r of operand A, bit k of operand B) produces one partial-product bit
// of weight 2^(r+k). This package computes, at elaboration time, exactly
// which bit lands in which column for one or many operand pairs summed
// simultaneously, and assembles the matching flat bit vector at run time.
//
// SIGNED OPERATION (two's-complement, Baugh-Wooley form):
// ───────────────────────────────────────────────────────
// A signed operand's MSB carries weight -2^(w-1). Rewriting every negative
// term -x·2^p as (NOT x)·2^p - 2^p turns the signed array into the unsigned
// array with two modifications:
//   1. Every AND gate touching exactly ONE of the two operand MSBs becomes a
//      NAND gate. The corner gate (both MSBs) is inverted twice, i.e. stays
//      a plain AND.
//   2. A single constant bias per pair:
//         -(2^upper) + 2^midLo + 2^midHi
//      where upper = inAW+inBW-1, midLo = min(inAW,inBW)-1,
//      midHi = max(inAW,inBW)-1.
// When N pairs are summed into one network the biases sum arithmetically,
// and each set bit of the (two's-complement) sum contributes one literal
// "1" input to its column.
//
// HARDWARE MODEL:
// ───────────────
//   DotCount/LSRow        → generate-time loop bounds (wiring, 0 gates)
//   AssembleBits product  → one AND (or NAND) gate per bit
//   Correction literal    → a tied-high input wire
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package pp

import (
	"fmt"

	"github.com/MaemoWong/AccumX/proto/sig"
)

// Shape describes one operand-pair product: operand widths and a shared
// signedness. All derived geometry (column span, row occupancy, correction
// constant) is a pure function of the shape.
type Shape struct {
	InAW   int
	InBW   int
	Signed bool
}

// Validate rejects shapes that cannot be elaborated. Zero-width operands
// have no bit array to lay out.
func (sh Shape) Validate() error {
	if sh.InAW < 1 {
		return fmt.Errorf("pp: operand A width must be >= 1, got %d", sh.InAW)
	}
	if sh.InBW < 1 {
		return fmt.Errorf("pp: operand B width must be >= 1, got %d", sh.InBW)
	}
	return nil
}

// Upper is the exclusive column bound of the product array: partial-product
// bits occupy columns 0 .. Upper-1, and the signed correction constant's top
// bit sits at Upper.
func (sh Shape) Upper() int { return sh.InAW + sh.InBW - 1 }

// MidLo is the column where the triangular dot profile first reaches its
// plateau (min width - 1).
func (sh Shape) MidLo() int {
	if sh.InAW < sh.InBW {
		return sh.InAW - 1
	}
	return sh.InBW - 1
}

// MidHi is the last plateau column (max width - 1).
func (sh Shape) MidHi() int {
	if sh.InAW > sh.InBW {
		return sh.InAW - 1
	}
	return sh.InBW - 1
}

// DotCount returns how many partial-product bits one pair contributes to the
// given column: a triangular ramp up to min(InAW,InBW), a plateau, and a ramp
// back down to zero at Upper.
func (sh Shape) DotCount(col int) int {
	switch {
	case col < 0 || col >= sh.Upper():
		return 0
	case col < sh.MidLo():
		return col + 1
	case col <= sh.MidHi():
		return sh.MidLo() + 1 // min(InAW, InBW)
	default:
		return sh.Upper() - col
	}
}

// LSRow returns the least A-row occupied in the given column. Rows
// LSRow(col) .. LSRow(col)+DotCount(col)-1 are active; the B index for row r
// is col-r.
func (sh Shape) LSRow(col int) int {
	if col < sh.InBW {
		return 0
	}
	return col - sh.InBW + 1
}

// CorrectionConstant returns the per-pair sign-extension bias, or 0 for
// unsigned shapes.
func (sh Shape) CorrectionConstant() int64 {
	if !sh.Signed {
		return 0
	}
	return -(int64(1) << uint(sh.Upper())) +
		int64(1)<<uint(sh.MidLo()) +
		int64(1)<<uint(sh.MidHi())
}

// CorrectionBits returns the bits of n summed correction constants, taken
// modulo 2^cols. Each true entry contributes one literal "1" input at that
// column. Requires cols <= 64 (enforced by the enclosing accumulator's
// elaboration).
func (sh Shape) CorrectionBits(n, cols int) []bool {
	out := make([]bool, cols)
	total := uint64(int64(n) * sh.CorrectionConstant()) // two's complement mod 2^64
	for c := 0; c < cols; c++ {
		out[c] = (total>>uint(c))&1 == 1
	}
	return out
}

// Columns returns the column span of n simultaneous pair products feeding an
// accW-wide accumulator: max(Upper, accW).
func (sh Shape) Columns(accW int) int {
	if accW > sh.Upper() {
		return accW
	}
	return sh.Upper()
}

// PairSignature returns the column signature of n simultaneous pair products:
// n times the dot profile, plus one literal per set correction bit.
func (sh Shape) PairSignature(n, accW int) sig.Signature {
	cols := sh.Columns(accW)
	corr := sh.CorrectionBits(n, cols)
	s := make(sig.Signature, cols)
	for c := range s {
		s[c] = n * sh.DotCount(c)
		if corr[c] {
			s[c]++
		}
	}
	return s
}

// AssembleBits builds the flat, column-ordered bit vector for n pair
// products. Per column: for each pair in index order, the active product
// bits from row LSRow(col) upward; then the correction literal if that
// column's correction bit is set. The result length always equals
// PairSignature(n, accW).Count().
//
// Hardware: the AND/NAND array itself. One gate per appended product bit.
func (sh Shape) AssembleBits(as, bs []uint64, accW int) []bool {
	if len(as) != len(bs) {
		panic(fmt.Sprintf("pp: operand slice lengths differ: %d vs %d", len(as), len(bs)))
	}
	n := len(as)
	cols := sh.Columns(accW)
	corr := sh.CorrectionBits(n, cols)

	out := make([]bool, 0, sh.PairSignature(n, accW).Count())
	for c := 0; c < cols; c++ {
		lo := sh.LSRow(c)
		dots := sh.DotCount(c)
		for i := 0; i < n; i++ {
			for r := lo; r < lo+dots; r++ {
				k := c - r
				bit := (as[i]>>uint(r))&1 == 1 && (bs[i]>>uint(k))&1 == 1
				// NAND where exactly one MSB participates (corner stays AND).
				if sh.Signed && ((r == sh.InAW-1) != (k == sh.InBW-1)) {
					bit = !bit
				}
				out = append(out, bit)
			}
		}
		if corr[c] {
			out = append(out, true)
		}
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// OPERAND COLUMN LAYOUT (non-product shapes)
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// When plain operands (no multiplication) are summed through the network,
// each operand simply drops one bit per column. Signed operands use the same
// constant-style extension as the product array: the MSB wire is inverted and
// a per-operand bias of -(2^(InW-1)) is folded into a summed constant, so no
// replicated sign wires are needed and every vector bit stays independent.
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// OperandShape describes a plain operand feeding the network: width and
// signedness.
type OperandShape struct {
	InW    int
	Signed bool
}

// Validate rejects zero-width operands.
func (o OperandShape) Validate() error {
	if o.InW < 1 {
		return fmt.Errorf("pp: operand width must be >= 1, got %d", o.InW)
	}
	return nil
}

// Columns returns the column span for n operands feeding an accW-wide
// accumulator: max(InW, accW).
func (o OperandShape) Columns(accW int) int {
	if accW > o.InW {
		return accW
	}
	return o.InW
}

// CorrectionBits returns the bits of n summed sign-extension biases
// (-(2^(InW-1)) each) modulo 2^cols; all false for unsigned shapes.
func (o OperandShape) CorrectionBits(n, cols int) []bool {
	out := make([]bool, cols)
	if !o.Signed {
		return out
	}
	total := uint64(int64(n) * -(int64(1) << uint(o.InW-1)))
	for c := 0; c < cols; c++ {
		out[c] = (total>>uint(c))&1 == 1
	}
	return out
}

// OperandSignature returns the column signature of n operands: one bit per
// operand in columns below InW, plus the correction literals.
func (o OperandShape) OperandSignature(n, accW int) sig.Signature {
	cols := o.Columns(accW)
	corr := o.CorrectionBits(n, cols)
	s := make(sig.Signature, cols)
	for c := range s {
		if c < o.InW {
			s[c] = n
		}
		if corr[c] {
			s[c]++
		}
	}
	return s
}

// AssembleOperandBits builds the flat column-ordered vector for n operands:
// per column, each operand's bit in index order (MSB wire inverted when
// signed), then the correction literal if set.
func (o OperandShape) AssembleOperandBits(vs []uint64, accW int) []bool {
	cols := o.Columns(accW)
	corr := o.CorrectionBits(len(vs), cols)

	out := make([]bool, 0, o.OperandSignature(len(vs), accW).Count())
	for c := 0; c < cols; c++ {
		if c < o.InW {
			for _, v := range vs {
				bit := (v>>uint(c))&1 == 1
				if o.Signed && c == o.InW-1 {
					bit = !bit
				}
				out = append(out, bit)
			}
		}
		if corr[c] {
			out = append(out, true)
		}
	}
	return out
}
