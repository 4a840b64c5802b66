package accumx

import (
	"fmt"

	"github.com/MaemoWong/AccumX/proto/acc"
	"github.com/MaemoWong/AccumX/proto/reduce"
	"github.com/MaemoWong/AccumX/proto/sig"
)

// ═══════════════════════════════════════════════════════════════════════════
// ACCUMX: Parameterized Weighted-Binary Accumulator Fragments
// ═══════════════════════════════════════════════════════════════════════════
//
// WHAT THIS IS:
// A generator of accumulator circuit fragments: a running weighted-binary
// sum over a stream of arriving values, in five shapes:
//
//   Simple            one operand per cycle
//   Multiply          one operand-pair product per cycle
//   BitMatrix         an arbitrary pre-formed weighted bit matrix
//   ParallelSimple    N operands summed simultaneously
//   ParallelMultiply  N operand-pair products summed simultaneously
//
// Every shape is built from the same five pieces:
//
//   proto/sig     per-column bit accounting and feedback extension
//   proto/pp      partial-product layout with two's-complement correction
//   proto/delay   fixed-depth register lines for pipeline alignment
//   proto/reduce  the reduction-network boundary + exact reference tree
//   proto/acc     the shapes, the enable/zero update rule, the register
//
// THE HARD PART:
// Column accounting. For any accumulation shape the generator must know
// exactly which bit occupies which power-of-two column, keep the per-column
// counts (the signature) in lock-step with the assembled flat bit vector,
// and place the signed correction constants so that N simultaneous
// two's-complement products sum exactly. Get one column wrong and every
// total downstream is garbage; get it right and the external reduction
// network can be swapped for an approximate one without touching this core.
//
// ═══════════════════════════════════════════════════════════════════════════

// Example walks the end-to-end scenario on both contribution paths:
// ParallelMultiply, N=2, 4x4 unsigned, accW=12, no pipeline registers.
func Example() {
	fmt.Println("═══════════════════════════════════════════════")
	fmt.Println("ACCUMX: Weighted-Binary Accumulator Fragments")
	fmt.Println("═══════════════════════════════════════════════")
	fmt.Println()

	for _, useNet := range []bool{false, true} {
		pm, err := acc.NewParallelMultiply(2, 4, 4, acc.Params{
			AccW:       12,
			UseNetwork: useNet,
			Net:        reduce.Config{TargetDevice: "generic", Metric: reduce.Efficiency},
		})
		if err != nil {
			fmt.Println("elaboration failed:", err)
			return
		}

		path := "plain adder"
		if useNet {
			path = "reduction network"
		}
		as := []uint64{3, 5}
		bs := []uint64{2, 4}
		fmt.Printf("ParallelMultiply via %s:\n", path)
		fmt.Printf("  cycle 0  as=%v bs=%v enable=1 zero=1  total=%d\n", as, bs, pm.Cycle(as, bs, true, true))
		fmt.Printf("  cycle 1  as=%v bs=%v enable=1 zero=0  total=%d\n", as, bs, pm.Cycle(as, bs, true, false))
		fmt.Println()
	}

	// A bit matrix: two weight-1 bits and one weight-4 bit per cycle.
	bm, err := acc.NewBitMatrix(sig.Signature{2, 0, 1}, acc.Params{AccW: 8})
	if err != nil {
		fmt.Println("elaboration failed:", err)
		return
	}
	fmt.Println("BitMatrix, signature [2 0 1]:")
	fmt.Printf("  cycle 0  bits=[1 1 1] zero=1  total=%d\n", bm.Cycle([]bool{true, true, true}, true, true))
	fmt.Printf("  cycle 1  bits=[1 0 1] zero=0  total=%d\n", bm.Cycle([]bool{true, false, true}, true, false))
}
