package acc

import (
	"math/rand"
	"testing"

	"github.com/MaemoWong/AccumX/proto/reduce"
	"github.com/MaemoWong/AccumX/proto/sig"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// Accumulator Shapes - Test Suite
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// TEST PHILOSOPHY:
// ────────────────
// Every accumulator is checked against plain modular integer arithmetic as
// the independent model, cycle by cycle. The adder path and the network path
// implement the same update rule through different hardware; they are also
// checked against each other over randomized streams, which exercises the
// column layouts, the feedback assembly, and the compressor tree in one go.
//
// Pipelining is checked as a pure delay: the pipes=p output sequence must be
// the pipes=0 sequence shifted by p cycles with p leading zeros, value for
// value, for every shape.
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func TestSimple_UnsignedAccumulate(t *testing.T) {
	// WHAT: Running total of plain operands, modulo 2^accW.

	s, err := NewSimple(8, Params{AccW: 10})
	if err != nil {
		t.Fatalf("NewSimple: %v", err)
	}
	var model uint64
	rng := rand.New(rand.NewSource(1))
	for k := 0; k < 100; k++ {
		v := rng.Uint64() & 0xFF
		got := s.Cycle(v, true, false)
		model = (model + v) & 0x3FF
		if got != model {
			t.Fatalf("cycle %d: total %d, want %d", k, got, model)
		}
	}
}

func TestSimple_SignedExtension(t *testing.T) {
	// WHAT: Signed operands sign-extend into the register width; the total
	//       tracks the signed sum modulo 2^accW.

	s, err := NewSimple(4, Params{AccW: 12, Signed: true})
	if err != nil {
		t.Fatalf("NewSimple: %v", err)
	}
	// -8, -1, 7, -3 => signed running sums -8, -9, -2, -5.
	inputs := []uint64{0x8, 0xF, 0x7, 0xD}
	wants := []int64{-8, -9, -2, -5}
	for k, v := range inputs {
		got := s.Cycle(v, true, false)
		want := uint64(wants[k]) & 0xFFF
		if got != want {
			t.Fatalf("cycle %d: total %#x, want %#x", k, got, want)
		}
	}
}

func TestSimple_HoldSemantics(t *testing.T) {
	// WHAT: With enable deasserted, the register holds for M consecutive
	//       cycles regardless of inputs; nothing is consumed or lost.

	s, err := NewSimple(8, Params{AccW: 16})
	if err != nil {
		t.Fatalf("NewSimple: %v", err)
	}
	s.Cycle(41, true, false)
	before := s.Total()
	for k := 0; k < 7; k++ {
		if got := s.Cycle(200, false, k%2 == 0); got != before {
			t.Fatalf("hold cycle %d: total %d, want %d", k, got, before)
		}
	}
	if got := s.Cycle(1, true, false); got != before+1 {
		t.Fatalf("resume: total %d, want %d", got, before+1)
	}
}

func TestSimple_ZeroOverride_SingleCycle(t *testing.T) {
	// WHAT: zero on cycle k makes total[k] == contribution[k] regardless of
	//       total[k-1]; cycle k+1 accumulates from total[k] normally.
	// WHY: zero discards only the previous total's contribution to that one
	//      sum; it is not a persistent reset.

	s, err := NewSimple(8, Params{AccW: 16})
	if err != nil {
		t.Fatalf("NewSimple: %v", err)
	}
	s.Cycle(100, true, false)
	s.Cycle(100, true, false) // total = 200
	if got := s.Cycle(7, true, true); got != 7 {
		t.Fatalf("zero cycle: total %d, want 7", got)
	}
	if got := s.Cycle(5, true, false); got != 12 {
		t.Fatalf("cycle after zero: total %d, want 12", got)
	}
}

func TestMultiply_UnsignedMAC_Random(t *testing.T) {
	// WHAT: 32 cycles of random 8-bit pairs, enable high throughout, zero
	//       only on cycle 0; final total equals the independent
	//       sum-of-products modulo 2^accW.

	const accW = 16
	m, err := NewMultiply(8, 8, Params{AccW: accW})
	if err != nil {
		t.Fatalf("NewMultiply: %v", err)
	}
	rng := rand.New(rand.NewSource(2))
	var model uint64
	for k := 0; k < 32; k++ {
		a := rng.Uint64() & 0xFF
		b := rng.Uint64() & 0xFF
		m.Cycle(a, b, true, k == 0)
		model += a * b
	}
	if got, want := m.Total(), model&(1<<accW-1); got != want {
		t.Fatalf("final total %d, want %d", got, want)
	}
}

func TestMultiply_SignedMAC(t *testing.T) {
	// WHAT: Signed 4x4 multiply-accumulate including neg x neg and
	//       neg x pos, against int64 arithmetic modulo 2^accW.

	const accW = 12
	m, err := NewMultiply(4, 4, Params{AccW: accW, Signed: true})
	if err != nil {
		t.Fatalf("NewMultiply: %v", err)
	}
	// (-8)*(-8)=64; then (-7)*5=-35 => 29; then 3*(-2)=-6 => 23.
	steps := []struct {
		a, b uint64
		want int64
	}{
		{0x8, 0x8, 64},
		{0x9, 0x5, 29},
		{0x3, 0xE, 23},
	}
	for k, st := range steps {
		got := m.Cycle(st.a, st.b, true, false)
		if want := uint64(st.want) & (1<<accW - 1); got != want {
			t.Fatalf("cycle %d: total %#x, want %#x", k, got, want)
		}
	}
}

func TestParallelSimple_MatchesScalarSum(t *testing.T) {
	// WHAT: N operands per cycle accumulate like the scalar sum of the
	//       extended values, signed and unsigned.

	for _, signed := range []bool{false, true} {
		ps, err := NewParallelSimple(4, 6, Params{AccW: 14, Signed: signed})
		if err != nil {
			t.Fatalf("NewParallelSimple(signed=%v): %v", signed, err)
		}
		rng := rand.New(rand.NewSource(3))
		var model uint64
		for k := 0; k < 50; k++ {
			vs := make([]uint64, 4)
			for i := range vs {
				vs[i] = rng.Uint64() & 0x3F
				model += extendOperand(vs[i], 6, signed)
			}
			model &= 1<<14 - 1
			if got := ps.Cycle(vs, true, false); got != model {
				t.Fatalf("signed=%v cycle %d: total %d, want %d", signed, k, got, model)
			}
		}
	}
}

func TestParallelMultiply_EndToEnd(t *testing.T) {
	// WHAT: N=2, 4x4 unsigned, accW=12, pipes=0. Cycle 0 with zero=1 and
	//       as=[3,5], bs=[2,4] gives 3*2+5*4 = 26; cycle 1, same inputs
	//       with zero=0, gives 52. Both contribution paths must agree.

	for _, useNet := range []bool{false, true} {
		pm, err := NewParallelMultiply(2, 4, 4, Params{AccW: 12, UseNetwork: useNet})
		if err != nil {
			t.Fatalf("NewParallelMultiply(net=%v): %v", useNet, err)
		}
		as := []uint64{3, 5}
		bs := []uint64{2, 4}
		if got := pm.Cycle(as, bs, true, true); got != 26 {
			t.Fatalf("net=%v cycle 0: total %d, want 26", useNet, got)
		}
		if got := pm.Cycle(as, bs, true, false); got != 52 {
			t.Fatalf("net=%v cycle 1: total %d, want 52", useNet, got)
		}
	}
}

func TestBitMatrix_Accumulate(t *testing.T) {
	// WHAT: A caller-described bit matrix accumulates its weighted sum
	//       through the network, with feedback, enable, and zero behaving
	//       exactly as in the arithmetic shapes.

	base := sig.Signature{2, 0, 1} // two weight-1 bits, one weight-4 bit
	bm, err := NewBitMatrix(base, Params{AccW: 8})
	if err != nil {
		t.Fatalf("NewBitMatrix: %v", err)
	}
	step := func(b0, b1, b2 bool) uint64 {
		var v uint64
		if b0 {
			v++
		}
		if b1 {
			v++
		}
		if b2 {
			v += 4
		}
		return v
	}
	var model uint64
	cases := []struct{ b0, b1, b2, en, zero bool }{
		{true, true, true, true, true},
		{true, false, false, true, false},
		{false, true, true, false, false}, // hold
		{true, true, false, true, false},
		{false, false, true, true, true}, // zero override
	}
	for k, c := range cases {
		contribution := step(c.b0, c.b1, c.b2)
		if c.en {
			if c.zero {
				model = contribution & 0xFF
			} else {
				model = (model + contribution) & 0xFF
			}
		}
		got := bm.Cycle([]bool{c.b0, c.b1, c.b2}, c.en, c.zero)
		if got != model {
			t.Fatalf("cycle %d: total %d, want %d", k, got, model)
		}
	}
}

func TestNetworkPath_MatchesAdderPath(t *testing.T) {
	// WHAT: For every arithmetic shape, signedness, and a couple of pipe
	//       depths, the network path and the adder path produce identical
	//       output sequences over randomized input/enable/zero streams.
	// WHY: This is the strongest single check in the suite: it ties the
	//      column layouts, the correction constants, the feedback assembly,
	//      and the compressor tree to plain modular arithmetic.

	const cycles = 120
	rng := rand.New(rand.NewSource(4))

	for _, signed := range []bool{false, true} {
		for _, pipes := range []int{0, 2} {
			mk := func(useNet bool) Params {
				return Params{AccW: 11, Pipes: pipes, Signed: signed, UseNetwork: useNet,
					Net: reduce.Config{Metric: reduce.Efficiency}}
			}

			sa, err := NewSimple(5, mk(false))
			if err != nil {
				t.Fatalf("NewSimple: %v", err)
			}
			sn, err := NewSimple(5, mk(true))
			if err != nil {
				t.Fatalf("NewSimple(net): %v", err)
			}
			ma, err := NewMultiply(4, 3, mk(false))
			if err != nil {
				t.Fatalf("NewMultiply: %v", err)
			}
			mn, err := NewMultiply(4, 3, mk(true))
			if err != nil {
				t.Fatalf("NewMultiply(net): %v", err)
			}
			pa, err := NewParallelSimple(3, 4, mk(false))
			if err != nil {
				t.Fatalf("NewParallelSimple: %v", err)
			}
			pn, err := NewParallelSimple(3, 4, mk(true))
			if err != nil {
				t.Fatalf("NewParallelSimple(net): %v", err)
			}
			qa, err := NewParallelMultiply(2, 4, 4, mk(false))
			if err != nil {
				t.Fatalf("NewParallelMultiply: %v", err)
			}
			qn, err := NewParallelMultiply(2, 4, 4, mk(true))
			if err != nil {
				t.Fatalf("NewParallelMultiply(net): %v", err)
			}

			for k := 0; k < cycles; k++ {
				en := rng.Intn(4) != 0
				zero := rng.Intn(8) == 0
				v := rng.Uint64()
				a, b := rng.Uint64(), rng.Uint64()
				vs := []uint64{rng.Uint64(), rng.Uint64(), rng.Uint64()}
				as := []uint64{rng.Uint64(), rng.Uint64()}
				bs := []uint64{rng.Uint64(), rng.Uint64()}

				if g, w := sn.Cycle(v, en, zero), sa.Cycle(v, en, zero); g != w {
					t.Fatalf("Simple signed=%v pipes=%d cycle %d: net %d, adder %d", signed, pipes, k, g, w)
				}
				if g, w := mn.Cycle(a, b, en, zero), ma.Cycle(a, b, en, zero); g != w {
					t.Fatalf("Multiply signed=%v pipes=%d cycle %d: net %d, adder %d", signed, pipes, k, g, w)
				}
				if g, w := pn.Cycle(vs, en, zero), pa.Cycle(vs, en, zero); g != w {
					t.Fatalf("ParallelSimple signed=%v pipes=%d cycle %d: net %d, adder %d", signed, pipes, k, g, w)
				}
				if g, w := qn.Cycle(as, bs, en, zero), qa.Cycle(as, bs, en, zero); g != w {
					t.Fatalf("ParallelMultiply signed=%v pipes=%d cycle %d: net %d, adder %d", signed, pipes, k, g, w)
				}
			}
		}
	}
}

func TestPipelineTransparency(t *testing.T) {
	// WHAT: For pipes = p, the output sequence equals the pipes = 0 output
	//       sequence delayed by exactly p cycles, with p leading zeros.
	// WHY: Pipe registers exist only to shorten combinational paths; any
	//      functional effect beyond latency is a control-alignment bug.

	const cycles = 60
	rng := rand.New(rand.NewSource(5))

	type stim struct {
		a, b     uint64
		en, zero bool
	}
	stream := make([]stim, cycles)
	for k := range stream {
		stream[k] = stim{
			a:    rng.Uint64() & 0xF,
			b:    rng.Uint64() & 0xF,
			en:   rng.Intn(3) != 0,
			zero: rng.Intn(6) == 0,
		}
	}

	for _, useNet := range []bool{false, true} {
		ref, err := NewMultiply(4, 4, Params{AccW: 12, Signed: true, UseNetwork: useNet})
		if err != nil {
			t.Fatalf("ref: %v", err)
		}
		refOut := make([]uint64, cycles)
		for k, st := range stream {
			refOut[k] = ref.Cycle(st.a, st.b, st.en, st.zero)
		}

		for _, pipes := range []int{1, 3} {
			m, err := NewMultiply(4, 4, Params{AccW: 12, Signed: true, Pipes: pipes, UseNetwork: useNet})
			if err != nil {
				t.Fatalf("pipes=%d: %v", pipes, err)
			}
			for k, st := range stream {
				got := m.Cycle(st.a, st.b, st.en, st.zero)
				var want uint64
				if k >= pipes {
					want = refOut[k-pipes]
				}
				if got != want {
					t.Fatalf("net=%v pipes=%d cycle %d: total %d, want %d", useNet, pipes, k, got, want)
				}
			}
		}
	}
}

func TestConstruction_Errors(t *testing.T) {
	// WHAT: Every invalid parameterization aborts construction with an
	//       error and no partial instance.
	// WHY: All failure modes are elaboration-time; there is no degraded
	//      build.

	ok := Params{AccW: 8}

	if _, err := NewSimple(0, ok); err == nil {
		t.Errorf("zero input width accepted")
	}
	if _, err := NewSimple(8, Params{AccW: 0}); err == nil {
		t.Errorf("zero accumulator width accepted")
	}
	if _, err := NewSimple(8, Params{AccW: 65}); err == nil {
		t.Errorf("oversize accumulator width accepted")
	}
	if _, err := NewSimple(8, Params{AccW: 8, Pipes: -1}); err == nil {
		t.Errorf("negative pipes accepted")
	}
	if _, err := NewMultiply(4, 0, ok); err == nil {
		t.Errorf("zero B width accepted")
	}
	if _, err := NewParallelSimple(0, 4, ok); err == nil {
		t.Errorf("zero operand count accepted")
	}
	if _, err := NewParallelMultiply(-1, 4, 4, ok); err == nil {
		t.Errorf("negative pair count accepted")
	}
	if _, err := NewBitMatrix(sig.Signature{1, -1}, ok); err == nil {
		t.Errorf("negative signature column accepted")
	}
	bad := Params{AccW: 8, UseNetwork: true, Net: reduce.Config{Metric: reduce.Metric(99)}}
	if _, err := NewSimple(8, bad); err == nil {
		t.Errorf("unknown network metric accepted")
	}
	over := make(sig.Signature, 64)
	over[63] = 2
	if _, err := NewBitMatrix(over, ok); err == nil {
		t.Errorf("overflowing signature accepted")
	}
}

func TestCycle_PortWidthPanics(t *testing.T) {
	// WHAT: Wrong-length per-cycle slices panic; port counts are static.

	expectPanic := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: no panic", name)
			}
		}()
		f()
	}

	bm, err := NewBitMatrix(sig.Signature{2, 1}, Params{AccW: 8})
	if err != nil {
		t.Fatalf("NewBitMatrix: %v", err)
	}
	expectPanic("BitMatrix", func() { bm.Cycle([]bool{true}, true, false) })

	ps, err := NewParallelSimple(3, 4, Params{AccW: 8})
	if err != nil {
		t.Fatalf("NewParallelSimple: %v", err)
	}
	expectPanic("ParallelSimple", func() { ps.Cycle([]uint64{1, 2}, true, false) })

	pm, err := NewParallelMultiply(2, 4, 4, Params{AccW: 8})
	if err != nil {
		t.Fatalf("NewParallelMultiply: %v", err)
	}
	expectPanic("ParallelMultiply", func() { pm.Cycle([]uint64{1, 2}, []uint64{3}, true, false) })
}

func TestTotal_InitialState(t *testing.T) {
	// WHAT: Every shape resets to total = 0.

	s, _ := NewSimple(8, Params{AccW: 16})
	m, _ := NewMultiply(4, 4, Params{AccW: 16})
	if s.Total() != 0 || m.Total() != 0 {
		t.Errorf("initial totals %d, %d; want 0, 0", s.Total(), m.Total())
	}
}
