// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ACCUMX Accumulator Shapes - Hardware Reference Model
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// An accumulator maintains a running weighted-binary sum over a stream of
// arriving values. Five shapes share one update rule and one register:
//
//   Simple            one operand per cycle
//   Multiply          one operand-pair product per cycle
//   BitMatrix         an arbitrary pre-formed bit matrix, via the network
//   ParallelSimple    N operands summed simultaneously
//   ParallelMultiply  N operand-pair products summed simultaneously
//
// UPDATE RULE (the only sequential element, one register of width accW):
// ──────────────────────────────────────────────────────────────────────
//   if enable:  total' = contribution + (zero ? 0 : total)   (mod 2^accW)
//   else:       total' = total                                (hold)
//
// zero is a single-cycle override: it discards only the previous total's
// contribution to that cycle's sum. It is not a reset.
//
// CONTRIBUTION PATHS:
// ───────────────────
// Adder path: the shape's arithmetic value (extended operand, product, or
// N-way sum) feeds a plain adder against the fed-back total.
//
// Network path: the shape's bits are laid out into columns, the signature is
// extended with one feedback slot per accumulator column, and the external
// reduction network returns the new total directly. The feedback bit for
// column c reads as (NOT zero) AND total[c], so the zero override is folded
// into the feedback wires.
//
// PIPELINING:
// ───────────
// pipes registers are inserted on the contribution side (the computed value,
// or the assembled bit vector) purely to shorten the combinational path.
// enable and zero travel through delay lines of the SAME depth, so control
// and data always recombine on the identical cycle at the register. The
// feedback itself is never delayed: registers sit upstream of the
// accumulation point, keeping total' a same-cycle function of total.
//
// All failure modes are elaboration-time: invalid widths, negative pipes, or
// an unbuildable network abort construction with an error and no partial
// instance. Per-cycle slice-length mismatches are port-width violations in
// the instantiating module and panic.
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package acc

import (
	"fmt"

	"github.com/MaemoWong/AccumX/proto/delay"
	"github.com/MaemoWong/AccumX/proto/pp"
	"github.com/MaemoWong/AccumX/proto/reduce"
	"github.com/MaemoWong/AccumX/proto/sig"
)

// Params carries the construction parameters shared by every shape. All
// fields are fixed at elaboration; none can change at run time.
type Params struct {
	AccW       int  // accumulator register width, 1..64
	Pipes      int  // contribution-side register stages, >= 0
	Signed     bool // two's-complement operand interpretation
	UseNetwork bool // route the contribution through the reduction network
	Net        reduce.Config
}

func (p Params) validate() error {
	if p.AccW < 1 || p.AccW > 64 {
		return fmt.Errorf("acc: accumulator width must be in [1,64], got %d", p.AccW)
	}
	if p.Pipes < 0 {
		return fmt.Errorf("acc: pipe count must be >= 0, got %d", p.Pipes)
	}
	if err := p.Net.Validate(); err != nil {
		return err
	}
	return nil
}

// maskW returns the low-w bit mask.
func maskW(w int) uint64 {
	return ^uint64(0) >> uint(64-w)
}

// extendOperand widens an inW-bit operand to the full register width:
// two's-complement sign extension when signed, zero extension otherwise.
func extendOperand(v uint64, inW int, signed bool) uint64 {
	v &= maskW(inW)
	if signed && inW < 64 && (v>>uint(inW-1))&1 == 1 {
		v |= ^maskW(inW)
	}
	return v
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SHARED CORE: the accumulator register and its control delay lines
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// core owns the single accW-wide register and the enable/zero delay lines.
// The register is written exclusively here, once per Cycle call.
type core struct {
	accW  int
	mask  uint64
	total uint64
	en    *delay.Line[bool]
	zero  *delay.Line[bool]
}

func newCore(p Params) (core, error) {
	if err := p.validate(); err != nil {
		return core{}, err
	}
	en, err := delay.New[bool](p.Pipes)
	if err != nil {
		return core{}, err
	}
	zero, err := delay.New[bool](p.Pipes)
	if err != nil {
		return core{}, err
	}
	return core{accW: p.AccW, mask: maskW(p.AccW), en: en, zero: zero}, nil
}

// step applies the update rule to already-aligned (post-delay) signals.
//
// Hardware: always_ff with enable; one adder and one zero-gating AND row.
func (c *core) step(contribution uint64, enable, zero bool) uint64 {
	if enable {
		old := c.total
		if zero {
			old = 0
		}
		c.total = (old + contribution) & c.mask
	}
	return c.total
}

// Total reads the register.
func (c *core) Total() uint64 { return c.total }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONTRIBUTION PATHS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// addPath is the plain-adder contribution path: the computed value rides a
// delay line, then feeds the register's adder.
type addPath struct {
	line *delay.Line[uint64]
}

func newAddPath(p Params) (*addPath, error) {
	line, err := delay.New[uint64](p.Pipes)
	if err != nil {
		return nil, err
	}
	return &addPath{line: line}, nil
}

func (a *addPath) cycle(c *core, contribution uint64, enable, zero bool) uint64 {
	d := a.line.Cycle(contribution)
	de := c.en.Cycle(enable)
	dz := c.zero.Cycle(zero)
	return c.step(d, de, dz)
}

// netPath routes the contribution through the reduction network: the base
// bit vector rides a delay line, is extended with the feedback column bits,
// and the network's weighted sum becomes the new total.
type netPath struct {
	base sig.Signature
	ext  sig.Signature
	net  reduce.Network
	line *delay.Line[[]bool]
}

func newNetPath(base sig.Signature, p Params) (*netPath, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	ext := sig.Extend(base, p.AccW)
	net, err := reduce.New(ext, p.Net)
	if err != nil {
		return nil, err
	}
	// Delay registers reset to an all-low vector of the port's width so the
	// warm-up cycles present well-formed (if idle) inputs.
	line, err := delay.NewInit(p.Pipes, make([]bool, base.Count()))
	if err != nil {
		return nil, err
	}
	return &netPath{base: base, ext: ext, net: net, line: line}, nil
}

func (n *netPath) cycle(c *core, baseBits []bool, enable, zero bool) uint64 {
	db := n.line.Cycle(baseBits)
	de := c.en.Cycle(enable)
	dz := c.zero.Cycle(zero)

	// Extended vector assembly: per column, the base bits in their original
	// order first, then the single feedback bit. The feedback bit reads as 0
	// whenever the (delayed) zero override is asserted.
	cols := n.base.Columns(db)
	vec := make([]bool, 0, n.ext.Count())
	for col := range n.ext {
		if col < len(n.base) {
			vec = append(vec, cols[col]...)
		}
		if col < c.accW {
			vec = append(vec, !dz && (c.total>>uint(col))&1 == 1)
		}
	}

	sum := n.net.Reduce(vec)
	if de {
		c.total = sum & c.mask
	}
	return c.total
}

// columnSpanCheck rejects network layouts whose column span cannot be
// represented (correction constants and weights are modeled in 64 bits).
func columnSpanCheck(cols int) error {
	if cols > 64 {
		return fmt.Errorf("acc: network column span %d exceeds 64", cols)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SIMPLE: one operand per cycle
// ═══════════════════════════════════════════════════════════════════════════════════════════════

type Simple struct {
	c      core
	inW    int
	signed bool
	op     pp.OperandShape
	add    *addPath
	net    *netPath
}

func NewSimple(inW int, p Params) (*Simple, error) {
	if inW < 1 || inW > 64 {
		return nil, fmt.Errorf("acc: input width must be in [1,64], got %d", inW)
	}
	c, err := newCore(p)
	if err != nil {
		return nil, err
	}
	s := &Simple{c: c, inW: inW, signed: p.Signed, op: pp.OperandShape{InW: inW, Signed: p.Signed}}
	if p.UseNetwork {
		if err := columnSpanCheck(s.op.Columns(p.AccW)); err != nil {
			return nil, err
		}
		if s.net, err = newNetPath(s.op.OperandSignature(1, p.AccW), p); err != nil {
			return nil, err
		}
	} else if s.add, err = newAddPath(p); err != nil {
		return nil, err
	}
	return s, nil
}

// Cycle advances one clock with the given ports and returns the total.
func (s *Simple) Cycle(value uint64, enable, zero bool) uint64 {
	value &= maskW(s.inW)
	if s.net != nil {
		return s.net.cycle(&s.c, s.op.AssembleOperandBits([]uint64{value}, s.c.accW), enable, zero)
	}
	return s.add.cycle(&s.c, extendOperand(value, s.inW, s.signed)&s.c.mask, enable, zero)
}

func (s *Simple) Total() uint64 { return s.c.Total() }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MULTIPLY: one operand-pair product per cycle
// ═══════════════════════════════════════════════════════════════════════════════════════════════

type Multiply struct {
	c     core
	shape pp.Shape
	add   *addPath
	net   *netPath
}

func NewMultiply(inAW, inBW int, p Params) (*Multiply, error) {
	shape := pp.Shape{InAW: inAW, InBW: inBW, Signed: p.Signed}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if inAW > 64 || inBW > 64 {
		return nil, fmt.Errorf("acc: operand widths must be <= 64, got %d x %d", inAW, inBW)
	}
	c, err := newCore(p)
	if err != nil {
		return nil, err
	}
	m := &Multiply{c: c, shape: shape}
	if p.UseNetwork {
		if err := columnSpanCheck(shape.Columns(p.AccW)); err != nil {
			return nil, err
		}
		if m.net, err = newNetPath(shape.PairSignature(1, p.AccW), p); err != nil {
			return nil, err
		}
	} else if m.add, err = newAddPath(p); err != nil {
		return nil, err
	}
	return m, nil
}

// Cycle advances one clock with the given operand pair and returns the total.
func (m *Multiply) Cycle(a, b uint64, enable, zero bool) uint64 {
	a &= maskW(m.shape.InAW)
	b &= maskW(m.shape.InBW)
	if m.net != nil {
		return m.net.cycle(&m.c, m.shape.AssembleBits([]uint64{a}, []uint64{b}, m.c.accW), enable, zero)
	}
	// Two's-complement products agree with unsigned products modulo 2^64,
	// so one modular multiply covers both interpretations after extension.
	prod := extendOperand(a, m.shape.InAW, m.shape.Signed) * extendOperand(b, m.shape.InBW, m.shape.Signed)
	return m.add.cycle(&m.c, prod&m.c.mask, enable, zero)
}

func (m *Multiply) Total() uint64 { return m.c.Total() }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// BITMATRIX: an arbitrary externally-supplied bit matrix, always via the network
// ═══════════════════════════════════════════════════════════════════════════════════════════════

type BitMatrix struct {
	c   core
	net *netPath
}

// NewBitMatrix accumulates a caller-described bit matrix. The shape exists
// only in network form; Params.UseNetwork is implied.
func NewBitMatrix(base sig.Signature, p Params) (*BitMatrix, error) {
	c, err := newCore(p)
	if err != nil {
		return nil, err
	}
	own := make(sig.Signature, len(base))
	copy(own, base)
	net, err := newNetPath(own, p)
	if err != nil {
		return nil, err
	}
	return &BitMatrix{c: c, net: net}, nil
}

// Cycle advances one clock with the given flat, column-ordered bit vector.
// The vector length is a static port width; a mismatch panics.
func (b *BitMatrix) Cycle(bits []bool, enable, zero bool) uint64 {
	if len(bits) != b.net.base.Count() {
		panic(fmt.Sprintf("acc: bit port width %d, got %d bits", b.net.base.Count(), len(bits)))
	}
	own := make([]bool, len(bits))
	copy(own, bits)
	return b.net.cycle(&b.c, own, enable, zero)
}

func (b *BitMatrix) Total() uint64 { return b.c.Total() }

// Signature returns the base (pre-feedback) signature of the bit port.
func (b *BitMatrix) Signature() sig.Signature { return b.net.base }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PARALLELSIMPLE: N operands summed simultaneously
// ═══════════════════════════════════════════════════════════════════════════════════════════════

type ParallelSimple struct {
	c      core
	n      int
	inW    int
	signed bool
	op     pp.OperandShape
	add    *addPath
	net    *netPath
}

func NewParallelSimple(n, inW int, p Params) (*ParallelSimple, error) {
	if n < 1 {
		return nil, fmt.Errorf("acc: operand count must be >= 1, got %d", n)
	}
	if inW < 1 || inW > 64 {
		return nil, fmt.Errorf("acc: input width must be in [1,64], got %d", inW)
	}
	c, err := newCore(p)
	if err != nil {
		return nil, err
	}
	ps := &ParallelSimple{c: c, n: n, inW: inW, signed: p.Signed, op: pp.OperandShape{InW: inW, Signed: p.Signed}}
	if p.UseNetwork {
		if err := columnSpanCheck(ps.op.Columns(p.AccW)); err != nil {
			return nil, err
		}
		if ps.net, err = newNetPath(ps.op.OperandSignature(n, p.AccW), p); err != nil {
			return nil, err
		}
	} else if ps.add, err = newAddPath(p); err != nil {
		return nil, err
	}
	return ps, nil
}

// Cycle advances one clock with the given operand vector and returns the
// total. The slice length is a static port count; a mismatch panics.
func (ps *ParallelSimple) Cycle(values []uint64, enable, zero bool) uint64 {
	if len(values) != ps.n {
		panic(fmt.Sprintf("acc: operand port count %d, got %d", ps.n, len(values)))
	}
	masked := make([]uint64, ps.n)
	for i, v := range values {
		masked[i] = v & maskW(ps.inW)
	}
	if ps.net != nil {
		return ps.net.cycle(&ps.c, ps.op.AssembleOperandBits(masked, ps.c.accW), enable, zero)
	}
	var sum uint64
	for _, v := range masked {
		sum += extendOperand(v, ps.inW, ps.signed)
	}
	return ps.add.cycle(&ps.c, sum&ps.c.mask, enable, zero)
}

func (ps *ParallelSimple) Total() uint64 { return ps.c.Total() }

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PARALLELMULTIPLY: N operand-pair products summed simultaneously
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// The network form uses the full partial-product layout: N interleaved dot
// profiles per column plus the N-way summed sign correction. The true sign
// position of each pair product is inAW+inBW-1; the constant-style layout
// extends from there with no replication wires.
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

type ParallelMultiply struct {
	c     core
	n     int
	shape pp.Shape
	add   *addPath
	net   *netPath
}

func NewParallelMultiply(n, inAW, inBW int, p Params) (*ParallelMultiply, error) {
	if n < 1 {
		return nil, fmt.Errorf("acc: pair count must be >= 1, got %d", n)
	}
	shape := pp.Shape{InAW: inAW, InBW: inBW, Signed: p.Signed}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if inAW > 64 || inBW > 64 {
		return nil, fmt.Errorf("acc: operand widths must be <= 64, got %d x %d", inAW, inBW)
	}
	c, err := newCore(p)
	if err != nil {
		return nil, err
	}
	pm := &ParallelMultiply{c: c, n: n, shape: shape}
	if p.UseNetwork {
		if err := columnSpanCheck(shape.Columns(p.AccW)); err != nil {
			return nil, err
		}
		if pm.net, err = newNetPath(shape.PairSignature(n, p.AccW), p); err != nil {
			return nil, err
		}
	} else if pm.add, err = newAddPath(p); err != nil {
		return nil, err
	}
	return pm, nil
}

// Cycle advances one clock with the given operand-pair vectors and returns
// the total. Slice lengths are static port counts; a mismatch panics.
func (pm *ParallelMultiply) Cycle(as, bs []uint64, enable, zero bool) uint64 {
	if len(as) != pm.n || len(bs) != pm.n {
		panic(fmt.Sprintf("acc: pair port count %d, got %d and %d", pm.n, len(as), len(bs)))
	}
	ma := make([]uint64, pm.n)
	mb := make([]uint64, pm.n)
	for i := range ma {
		ma[i] = as[i] & maskW(pm.shape.InAW)
		mb[i] = bs[i] & maskW(pm.shape.InBW)
	}
	if pm.net != nil {
		return pm.net.cycle(&pm.c, pm.shape.AssembleBits(ma, mb, pm.c.accW), enable, zero)
	}
	var sum uint64
	for i := range ma {
		sum += extendOperand(ma[i], pm.shape.InAW, pm.shape.Signed) *
			extendOperand(mb[i], pm.shape.InBW, pm.shape.Signed)
	}
	return pm.add.cycle(&pm.c, sum&pm.c.mask, enable, zero)
}

func (pm *ParallelMultiply) Total() uint64 { return pm.c.Total() }
