// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ACCUMX Reduction Network Boundary - Contract and Exact Reference Model
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// A reduction ("compressor") network collapses many same-column bits into a
// compact weighted sum. The accumulator core's obligation ends at the
// boundary: it hands over a signature (per-column bit counts fixed at
// elaboration) and, each cycle, a flat bit vector in strict ascending-column
// order. Whether the network sums exactly or trades exactness for
// area/power/performance is the network's own declared behavior, selected by
// an opaque configuration key.
//
// This package defines that boundary and provides the exact reference
// network: a carry-save compressor tree. Per layer, every column's bits are
// grouped into 3:2 full adders (sum stays, carry moves one column up) and
// 2:2 half adders until no column holds more than two bits, then a final
// carry-propagate addition produces the weighted sum. This is the classic
// Wallace reduction generalized from a fixed-row multiplier to an arbitrary
// column profile.
//
// HARDWARE MODEL:
// ───────────────
//   full adder   → s = a^b^c, carry = majority(a,b,c)
//   half adder   → s = a^b,   carry = a&b
//   one layer    → all adders fire in parallel (combinational)
//   final CPA    → ripple add of the two surviving rows
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package reduce

import (
	"fmt"

	"github.com/MaemoWong/AccumX/proto/sig"
)

// Metric selects the elaboration criterion a network optimizes for.
type Metric uint8

const (
	// Efficiency is the default selection criterion.
	Efficiency Metric = iota
	Performance
	Area

	metricCount
)

func (m Metric) String() string {
	switch m {
	case Efficiency:
		return "efficiency"
	case Performance:
		return "performance"
	case Area:
		return "area"
	default:
		return fmt.Sprintf("metric(%d)", uint8(m))
	}
}

// Style is an opaque approximation descriptor. Its interpretation belongs
// entirely to the network implementation; an empty style set means exact.
type Style string

// Config carries the network's construction parameters. All fields are fixed
// at elaboration; there is no runtime reconfiguration.
type Config struct {
	TargetDevice string
	Metric       Metric
	Styles       []Style
}

// Validate rejects configurations no network can elaborate.
func (c Config) Validate() error {
	if c.Metric >= metricCount {
		return fmt.Errorf("reduce: unknown metric %d", uint8(c.Metric))
	}
	return nil
}

// Network is the boundary contract. Reduce consumes a flat bit vector whose
// length equals Signature().Count() and returns the weighted sum; the result
// is wide enough for the signature's maximum possible sum (enforced at
// construction). A wrong-length vector is a port-width violation and panics.
type Network interface {
	Reduce(bits []bool) uint64
	Signature() sig.Signature
}

// New elaborates a network for the given signature and configuration. The
// returned implementation is the exact carry-save reference tree; it honors
// every Metric and Style combination with exact arithmetic.
func New(s sig.Signature, cfg Config) (Network, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, ok := s.MaxSum(); !ok {
		return nil, fmt.Errorf("reduce: signature maximum sum overflows 64 bits")
	}
	own := make(sig.Signature, len(s))
	copy(own, s)
	return &csaTree{sig: own, cfg: cfg}, nil
}

// csaTree is the exact reference network.
type csaTree struct {
	sig sig.Signature
	cfg Config
}

func (t *csaTree) Signature() sig.Signature { return t.sig }

// Reduce compresses the columns layer by layer, then carry-propagates.
func (t *csaTree) Reduce(bits []bool) uint64 {
	if len(bits) != t.sig.Count() {
		panic(fmt.Sprintf("reduce: bit vector length %d does not match signature count %d", len(bits), t.sig.Count()))
	}

	// Working columns. Compression can carry past the last signature column,
	// so leave headroom. MaxSum fitting 64 bits bounds the populated span:
	// construction already rejected any signature with bits at column >= 64,
	// so only empty groups can sit out there.
	cols := make([][]bool, 65)
	for c, group := range t.sig.Columns(bits) {
		if len(group) == 0 {
			continue
		}
		cols[c] = append(cols[c], group...)
	}

	// Compressor layers: run until every column holds at most two bits.
	// Each iteration models one parallel combinational layer.
	for {
		again := false
		for c := 0; c < 64; c++ {
			in := cols[c]
			if len(in) <= 2 {
				continue
			}
			var out []bool
			i := 0
			for ; i+3 <= len(in); i += 3 {
				a, b, ci := in[i], in[i+1], in[i+2]
				s := a != b != ci
				carry := (a && b) || (b && ci) || (a && ci)
				out = append(out, s)
				if carry {
					cols[c+1] = append(cols[c+1], true)
				}
			}
			if len(in)-i == 2 {
				a, b := in[i], in[i+1]
				out = append(out, a != b)
				if a && b {
					cols[c+1] = append(cols[c+1], true)
				}
			} else if len(in)-i == 1 {
				out = append(out, in[i])
			}
			cols[c] = out
			if len(out) > 2 {
				again = true
			}
		}
		if !again {
			break
		}
	}

	// Final carry-propagate add of the two surviving rows. Column 64 is
	// always empty: a true carry into it would need two high bits of weight
	// 2^63, which MaxSum fitting 64 bits rules out.
	var row0, row1 uint64
	for c := 0; c < 64; c++ {
		for i, b := range cols[c] {
			if !b {
				continue
			}
			if i == 0 {
				row0 |= 1 << uint(c)
			} else {
				row1 |= 1 << uint(c)
			}
		}
	}
	return row0 + row1
}
