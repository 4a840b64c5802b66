// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ACCUMX Delay Line - Hardware Reference Model
// ═══════════════════════════════════════════════════════════════════════════════════════════════
//
// A delay line is a chain of registers inserted purely to shorten a
// combinational path: the value presented on cycle t reappears on cycle
// t+depth, with zero functional effect beyond the added latency.
//
// The one invariant that matters: every signal that must recombine with
// another after a pipelined computation (the computed contribution, its
// enable, its zero-override) is pushed through a line of the SAME depth, so
// "this control belongs to this value" stays true at the recombination point.
// There is no synthesis-time retiming pass here; the registers are literal.
//
// HARDWARE MODEL:
// ───────────────
//   Line[T]       → depth cascaded registers of type T's width
//   Cycle()       → one clock edge: shift in the new value, emit the oldest
//   depth = 0     → a wire (identity, same cycle)
//   reset state   → all registers hold T's zero value
//
// The Go model uses a ring buffer instead of shifting every element; the
// observable behavior is identical to a shift register chain.
//
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package delay

import "fmt"

// Line delays values of type T by a fixed number of cycles.
type Line[T any] struct {
	buf  []T
	head int
}

// New builds a delay line of the given depth with all registers reset to T's
// zero value. A negative depth aborts elaboration.
func New[T any](depth int) (*Line[T], error) {
	if depth < 0 {
		return nil, fmt.Errorf("delay: depth must be >= 0, got %d", depth)
	}
	return &Line[T]{buf: make([]T, depth)}, nil
}

// NewInit builds a delay line whose registers all reset to the given value
// instead of T's zero value. Used where the reset state must be a well-formed
// composite (e.g. an all-low bit vector of the correct port width).
func NewInit[T any](depth int, reset T) (*Line[T], error) {
	l, err := New[T](depth)
	if err != nil {
		return nil, err
	}
	for i := range l.buf {
		l.buf[i] = reset
	}
	return l, nil
}

// Depth returns the line's register count.
func (l *Line[T]) Depth() int { return len(l.buf) }

// Cycle advances the line by one clock: the input value is captured and the
// value presented Depth() cycles earlier is returned. At depth 0 the line is
// a wire and the input is returned unchanged.
func (l *Line[T]) Cycle(v T) T {
	if len(l.buf) == 0 {
		return v
	}
	out := l.buf[l.head]
	l.buf[l.head] = v
	l.head++
	if l.head == len(l.buf) {
		l.head = 0
	}
	return out
}
