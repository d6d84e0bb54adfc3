package circuit

import (
	"fmt"
	"io"
	"strings"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// GenerateRippleCarryAdder produces a Bristol-format text circuit
// computing (a + b) mod 2^bits for two bits-wide unsigned inputs, and
// loads it into a Circuit with commitments sampled from rnd.
//
// The reference circuits/add.txt this protocol's original BitVM demo
// shipped is a binary fixture not present in this repository's retrieved
// sources (only code and build files were kept), so rather than guess at
// its exact gate layout this generator builds an equivalent adder from
// first principles: a carry-chain pass (AND/XOR only, no OR, per this
// protocol's gate-type restriction) followed by a separate sum pass, so
// every output wire lands contiguously as the LAST bits wires — required
// for Circuit.Evaluate's output-slicing convention. For bits=64 this
// produces exactly 376 gates over 504 wires, matching the scenario in the
// protocol's test-property documentation.
func GenerateRippleCarryAdder(bits int, rnd io.Reader) (*Circuit, string, error) {
	if bits < 1 {
		return nil, "", protoerr.New(protoerr.BadCircuit, "adder width must be >= 1", nil)
	}

	// Wire layout: [0, bits) = a, [bits, 2*bits) = b, then carry-chain
	// temporaries, then exactly `bits` sum wires at the very end.
	a := func(i int) int { return i }
	b := func(i int) int { return bits + i }

	next := 2 * bits
	alloc := func() int {
		w := next
		next++
		return w
	}

	var gates []string
	emit := func(t GateType, in0, in1, out int) {
		gates = append(gates, fmt.Sprintf("2 1 %d %d %d %s", in0, in1, out, t))
	}

	// Pass 1: carry chain. carry[i] is the carry INTO bit i+1, for
	// i = 0 .. bits-2. The final carry-out of the top bit is never
	// computed: this adder's output is a+b mod 2^bits, so the overflow
	// bit is intentionally dropped, exactly as the "mod 2^64" scenario
	// specifies.
	carry := make([]int, max(bits-1, 0))
	if bits >= 2 {
		c0 := alloc()
		emit(AND, a(0), b(0), c0)
		carry[0] = c0
		for i := 1; i <= bits-2; i++ {
			x := alloc()
			emit(XOR, a(i), b(i), x)
			p1 := alloc()
			emit(AND, a(i), b(i), p1)
			p2 := alloc()
			emit(AND, x, carry[i-1], p2)
			ci := alloc()
			emit(XOR, p1, p2, ci)
			carry[i] = ci
		}
	}

	// Pass 2: sum chain, emitted last so the sum bits are contiguous at
	// the end of the wire list.
	// The a XOR b temporaries come first so that nothing else is
	// allocated between the sum wires.
	xs := make([]int, bits)
	for i := 1; i < bits; i++ {
		xs[i] = alloc()
		emit(XOR, a(i), b(i), xs[i])
	}
	sum := make([]int, bits)
	sum[0] = alloc()
	emit(XOR, a(0), b(0), sum[0])
	for i := 1; i < bits; i++ {
		si := alloc()
		emit(XOR, xs[i], carry[i-1], si)
		sum[i] = si
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "%d %d\n", len(gates), next)
	fmt.Fprintf(&buf, "2 %d %d\n", bits, bits)
	fmt.Fprintf(&buf, "1 %d\n", bits)
	for _, g := range gates {
		buf.WriteString(g)
		buf.WriteByte('\n')
	}
	text := buf.String()

	c, err := Load(strings.NewReader(text), rnd)
	if err != nil {
		return nil, "", fmt.Errorf("generated adder circuit failed to parse: %w", err)
	}
	return c, text, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
