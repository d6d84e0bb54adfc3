package circuit

import (
	"math/rand"
	"strings"
	"testing"
)

func seededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestNewWireWellFormed(t *testing.T) {
	rnd := seededRand(1)
	for i := 0; i < 200; i++ {
		w, err := NewWire(i, rnd)
		if err != nil {
			t.Fatalf("wire %d: %v", i, err)
		}
		if w.Hashes.H0 == w.Hashes.H1 {
			t.Fatalf("wire %d: H0 == H1", i)
		}
	}
}

func TestWireAddPreimageContradiction(t *testing.T) {
	rnd := seededRand(2)
	w, err := NewWire(0, rnd)
	if err != nil {
		t.Fatal(err)
	}
	p := w.Preimages()

	// Fresh wire already has both preimages (construction samples them);
	// reset to simulate an empty commitment before any reveal.
	w.preimage = PreimagePair{}

	contradiction, err := w.AddPreimage(p.P0)
	if err != nil {
		t.Fatalf("adding P0: %v", err)
	}
	if contradiction {
		t.Fatalf("expected no contradiction after a single preimage")
	}

	contradiction, err = w.AddPreimage(p.P1)
	if err != nil {
		t.Fatalf("adding P1: %v", err)
	}
	if !contradiction {
		t.Fatalf("expected contradiction after both preimages revealed")
	}
	if !w.Contradicted() {
		t.Fatalf("Contradicted() should report true")
	}
}

func TestWireAlienPreimage(t *testing.T) {
	rnd := seededRand(3)
	w, err := NewWire(0, rnd)
	if err != nil {
		t.Fatal(err)
	}
	var alien [32]byte
	alien[0] = 0xFF
	if _, err := w.AddPreimage(alien); err == nil {
		t.Fatalf("expected AlienPreimage error")
	}
}

func TestNumberBoolArrayRoundTrip(t *testing.T) {
	for k := 1; k <= 16; k++ {
		for n := uint64(0); n < (1 << uint(k)); n++ {
			bits := NumberToBoolArray(n, k)
			got := BoolArrayToNumber(bits)
			if got != n {
				t.Fatalf("roundtrip failed for n=%d k=%d: got %d", n, k, got)
			}
		}
	}
}

func TestRippleCarryAdder64BitCounts(t *testing.T) {
	rnd := seededRand(4)
	c, text, err := GenerateRippleCarryAdder(64, rnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Gates) != 376 {
		t.Fatalf("expected 376 gates, got %d", len(c.Gates))
	}
	if len(c.Wires) != 504 {
		t.Fatalf("expected 504 wires, got %d", len(c.Wires))
	}
	if strings.Count(text, "\n") < 376+3 {
		t.Fatalf("generated text looks truncated")
	}
}

func TestRippleCarryAdderArithmetic(t *testing.T) {
	rnd := seededRand(5)
	c, _, err := GenerateRippleCarryAdder(64, rnd)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct{ a, b uint64 }{
		{633, 300},
		{633, 15},
		{0, 0},
		{1<<64 - 1, 1},
		{1<<64 - 1, 1<<64 - 1},
	}
	for _, tc := range cases {
		out, err := c.Evaluate([][]bool{
			NumberToBoolArray(tc.a, 64),
			NumberToBoolArray(tc.b, 64),
		})
		if err != nil {
			t.Fatalf("evaluate(%d,%d): %v", tc.a, tc.b, err)
		}
		got := BoolArrayToNumber(out)
		want := tc.a + tc.b // wraps mod 2^64 in Go's uint64 arithmetic
		if got != want {
			t.Fatalf("evaluate(%d,%d) = %d, want %d", tc.a, tc.b, got, want)
		}
	}
}

func TestLoadRejectsBadWireIndex(t *testing.T) {
	bad := "1 2\n1 1\n1 1\n2 1 0 5 1 AND\n"
	_, err := Load(strings.NewReader(bad), seededRand(6))
	if err == nil {
		t.Fatalf("expected error for out-of-range wire index")
	}
}

func TestLoadSmallHandwrittenCircuit(t *testing.T) {
	// 2-bit AND followed by a NOT, purely to exercise the loader/evaluator
	// against a small, hand-checkable Bristol file.
	src := "2 3\n2 1 1\n1 1\n2 1 0 1 2 AND\n1 1 2 2 NOT\n"
	c, err := Load(strings.NewReader(src), seededRand(7))
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Evaluate([][]bool{{true}, {true}})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != false {
		t.Fatalf("NOT(AND(1,1)) should be false, got %v", out[0])
	}
	out, err = c.Evaluate([][]bool{{true}, {false}})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != true {
		t.Fatalf("NOT(AND(1,0)) should be true, got %v", out[0])
	}
}
