package circuit

import (
	"fmt"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// GateType is the boolean operation a Gate performs. Only AND, XOR and NOT
// are supported — the original BitVM demo's circuit model also carried an
// OR variant (see circuit/gate.rs in the retrieved Rust source), but this
// protocol's scope explicitly excludes gate types beyond AND/XOR/NOT.
type GateType int

const (
	AND GateType = iota
	XOR
	NOT
)

func (t GateType) String() string {
	switch t {
	case AND:
		return "AND"
	case XOR:
		return "XOR"
	case NOT:
		return "NOT"
	default:
		return "UNKNOWN"
	}
}

// ParseGateType maps a Bristol-format type token to a GateType.
func ParseGateType(token string) (GateType, error) {
	switch token {
	case "AND":
		return AND, nil
	case "XOR":
		return XOR, nil
	case "NOT", "INV":
		return NOT, nil
	default:
		return 0, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("unsupported gate type %q", token), nil)
	}
}

// InputArity is the number of input wires the gate type consumes.
func (t GateType) InputArity() int {
	if t == NOT {
		return 1
	}
	return 2
}

// Gate is one operation in the circuit, referring to its input and output
// wires by index into the owning Circuit's Wires slice — wires are
// arena-owned by the Circuit, gates hold only WireId-style integer
// references, never pointers, so no per-wire synchronization is needed
// while gates are read during script assembly.
type Gate struct {
	Type    GateType
	Inputs  []int // wire indices, length == Type.InputArity()
	Output  int   // wire index
	GateIdx int   // position of this gate within the circuit's gate list
}

// Evaluate applies the gate's boolean function to the current bits on its
// input wires and writes the result as the output wire's selector.
func (g *Gate) Evaluate(wires []*Wire) error {
	bits := make([]bool, len(g.Inputs))
	for i, wi := range g.Inputs {
		b, ok := wires[wi].Selector()
		if !ok {
			return protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: input wire %d not evaluated", g.GateIdx, wi), nil)
		}
		bits[i] = b
	}

	var out bool
	switch g.Type {
	case AND:
		out = bits[0] && bits[1]
	case XOR:
		out = bits[0] != bits[1]
	case NOT:
		out = !bits[0]
	default:
		return protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: unknown gate type", g.GateIdx), nil)
	}
	wires[g.Output].SetSelector(out)
	return nil
}

// Eval is the pure boolean function a gate type computes — the same
// function Gate.Evaluate applies — used by the response-script soundness
// tests to check that every witness the response script accepts is
// consistent with Eval.
func Eval(t GateType, bits ...bool) bool {
	switch t {
	case AND:
		return bits[0] && bits[1]
	case XOR:
		return bits[0] != bits[1]
	case NOT:
		return !bits[0]
	default:
		panic("circuit: unknown gate type")
	}
}
