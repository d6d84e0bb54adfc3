// Package circuit implements the wire/gate/circuit data model described
// for the challenge/response engine: dual-preimage bit commitments per
// wire (see wire.go), AND/XOR/NOT gate semantics (see gate.go), and a
// Bristol-format loader/evaluator (this file), modeled in Go after the
// Rust circuit/mod.rs this protocol's spec was distilled from, adapted
// into the arena-of-wires-by-index shape idiomatic Go favors over shared
// Arc<Mutex<Wire>> references.
package circuit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// Circuit is an ordered list of gates in topological order (the Bristol
// format already guarantees this), an ordered list of wires indexed
// 0..W, and the input/output wire-size partitions from the header.
type Circuit struct {
	Gates           []*Gate
	Wires           []*Wire
	InputWireSizes  []int
	OutputWireSizes []int
}

// NumInputWires is the sum of InputWireSizes — the first NumInputWires
// entries of Wires are circuit inputs.
func (c *Circuit) NumInputWires() int {
	n := 0
	for _, s := range c.InputWireSizes {
		n += s
	}
	return n
}

// NumOutputWires is the sum of OutputWireSizes — the last NumOutputWires
// entries of Wires are circuit outputs.
func (c *Circuit) NumOutputWires() int {
	n := 0
	for _, s := range c.OutputWireSizes {
		n += s
	}
	return n
}

// Load parses a Bristol-format circuit from r, constructing fresh
// bit-commitment wires (sampled from rnd) for every wire index the
// header declares.
//
// Bristol format:
//
//	<#gates> <#wires>
//	<n_inputs> s_0 s_1 ...
//	<n_outputs> s_0 s_1 ...
//	<nin> <nout> <w_in_0> ... <w_in_{nin-1}> <w_out> <TYPE>   (one per gate)
//
// Blank lines are tolerated; wire indices must be < #wires.
func Load(r io.Reader, rnd io.Reader) (*Circuit, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var headerLines []string
	for len(headerLines) < 3 && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		headerLines = append(headerLines, line)
	}
	if len(headerLines) < 3 {
		return nil, protoerr.New(protoerr.BadCircuit, "truncated header: need gate/wire count, input sizes, output sizes", nil)
	}

	numGates, numWires, err := parseTwoInts(headerLines[0])
	if err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, "bad header line 1", err)
	}
	inputSizes, err := parseSizeLine(headerLines[1])
	if err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, "bad header line 2 (input sizes)", err)
	}
	outputSizes, err := parseSizeLine(headerLines[2])
	if err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, "bad header line 3 (output sizes)", err)
	}

	wires := make([]*Wire, numWires)
	for i := 0; i < numWires; i++ {
		w, err := NewWire(i, rnd)
		if err != nil {
			return nil, err
		}
		wires[i] = w
	}

	gates := make([]*Gate, 0, numGates)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		gate, err := parseGateLine(line, numWires, len(gates))
		if err != nil {
			return nil, err
		}
		gates = append(gates, gate)
	}
	if err := scanner.Err(); err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, "reading gate lines", err)
	}
	if len(gates) != numGates {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("header declared %d gates, found %d", numGates, len(gates)), nil)
	}

	return &Circuit{
		Gates:           gates,
		Wires:           wires,
		InputWireSizes:  inputSizes,
		OutputWireSizes: outputSizes,
	}, nil
}

func parseTwoInts(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func parseSizeLine(line string) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty size line")
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, err
	}
	if len(fields) != count+1 {
		return nil, fmt.Errorf("declared %d sizes, found %d", count, len(fields)-1)
	}
	sizes := make([]int, count)
	for i := 0; i < count; i++ {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, err
		}
		sizes[i] = v
	}
	return sizes, nil
}

func parseGateLine(line string, numWires, gateIdx int) (*Gate, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: malformed line %q", gateIdx, line), nil)
	}
	nin, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: bad nin", gateIdx), err)
	}
	nout, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: bad nout", gateIdx), err)
	}
	if nout != 1 {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: only single-output gates are supported, got nout=%d", gateIdx, nout), nil)
	}
	wantFields := 2 + nin + nout + 1
	if len(fields) != wantFields {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: expected %d fields, got %d", gateIdx, wantFields, len(fields)), nil)
	}

	wireIdx := func(tok string) (int, error) {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return 0, err
		}
		if v < 0 || v >= numWires {
			return 0, fmt.Errorf("wire index %d out of range [0,%d)", v, numWires)
		}
		return v, nil
	}

	inputs := make([]int, nin)
	for i := 0; i < nin; i++ {
		v, err := wireIdx(fields[2+i])
		if err != nil {
			return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: input %d", gateIdx, i), err)
		}
		inputs[i] = v
	}
	output, err := wireIdx(fields[2+nin])
	if err != nil {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: output", gateIdx), err)
	}
	gateType, err := ParseGateType(fields[2+nin+nout])
	if err != nil {
		return nil, err
	}
	if gateType.InputArity() != nin {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("gate %d: %s expects %d inputs, got %d", gateIdx, gateType, gateType.InputArity(), nin), nil)
	}

	return &Gate{Type: gateType, Inputs: inputs, Output: output, GateIdx: gateIdx}, nil
}

// Evaluate asserts |inputs| == |InputWireSizes| and each |inputs[k]| ==
// InputWireSizes[k], writes selectors into the first NumInputWires()
// wires, walks the gate list in order writing each gate's output
// selector, and returns the last NumOutputWires() selectors sliced off
// the back of the wire list.
func (c *Circuit) Evaluate(inputs [][]bool) ([]bool, error) {
	if len(inputs) != len(c.InputWireSizes) {
		return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("expected %d input groups, got %d", len(c.InputWireSizes), len(inputs)), nil)
	}
	wireCursor := 0
	for k, group := range inputs {
		if len(group) != c.InputWireSizes[k] {
			return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("input group %d: expected %d bits, got %d", k, c.InputWireSizes[k], len(group)), nil)
		}
		for _, b := range group {
			c.Wires[wireCursor].SetSelector(b)
			wireCursor++
		}
	}

	for _, g := range c.Gates {
		if err := g.Evaluate(c.Wires); err != nil {
			return nil, err
		}
	}

	numOut := c.NumOutputWires()
	start := len(c.Wires) - numOut
	out := make([]bool, numOut)
	for i := 0; i < numOut; i++ {
		b, ok := c.Wires[start+i].Selector()
		if !ok {
			return nil, protoerr.New(protoerr.BadCircuit, fmt.Sprintf("output wire %d never evaluated", start+i), nil)
		}
		out[i] = b
	}
	return out, nil
}
