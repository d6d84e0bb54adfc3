package script

import (
	"fmt"

	"github.com/rawblock/bitvm-go/internal/circuit"
	"github.com/rawblock/bitvm-go/internal/protoerr"
)

func errInputArity(gt circuit.GateType, got int) error {
	return protoerr.New(protoerr.BadCircuit, fmt.Sprintf("%s gate response script needs %d input hash pairs, got %d", gt, gt.InputArity(), got), nil)
}
