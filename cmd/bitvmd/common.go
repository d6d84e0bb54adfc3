package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rawblock/bitvm-go/internal/circuit"
	"github.com/rawblock/bitvm-go/internal/dashboard"
	"github.com/rawblock/bitvm-go/internal/keys"
	"github.com/rawblock/bitvm-go/internal/ledger"
	"github.com/rawblock/bitvm-go/internal/metrics"
	"github.com/rawblock/bitvm-go/internal/protocol"
	"github.com/rawblock/bitvm-go/internal/store"
)

// regtestParams is the network every address this driver builds or
// parses is encoded for; the core never touches mainnet.
var regtestParams = &chaincfg.RegressionNetParams

// broadcastAndConfirm sends tx, mines a single block paying toAddr so
// regtest confirms it, and returns the resulting txid.
func broadcastAndConfirm(lc *ledger.RegtestClient, tx *wire.MsgTx, toAddr string) (*chainhash.Hash, error) {
	txid, err := lc.SendRawTx(tx)
	if err != nil {
		return nil, err
	}
	if _, err := lc.GenerateBlocks(1, toAddr); err != nil {
		return nil, fmt.Errorf("confirming %s: %w", txid, err)
	}
	return txid, nil
}

// wiredSession builds a protocol.Session fanning every round transition
// out to the Prometheus collectors and, when configured, the session
// store and spectator dashboard hub — the same fan-out shape
// cmd/engine/main.go wires its scanner callbacks through, just with
// the Recorder/Gauges seams instead of direct calls.
func wiredSession(ctx context.Context, reg prometheus.Registerer, st *store.Store, hub *dashboard.Hub) *protocol.Session {
	gauges := metrics.New(reg)

	var recorders protocol.MultiRecorder
	if st != nil {
		recorders = append(recorders, st)
	}
	if hub != nil {
		recorders = append(recorders, hub)
	}

	var rec protocol.Recorder = protocol.NopRecorder{}
	if len(recorders) > 0 {
		rec = recorders
	}
	return protocol.NewSession(rec, gauges)
}

// soloTaprootAddress returns the key-path-only P2TR address for pk, used
// purely as a regtest coinbase destination when mining confirmation
// blocks — nothing in this protocol ever spends from it.
func soloTaprootAddress(pk *btcec.PublicKey) (string, error) {
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(pk), regtestParams)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// soloTaprootPkScript is the raw scriptPubKey behind soloTaprootAddress,
// for building transaction outputs directly without round-tripping
// through address encoding.
func soloTaprootPkScript(pk *btcec.PublicKey) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_1).
		AddData(schnorr.SerializePubKey(pk)).
		Script()
}

// fetchPrevOut reads vout of txid from the ledger and returns it as a
// wire.TxOut, so a CLI command built against an already-confirmed
// transaction can compute a tapscript sighash without having kept the
// transaction around itself.
func fetchPrevOut(lc *ledger.RegtestClient, txid *chainhash.Hash, vout uint32) (*wire.TxOut, error) {
	raw, err := lc.GetRawTx(txid)
	if err != nil {
		return nil, err
	}
	if int(vout) >= len(raw.Vout) {
		return nil, fmt.Errorf("%s has no vout %d", txid, vout)
	}
	out := raw.Vout[vout]
	amt, err := btcutil.NewAmount(out.Value)
	if err != nil {
		return nil, fmt.Errorf("parsing vout %d value: %w", vout, err)
	}
	pkScript, err := hex.DecodeString(out.ScriptPubKey.Hex)
	if err != nil {
		return nil, fmt.Errorf("decoding vout %d scriptPubKey: %w", vout, err)
	}
	return &wire.TxOut{Value: int64(amt), PkScript: pkScript}, nil
}

// seededReader turns a plain int64 seed into the io.Reader entropy
// source keys.Generate and circuit.Load expect, so --seed flags give
// fully reproducible demo/setup runs without needing crypto/rand.
func seededReader(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// loadOrGenerateCircuit reads a Bristol file from path if given, or
// else generates the bundled ripple-carry adder demo circuit at the
// requested width.
func loadOrGenerateCircuit(path string, bits int, rnd *rand.Rand) (*circuit.Circuit, error) {
	if path == "" {
		c, _, err := circuit.GenerateRippleCarryAdder(bits, rnd)
		return c, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening circuit file: %w", err)
	}
	defer f.Close()
	return circuit.Load(f, rnd)
}

// connectLedger builds the regtest ledger client from cfg.
func connectLedger() (*ledger.RegtestClient, error) {
	return ledger.NewRegtestClient(ledger.Config{
		Host: cfg.Ledger.Host,
		User: cfg.Ledger.User,
		Pass: cfg.Ledger.Pass,
	})
}

// twoParties derives deterministic Prover/Verifier identities from a
// pair of seeds, the way circuit/wire.rs's StdRng::seed_from_u64 made
// the original Rust demo reproducible.
func twoParties(proverSeed, verifierSeed int64) (prover, verifier *keys.Identity, err error) {
	prover, err = keys.Generate(seededReader(proverSeed))
	if err != nil {
		return nil, nil, fmt.Errorf("generating prover identity: %w", err)
	}
	verifier, err = keys.Generate(seededReader(verifierSeed))
	if err != nil {
		return nil, nil, fmt.Errorf("generating verifier identity: %w", err)
	}
	return prover, verifier, nil
}
