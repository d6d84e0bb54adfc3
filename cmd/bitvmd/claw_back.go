package main

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/cobra"

	"github.com/rawblock/bitvm-go/internal/keys"
	"github.com/rawblock/bitvm-go/internal/protocol"
	"github.com/rawblock/bitvm-go/internal/taproot"
)

var clawBackFlags struct {
	bits         int
	circuitPath  string
	proverSeed   int64
	verifierSeed int64
	prevTxid     string
	vout         uint32
	payout       int64
	side         string
}

// clawBackCmd spends a timelocked leaf unilaterally once §4.F's
// DefaultTimelockBlocks relative lock has matured: the Prover reclaims
// an equivocation output nobody contested, or the Verifier reclaims a
// response-second output the Prover never continued from. Either side
// is a single-signature CSV spend, no counterparty cooperation needed —
// that is the whole point of a claw-back.
var clawBackCmd = &cobra.Command{
	Use:   "claw-back",
	Short: "Reclaim a bond output unilaterally after its CSV timelock has matured",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClawBack()
	},
}

func runClawBack() error {
	if clawBackFlags.side != "prover" && clawBackFlags.side != "verifier" {
		return fmt.Errorf("--side must be \"prover\" or \"verifier\", got %q", clawBackFlags.side)
	}

	proverID, verifierID, err := twoParties(clawBackFlags.proverSeed, clawBackFlags.verifierSeed)
	if err != nil {
		return err
	}

	rnd := seededReader(clawBackFlags.proverSeed ^ clawBackFlags.verifierSeed)
	circ, err := loadOrGenerateCircuit(clawBackFlags.circuitPath, clawBackFlags.bits, rnd)
	if err != nil {
		return fmt.Errorf("loading circuit: %w", err)
	}

	prevTxid, err := chainhash.NewHashFromStr(clawBackFlags.prevTxid)
	if err != nil {
		return fmt.Errorf("--prev-txid: %w", err)
	}

	lc, err := connectLedger()
	if err != nil {
		return fmt.Errorf("connecting to regtest node: %w", err)
	}
	defer lc.Shutdown()

	minerAddr, err := soloTaprootAddress(verifierID.PublicKey())
	if err != nil {
		return fmt.Errorf("deriving mining address: %w", err)
	}

	var tree *taproot.Built
	var claimant keys.KeyProvider
	switch clawBackFlags.side {
	case "prover":
		tree, err = taproot.EquivocationAddress(circ.Wires, proverID.PublicKey(), verifierID.PublicKey())
		claimant = proverID
	case "verifier":
		tree, err = taproot.ResponseSecondAddress(proverID.PublicKey(), verifierID.PublicKey())
		claimant = verifierID
	}
	if err != nil {
		return fmt.Errorf("building claw-back tree: %w", err)
	}

	leafKind := map[string]string{"prover": "timelock", "verifier": "response_second_timelock"}[clawBackFlags.side]
	idx := tree.IndexOf(func(r taproot.LeafRef) bool { return r.Kind == leafKind })
	if idx < 0 {
		return fmt.Errorf("no %s leaf in claw-back tree", leafKind)
	}
	leafScript, err := tree.Tree.LeafScript(idx)
	if err != nil {
		return err
	}
	controlBlock, err := tree.Tree.ControlBlock(idx)
	if err != nil {
		return err
	}

	prevOut, err := fetchPrevOut(lc, prevTxid, clawBackFlags.vout)
	if err != nil {
		return fmt.Errorf("reading claw-back input: %w", err)
	}

	payoutScript, err := soloTaprootPkScript(claimant.PublicKey())
	if err != nil {
		return fmt.Errorf("building payout script: %w", err)
	}

	payout := clawBackFlags.payout
	if payout <= 0 {
		payout = prevOut.Value - cfg.Bond.Fee
	}
	if payout <= 0 {
		return fmt.Errorf("claw-back input %d sats cannot cover the fee", prevOut.Value)
	}

	tx := wire.NewMsgTx(2)
	in := wire.NewTxIn(wire.NewOutPoint(prevTxid, clawBackFlags.vout), nil, nil)
	in.Sequence = taproot.DefaultTimelockBlocks
	tx.AddTxIn(in)
	tx.AddTxOut(wire.NewTxOut(payout, payoutScript))

	sighash, err := protocol.TapLeafSighash(tx, []*wire.TxOut{prevOut}, 0, leafScript)
	if err != nil {
		return fmt.Errorf("computing claw-back sighash: %w", err)
	}
	sig, err := claimant.Sign(sighash)
	if err != nil {
		return fmt.Errorf("%s signing claw-back: %w", clawBackFlags.side, err)
	}
	tx.TxIn[0].Witness = append(protocol.AssembleTimelockWitness(sig), leafScript, controlBlock)

	// The CSV relative-locktime check only accepts this input once the
	// spent output has DefaultTimelockBlocks confirmations; mining that
	// many blocks here stands in for that wait in this regtest demo.
	if _, err := lc.GenerateBlocks(taproot.DefaultTimelockBlocks, minerAddr); err != nil {
		return fmt.Errorf("maturing the timelock: %w", err)
	}

	txid, err := broadcastAndConfirm(lc, tx, minerAddr)
	if err != nil {
		return fmt.Errorf("broadcasting claw-back tx: %w", err)
	}
	log.Info().
		Str("side", clawBackFlags.side).
		Str("prev_txid", prevTxid.String()).
		Str("claw_back_txid", txid.String()).
		Msg("bond clawed back")
	fmt.Println(txid.String())
	return nil
}

func init() {
	clawBackCmd.Flags().IntVar(&clawBackFlags.bits, "bits", 4, "width of the generated ripple-carry adder demo circuit")
	clawBackCmd.Flags().StringVar(&clawBackFlags.circuitPath, "circuit", "", "path to a Bristol-format circuit file (overrides --bits)")
	clawBackCmd.Flags().Int64Var(&clawBackFlags.proverSeed, "prover-seed", 1, "deterministic entropy seed for the Prover's keypair")
	clawBackCmd.Flags().Int64Var(&clawBackFlags.verifierSeed, "verifier-seed", 2, "deterministic entropy seed for the Verifier's keypair")
	clawBackCmd.Flags().StringVar(&clawBackFlags.prevTxid, "prev-txid", "", "txid of the transaction carrying the output being clawed back")
	clawBackCmd.Flags().Uint32Var(&clawBackFlags.vout, "vout", 1, "vout index of the output being clawed back")
	clawBackCmd.Flags().Int64Var(&clawBackFlags.payout, "payout", 0, "payout amount in satoshis (defaults to the input value minus the configured fee)")
	clawBackCmd.Flags().StringVar(&clawBackFlags.side, "side", "prover", "\"prover\" reclaims an equivocation output, \"verifier\" reclaims a response-second output")
	clawBackCmd.MarkFlagRequired("prev-txid")
}
