package main

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/cobra"

	"github.com/rawblock/bitvm-go/internal/protocol"
	"github.com/rawblock/bitvm-go/internal/taproot"
)

var claimFlags struct {
	bits          int
	circuitPath   string
	proverSeed    int64
	verifierSeed  int64
	challengeTxid string
	wire          int
	p0            string
	p1            string
}

// claimEquivocationCmd builds and broadcasts the fallback transaction
// from §4.I: given both preimages of a single wire's hash pair, it
// spends vout 1 of an existing challenge transaction via that wire's
// anti_contradiction leaf and pays the Verifier that output's value
// less one fee+dust step of the bond schedule. Producing two preimages for the same wire is exactly the
// contradiction the equivocation tree exists to punish.
var claimEquivocationCmd = &cobra.Command{
	Use:   "claim-equivocation",
	Short: "Claim a contradiction: spend a challenge tx's equivocation output by revealing both preimages of a wire",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClaimEquivocation()
	},
}

func runClaimEquivocation() error {
	proverID, verifierID, err := twoParties(claimFlags.proverSeed, claimFlags.verifierSeed)
	if err != nil {
		return err
	}

	rnd := seededReader(claimFlags.proverSeed ^ claimFlags.verifierSeed)
	circ, err := loadOrGenerateCircuit(claimFlags.circuitPath, claimFlags.bits, rnd)
	if err != nil {
		return fmt.Errorf("loading circuit: %w", err)
	}
	if claimFlags.wire < 0 || claimFlags.wire >= len(circ.Wires) {
		return fmt.Errorf("--wire %d out of range [0,%d)", claimFlags.wire, len(circ.Wires))
	}

	var p0, p1 [32]byte
	if err := decodePreimage(claimFlags.p0, &p0); err != nil {
		return fmt.Errorf("--p0: %w", err)
	}
	if err := decodePreimage(claimFlags.p1, &p1); err != nil {
		return fmt.Errorf("--p1: %w", err)
	}

	challengeTxid, err := chainhash.NewHashFromStr(claimFlags.challengeTxid)
	if err != nil {
		return fmt.Errorf("--challenge-txid: %w", err)
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

	equivTree, err := taproot.EquivocationAddress(circ.Wires, proverID.PublicKey(), verifierID.PublicKey())
	if err != nil {
		return fmt.Errorf("building equivocation address: %w", err)
	}
	antiIdx := equivTree.IndexOf(func(r taproot.LeafRef) bool {
		return r.Kind == "anti_contradiction" && r.Wire == claimFlags.wire
	})
	if antiIdx < 0 {
		return fmt.Errorf("no anti-contradiction leaf for wire %d", claimFlags.wire)
	}
	antiScript, err := equivTree.Tree.LeafScript(antiIdx)
	if err != nil {
		return err
	}
	antiControl, err := equivTree.Tree.ControlBlock(antiIdx)
	if err != nil {
		return err
	}

	prevOut, err := fetchPrevOut(lc, challengeTxid, 1)
	if err != nil {
		return fmt.Errorf("reading challenge tx's equivocation output: %w", err)
	}

	verifierPkScript, err := soloTaprootPkScript(verifierID.PublicKey())
	if err != nil {
		return fmt.Errorf("building verifier payout script: %w", err)
	}

	sched := protocol.BondSchedule{Amount: cfg.Bond.Amount, Fee: cfg.Bond.Fee, DustLimit: cfg.Bond.DustLimit, L: cfg.Bond.Bisection}
	claimTx, err := protocol.BuildEquivocationClaimTx(0, challengeTxid, verifierPkScript, sched)
	if err != nil {
		return fmt.Errorf("building equivocation claim tx: %w", err)
	}

	sighash, err := protocol.TapLeafSighash(claimTx, []*wire.TxOut{prevOut}, 0, antiScript)
	if err != nil {
		return fmt.Errorf("computing claim sighash: %w", err)
	}
	vsig, err := verifierID.Sign(sighash)
	if err != nil {
		return fmt.Errorf("verifier signing equivocation claim: %w", err)
	}
	claimTx.TxIn[0].Witness = protocol.AssembleEquivocationClaimWitness(vsig, p1, p0, antiScript, antiControl)

	claimTxid, err := broadcastAndConfirm(lc, claimTx, minerAddr)
	if err != nil {
		return fmt.Errorf("broadcasting equivocation claim tx: %w", err)
	}
	log.Info().
		Int("wire", claimFlags.wire).
		Str("challenge_txid", challengeTxid.String()).
		Str("claim_txid", claimTxid.String()).
		Msg("equivocation claimed")
	fmt.Println(claimTxid.String())
	return nil
}

func decodePreimage(s string, out *[32]byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("want 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return nil
}

func init() {
	claimEquivocationCmd.Flags().IntVar(&claimFlags.bits, "bits", 4, "width of the generated ripple-carry adder demo circuit")
	claimEquivocationCmd.Flags().StringVar(&claimFlags.circuitPath, "circuit", "", "path to a Bristol-format circuit file (overrides --bits)")
	claimEquivocationCmd.Flags().Int64Var(&claimFlags.proverSeed, "prover-seed", 1, "deterministic entropy seed for the Prover's keypair")
	claimEquivocationCmd.Flags().Int64Var(&claimFlags.verifierSeed, "verifier-seed", 2, "deterministic entropy seed for the Verifier's keypair")
	claimEquivocationCmd.Flags().StringVar(&claimFlags.challengeTxid, "challenge-txid", "", "txid of the challenge transaction whose equivocation output (vout 1) is being spent")
	claimEquivocationCmd.Flags().IntVar(&claimFlags.wire, "wire", 0, "index of the wire whose hash pair was contradicted")
	claimEquivocationCmd.Flags().StringVar(&claimFlags.p0, "p0", "", "hex preimage mapping to the wire's H0")
	claimEquivocationCmd.Flags().StringVar(&claimFlags.p1, "p1", "", "hex preimage mapping to the wire's H1")
	claimEquivocationCmd.MarkFlagRequired("challenge-txid")
	claimEquivocationCmd.MarkFlagRequired("p0")
	claimEquivocationCmd.MarkFlagRequired("p1")
}
