package main

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rawblock/bitvm-go/internal/circuit"
	"github.com/rawblock/bitvm-go/internal/dashboard"
	"github.com/rawblock/bitvm-go/internal/protocol"
	"github.com/rawblock/bitvm-go/internal/store"
	"github.com/rawblock/bitvm-go/internal/taproot"
)

var playFlags struct {
	bits         int
	circuitPath  string
	proverSeed   int64
	verifierSeed int64
	gate         int
}

// playCmd drives round 0 of the challenge/response protocol end to
// end against a live regtest node: fund the bond, open the round,
// challenge one gate, and confirm the Prover's response. It is the
// thin orchestration §6 describes — every signature, script and
// transaction is built by internal/protocol, internal/script and
// internal/taproot; this file only sequences the calls and talks to
// the ledger.
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run round 0 of the challenge/response protocol against a regtest node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRound0(cmd.Context(), nil, nil)
	},
}

// runRound0 drives round 0 against a live regtest node. st and hub are
// optional: demoCmd passes its own session-store and dashboard-hub
// wiring through to wiredSession, while playCmd runs with neither.
func runRound0(ctx context.Context, st *store.Store, hub *dashboard.Hub) error {
	proverID, verifierID, err := twoParties(playFlags.proverSeed, playFlags.verifierSeed)
	if err != nil {
		return err
	}
	prover := protocol.NewProver(proverID, verifierID.PublicKey())
	verifier := protocol.NewVerifier(verifierID, proverID.PublicKey())

	rnd := seededReader(playFlags.proverSeed ^ playFlags.verifierSeed)
	circ, err := loadOrGenerateCircuit(playFlags.circuitPath, playFlags.bits, rnd)
	if err != nil {
		return fmt.Errorf("loading circuit: %w", err)
	}
	if playFlags.gate < 0 || playFlags.gate >= len(circ.Gates) {
		return fmt.Errorf("--gate %d out of range [0,%d)", playFlags.gate, len(circ.Gates))
	}

	lc, err := connectLedger()
	if err != nil {
		return fmt.Errorf("connecting to regtest node: %w", err)
	}
	defer lc.Shutdown()

	minerAddr, err := soloTaprootAddress(verifier.PublicKey())
	if err != nil {
		return fmt.Errorf("deriving mining address: %w", err)
	}

	sched := protocol.BondSchedule{Amount: cfg.Bond.Amount, Fee: cfg.Bond.Fee, DustLimit: cfg.Bond.DustLimit, L: cfg.Bond.Bisection}
	if err := sched.Validate(); err != nil {
		return err
	}

	equivTree, err := taproot.EquivocationAddress(circ.Wires, prover.PublicKey(), verifier.PublicKey())
	if err != nil {
		return fmt.Errorf("building equivocation address: %w", err)
	}
	equivPkScript, err := equivTree.Tree.PkScript()
	if err != nil {
		return err
	}
	equivAddr, err := equivTree.Tree.Address(regtestParams)
	if err != nil {
		return err
	}

	fundingTxid, fundingVout, err := lc.FundAddress(equivAddr, sched.Amount)
	if err != nil {
		return fmt.Errorf("funding bond: %w", err)
	}
	if _, err := lc.GenerateBlocks(1, minerAddr); err != nil {
		return fmt.Errorf("confirming funding tx: %w", err)
	}
	log.Info().Str("txid", fundingTxid.String()).Uint32("vout", fundingVout).Msg("bond funded")

	session := wiredSession(ctx, prometheus.DefaultRegisterer, st, hub)
	if st != nil {
		circuitName := playFlags.circuitPath
		if circuitName == "" {
			circuitName = fmt.Sprintf("ripple-carry-adder-%d", playFlags.bits)
		}
		if err := st.SaveSession(ctx, store.Session{
			ID: session.ID, CircuitName: circuitName,
			ProverPK: fmt.Sprintf("%x", proverID.XOnlyPublicKey()), VerifierPK: fmt.Sprintf("%x", verifierID.XOnlyPublicKey()),
			BondAmount: sched.Amount, Fee: sched.Fee, DustLimit: sched.DustLimit,
			FundingTxid: fundingTxid.String(), FundingVout: int(fundingVout),
		}); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
	}
	round := session.BeginRound(playFlags.gate)
	session.Gauges.SetBondSatoshis(sched.Amount)

	hashes, _, err := verifier.Challenges.GenerateChallengeHashes(len(circ.Gates), rnd)
	if err != nil {
		return fmt.Errorf("drawing round 0 challenge hashes: %w", err)
	}

	challengeTree, err := taproot.ChallengeAddress(verifier.PublicKey(), hashes)
	if err != nil {
		return fmt.Errorf("building challenge address: %w", err)
	}
	challengePkScript, err := challengeTree.Tree.PkScript()
	if err != nil {
		return err
	}

	challengeTx, err := protocol.BuildChallengeTx(0, fundingTxid, fundingVout, nil, challengePkScript, equivPkScript, sched)
	if err != nil {
		return fmt.Errorf("building challenge tx: %w", err)
	}

	// Opening round 0 needs no challenge preimage yet, so the funding
	// output's single input is a plain co-signed spend of the
	// equivocation tree's 2-of-2 leaf. Slot -1 in the signature cache
	// keeps this signature pair distinct from round 0's continuation
	// signature below, which covers a different sighash entirely.
	fundingPrevOut := &wire.TxOut{Value: sched.Amount, PkScript: equivPkScript}
	openSighash, err := protocol.TapLeafSighash(challengeTx, []*wire.TxOut{fundingPrevOut}, 0, mustMusigScript(equivTree))
	if err != nil {
		return fmt.Errorf("computing funding-spend sighash: %w", err)
	}
	sigCache := prover.SigCache
	if err := signBothSides(sigCache, -1, prover, verifier, openSighash); err != nil {
		return fmt.Errorf("exchanging funding-open signatures: %w", err)
	}
	if err := protocol.PopulateFundingSpendWitness(challengeTx, fundingPrevOut, equivTree, sigCache, -1); err != nil {
		return fmt.Errorf("assembling funding-spend witness: %w", err)
	}

	challengeTxid, err := broadcastAndConfirm(lc, challengeTx, minerAddr)
	if err != nil {
		return fmt.Errorf("broadcasting challenge tx: %w", err)
	}
	if err := session.Advance(ctx, round, protocol.RoundIssued, challengeTxid.String()); err != nil {
		return err
	}
	log.Info().Str("txid", challengeTxid.String()).Msg("challenge tx confirmed")

	gates := make([]taproot.GateSpec, len(circ.Gates))
	for j, g := range circ.Gates {
		inputHashes := make([]circuit.HashPair, len(g.Inputs))
		for k, wi := range g.Inputs {
			inputHashes[k] = circ.Wires[wi].Hashes
		}
		gates[j] = taproot.GateSpec{
			Gate:        j,
			Type:        g.Type,
			InputHashes: inputHashes,
			OutputHash:  circ.Wires[g.Output].Hashes,
			LockHash:    hashes[j],
		}
	}
	responseTree, err := taproot.ResponseAddress(prover.PublicKey(), gates)
	if err != nil {
		return fmt.Errorf("building response address: %w", err)
	}
	responsePkScript, err := responseTree.Tree.PkScript()
	if err != nil {
		return err
	}
	responseSecondTree, err := taproot.ResponseSecondAddress(prover.PublicKey(), verifier.PublicKey())
	if err != nil {
		return fmt.Errorf("building response-second address: %w", err)
	}
	responseSecondPkScript, err := responseSecondTree.Tree.PkScript()
	if err != nil {
		return err
	}

	responseTx, err := protocol.BuildResponseTx(0, challengeTxid, responsePkScript, responseSecondPkScript, sched)
	if err != nil {
		return fmt.Errorf("building response tx: %w", err)
	}

	continueSighash, err := protocol.TapLeafSighash(responseTx, challengeTx.TxOut, 1, mustMusigScript(equivTree))
	if err != nil {
		return fmt.Errorf("computing response continuation sighash: %w", err)
	}
	if err := signBothSides(sigCache, 0, prover, verifier, continueSighash); err != nil {
		return fmt.Errorf("exchanging round 0 continuation signatures: %w", err)
	}

	preimage, err := verifier.Challenges.PreimageForGate(0, playFlags.gate)
	if err != nil {
		return err
	}
	if err := protocol.PopulateResponseTxWitnesses(
		responseTx,
		challengeTx.TxOut,
		verifier.Identity(),
		challengeTree, equivTree,
		playFlags.gate, preimage, sigCache, 0,
	); err != nil {
		return fmt.Errorf("assembling response tx witnesses: %w", err)
	}

	responseTxid, err := broadcastAndConfirm(lc, responseTx, minerAddr)
	if err != nil {
		return fmt.Errorf("broadcasting response tx: %w", err)
	}
	if err := session.Advance(ctx, round, protocol.RoundAnswered, responseTxid.String()); err != nil {
		return err
	}
	session.Gauges.SetBondSatoshis(sched.Amount - 2*(sched.Fee+sched.DustLimit))

	log.Info().
		Str("funding_txid", fundingTxid.String()).
		Str("challenge_txid", challengeTxid.String()).
		Str("response_txid", responseTxid.String()).
		Msg("round 0 answered")
	fmt.Println(responseTxid.String())
	return nil
}

// mustMusigScript fetches the 2-of-2 leaf script every linked
// transaction's continuation output shares. It panics only on a tree
// this driver itself built without that leaf, which §4.F guarantees
// never happens for EquivocationAddress.
func mustMusigScript(tree *taproot.Built) []byte {
	idx := tree.IndexOf(func(r taproot.LeafRef) bool { return r.Kind == "2_of_2" })
	if idx < 0 {
		panic("bitvmd: equivocation tree built without a 2-of-2 leaf")
	}
	s, err := tree.Tree.LeafScript(idx)
	if err != nil {
		panic(err)
	}
	return s
}

// signBothSides computes both parties' Schnorr signatures over sighash
// and exchanges them into cache under round, the way §4.H requires
// before any linked transaction is broadcast.
func signBothSides(cache *protocol.SignatureCache, round int, prover *protocol.Prover, verifier *protocol.Verifier, sighash [32]byte) error {
	psig, err := prover.Identity().Sign(sighash)
	if err != nil {
		return fmt.Errorf("prover signing round %d: %w", round, err)
	}
	if err := cache.AddSignature(round, protocol.SideProver, sighash, psig); err != nil {
		return err
	}
	vsig, err := verifier.Identity().Sign(sighash)
	if err != nil {
		return fmt.Errorf("verifier signing round %d: %w", round, err)
	}
	if err := cache.AddSignature(round, protocol.SideVerifier, sighash, vsig); err != nil {
		return err
	}
	return nil
}

func init() {
	playCmd.Flags().IntVar(&playFlags.bits, "bits", 4, "width of the generated ripple-carry adder demo circuit")
	playCmd.Flags().StringVar(&playFlags.circuitPath, "circuit", "", "path to a Bristol-format circuit file (overrides --bits)")
	playCmd.Flags().Int64Var(&playFlags.proverSeed, "prover-seed", 1, "deterministic entropy seed for the Prover's keypair")
	playCmd.Flags().Int64Var(&playFlags.verifierSeed, "verifier-seed", 2, "deterministic entropy seed for the Verifier's keypair")
	playCmd.Flags().IntVar(&playFlags.gate, "gate", 0, "index of the gate the Verifier challenges in round 0")
}
