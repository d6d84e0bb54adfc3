package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rawblock/bitvm-go/internal/taproot"
)

var setupFlags struct {
	bits         int
	circuitPath  string
	proverSeed   int64
	verifierSeed int64
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Derive a circuit and both parties' keys, and print the bond's equivocation address",
	RunE: func(cmd *cobra.Command, args []string) error {
		prover, verifier, err := twoParties(setupFlags.proverSeed, setupFlags.verifierSeed)
		if err != nil {
			return err
		}

		rnd := seededReader(setupFlags.proverSeed ^ setupFlags.verifierSeed)
		circ, err := loadOrGenerateCircuit(setupFlags.circuitPath, setupFlags.bits, rnd)
		if err != nil {
			return fmt.Errorf("loading circuit: %w", err)
		}

		equiv, err := taproot.EquivocationAddress(circ.Wires, prover.PublicKey(), verifier.PublicKey())
		if err != nil {
			return fmt.Errorf("building equivocation address: %w", err)
		}
		addr, err := equiv.Tree.Address(regtestParams)
		if err != nil {
			return fmt.Errorf("encoding equivocation address: %w", err)
		}

		log.Info().
			Int("gates", len(circ.Gates)).
			Int("wires", len(circ.Wires)).
			Str("prover_pk", hex.EncodeToString(prover.XOnlyPublicKey())).
			Str("verifier_pk", hex.EncodeToString(verifier.XOnlyPublicKey())).
			Str("equivocation_address", addr).
			Msg("setup complete")
		fmt.Println(addr)
		return nil
	},
}

func init() {
	setupCmd.Flags().IntVar(&setupFlags.bits, "bits", 4, "width of the generated ripple-carry adder demo circuit")
	setupCmd.Flags().StringVar(&setupFlags.circuitPath, "circuit", "", "path to a Bristol-format circuit file (overrides --bits)")
	setupCmd.Flags().Int64Var(&setupFlags.proverSeed, "prover-seed", 1, "deterministic entropy seed for the Prover's keypair")
	setupCmd.Flags().Int64Var(&setupFlags.verifierSeed, "verifier-seed", 2, "deterministic entropy seed for the Verifier's keypair")
}
