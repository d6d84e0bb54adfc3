package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/rawblock/bitvm-go/internal/dashboard"
	"github.com/rawblock/bitvm-go/internal/store"
)

var demoFlags struct {
	serveDashboard bool
}

// demoCmd is the single-command happy path §6 describes: fund a bond,
// open round 0, challenge a gate, confirm the response, and — if
// configured — persist every round transition to Postgres and push it
// to the spectator dashboard over the same Recorder seam play.go's
// Session already fans out through.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run round 0 end to end, optionally serving the spectator dashboard alongside it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var st *store.Store
		var hub *dashboard.Hub
		if cfg.Store.ConnString != "" {
			var err error
			st, err = store.Connect(ctx, cfg.Store.ConnString)
			if err != nil {
				return fmt.Errorf("connecting to session store: %w", err)
			}
			defer st.Close()
			if err := st.InitSchema(ctx); err != nil {
				return fmt.Errorf("initializing session store schema: %w", err)
			}
		}

		if demoFlags.serveDashboard {
			hub = dashboard.NewHub()
			go hub.Run()
			router := dashboard.SetupRouter(st, hub, cfg.Dashboard.AllowedOrigins)
			go func() {
				if err := router.Run(cfg.Dashboard.Addr); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("dashboard server stopped")
				}
			}()
			log.Info().Str("addr", cfg.Dashboard.Addr).Msg("spectator dashboard serving")
		}

		return runRound0(ctx, st, hub)
	},
}

func init() {
	demoCmd.Flags().IntVar(&playFlags.bits, "bits", 4, "width of the generated ripple-carry adder demo circuit")
	demoCmd.Flags().StringVar(&playFlags.circuitPath, "circuit", "", "path to a Bristol-format circuit file (overrides --bits)")
	demoCmd.Flags().Int64Var(&playFlags.proverSeed, "prover-seed", 1, "deterministic entropy seed for the Prover's keypair")
	demoCmd.Flags().Int64Var(&playFlags.verifierSeed, "verifier-seed", 2, "deterministic entropy seed for the Verifier's keypair")
	demoCmd.Flags().IntVar(&playFlags.gate, "gate", 0, "index of the gate the Verifier challenges in round 0")
	demoCmd.Flags().BoolVar(&demoFlags.serveDashboard, "serve-dashboard", false, "serve the spectator HTTP/websocket dashboard alongside the demo run")
}
