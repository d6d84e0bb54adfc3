// Command bitvmd is the thin CLI driver for the challenge/response
// engine: it wires internal/config, internal/ledger, internal/store,
// internal/dashboard and internal/protocol together and calls their
// exported constructors, the way leanlp-BTC-coinjoin's cmd/engine/main.go
// wires its own internal packages into a single binary. None of the
// protocol's core logic lives here.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
