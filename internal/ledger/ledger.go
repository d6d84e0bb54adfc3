// Package ledger is the abstract boundary between the protocol engine
// and a concrete Bitcoin-like chain. Its Client interface is exactly
// §6's "Ledger interface (abstract)": send a raw transaction, fund an
// address for testing, generate blocks on regtest, and fetch a raw
// transaction. The regtest implementation wraps btcd's rpcclient the
// way the teacher's internal/bitcoin client does: a thin RPC struct
// plus a wallet bootstrap step run once at construction.
package ledger

import (
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Client is the abstract ledger boundary every protocol component
// drives through, never touching rpcclient directly. Implementations
// surface every failure as a protoerr.RpcError, protoerr.NotConfirmed
// or protoerr.PolicyRejected.
type Client interface {
	// SendRawTx broadcasts tx and returns its txid; it does not wait for
	// confirmation.
	SendRawTx(tx *wire.MsgTx) (*chainhash.Hash, error)

	// FundAddress pays amount (sats) to addr from the regtest wallet's
	// own funds, for test and demo setup only.
	FundAddress(addr string, amount int64) (txid *chainhash.Hash, vout uint32, err error)

	// GenerateBlocks mines n blocks paying the coinbase to toAddr, for
	// regtest confirmation advancement.
	GenerateBlocks(n int, toAddr string) ([]*chainhash.Hash, error)

	// GetRawTx fetches a confirmed transaction and its containing
	// block's confirmation count.
	GetRawTx(txid *chainhash.Hash) (*btcjson.TxRawResult, error)
}
