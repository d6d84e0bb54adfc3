package ledger

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

func decodeAddress(addr string, params *chaincfg.Params) (btcutil.Address, error) {
	a, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, protoerr.New(protoerr.RpcError, "address does not decode for this network", err)
	}
	return a, nil
}

func btcAmount(sats int64) btcutil.Amount {
	return btcutil.Amount(sats)
}

func txscriptAddrPkScript(addr btcutil.Address) ([]byte, error) {
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, protoerr.New(protoerr.RpcError, "could not build scriptPubKey for address", err)
	}
	return script, nil
}

func decodeHexScript(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
