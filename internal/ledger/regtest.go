package ledger

import (
	"bytes"
	"encoding/json"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	"github.com/rs/zerolog/log"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// walletName is the regtest wallet this client creates or loads at
// startup to fund bond addresses and mine blocks. Unlike the legacy
// watch-only wallet the teacher's client bootstraps, this one holds
// private keys: FundAddress needs to actually spend regtest coins.
const walletName = "bitvm_regtest"

// Config holds the RPC connection settings for a regtest node.
type Config struct {
	Host string
	User string
	Pass string
}

// RegtestClient implements Client against a live bitcoind regtest
// node, the same rpcclient.Client wiring the teacher's bitcoin.Client
// uses, stripped to the four operations the protocol engine needs.
type RegtestClient struct {
	rpc    *rpcclient.Client
	params *chaincfg.Params
}

// NewRegtestClient connects to a regtest node and ensures a
// private-key-holding wallet is loaded.
func NewRegtestClient(cfg Config) (*RegtestClient, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}
	rpc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, protoerr.New(protoerr.RpcError, "failed to connect to regtest node", err)
	}

	c := &RegtestClient{rpc: rpc, params: &chaincfg.RegressionNetParams}
	if err := c.ensureWallet(); err != nil {
		rpc.Shutdown()
		return nil, err
	}
	log.Info().Str("host", cfg.Host).Msg("connected to regtest ledger")
	return c, nil
}

func (c *RegtestClient) ensureWallet() error {
	rawResp, err := c.rpc.RawRequest("listwallets", nil)
	if err != nil {
		return protoerr.New(protoerr.RpcError, "listwallets failed", err)
	}
	var wallets []string
	if err := json.Unmarshal(rawResp, &wallets); err != nil {
		return protoerr.New(protoerr.RpcError, "listwallets response malformed", err)
	}
	for _, w := range wallets {
		if w == walletName {
			return nil
		}
	}

	if _, err := c.rpc.LoadWallet(walletName); err == nil {
		return nil
	}

	// descriptors=true, disable_private_keys=false: this wallet must be
	// able to sign for its own coinbase-funded UTXOs.
	params := []interface{}{walletName, false, false, "", false, true, true}
	rawParams := make([]json.RawMessage, len(params))
	for i, v := range params {
		m, err := json.Marshal(v)
		if err != nil {
			return protoerr.New(protoerr.RpcError, "createwallet param marshal failed", err)
		}
		rawParams[i] = m
	}
	if _, err := c.rpc.RawRequest("createwallet", rawParams); err != nil {
		return protoerr.New(protoerr.RpcError, "createwallet failed", err)
	}
	return nil
}

func (c *RegtestClient) Shutdown() { c.rpc.Shutdown() }

func (c *RegtestClient) SendRawTx(tx *wire.MsgTx) (*chainhash.Hash, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, protoerr.New(protoerr.RpcError, "transaction serialization failed", err)
	}
	txid, err := c.rpc.SendRawTransaction(tx, false)
	if err != nil {
		return nil, protoerr.New(protoerr.PolicyRejected, "broadcast rejected by node mempool policy", err)
	}
	return txid, nil
}

func (c *RegtestClient) FundAddress(addr string, amount int64) (*chainhash.Hash, uint32, error) {
	address, err := decodeAddress(addr, c.params)
	if err != nil {
		return nil, 0, err
	}
	txid, err := c.rpc.SendToAddress(address, btcAmount(amount))
	if err != nil {
		return nil, 0, protoerr.New(protoerr.RpcError, "sendtoaddress failed", err)
	}
	raw, err := c.rpc.GetRawTransactionVerbose(txid)
	if err != nil {
		return nil, 0, protoerr.New(protoerr.RpcError, "could not fetch funding transaction", err)
	}
	pkScript, err := txscriptAddrPkScript(address)
	if err != nil {
		return nil, 0, err
	}
	for i, out := range raw.Vout {
		outScript, err := decodeHexScript(out.ScriptPubKey.Hex)
		if err == nil && bytes.Equal(outScript, pkScript) {
			return txid, uint32(i), nil
		}
	}
	return nil, 0, protoerr.New(protoerr.RpcError, "funding transaction has no output paying the requested address", nil)
}

func (c *RegtestClient) GenerateBlocks(n int, toAddr string) ([]*chainhash.Hash, error) {
	address, err := decodeAddress(toAddr, c.params)
	if err != nil {
		return nil, err
	}
	hashes, err := c.rpc.GenerateToAddress(int64(n), address, nil)
	if err != nil {
		return nil, protoerr.New(protoerr.RpcError, "generatetoaddress failed", err)
	}
	return hashes, nil
}

func (c *RegtestClient) GetRawTx(txid *chainhash.Hash) (*btcjson.TxRawResult, error) {
	raw, err := c.rpc.GetRawTransactionVerbose(txid)
	if err != nil {
		return nil, protoerr.New(protoerr.NotConfirmed, "transaction not found or not yet confirmed", err)
	}
	return raw, nil
}
