// Package validate checks Bitcoin literals supplied by callers before
// they are forwarded upstream. Address parsing delegates to btcutil so
// checksums and witness programs are verified for the configured network.
package validate

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/btclens/btclens/internal/rpcerr"
)

// MaxBlockHeight is a sanity bound on caller-supplied heights; the node
// still decides whether the block exists.
const MaxBlockHeight = 10_000_000

// NetParams resolves a network name to chain parameters.
func NetParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown bitcoin network %q", network)
	}
}

// Address verifies that addr parses and belongs to the given network,
// returning the decoded form for classification.
func Address(addr string, params *chaincfg.Params) (btcutil.Address, error) {
	value := strings.TrimSpace(addr)
	if value == "" {
		return nil, rpcerr.NewValidationError("address is required").WithField("address")
	}

	decoded, err := btcutil.DecodeAddress(value, params)
	if err != nil {
		return nil, rpcerr.NewValidationError(
			fmt.Sprintf("invalid bitcoin address: %s", value)).WithField("address")
	}
	if !decoded.IsForNet(params) {
		return nil, rpcerr.NewValidationError(
			fmt.Sprintf("address %s is not valid for network %s", value, params.Name)).WithField("address")
	}
	return decoded, nil
}

// AddressType classifies a decoded address by script template. Returns
// "unknown" for anything unrecognized.
func AddressType(addr btcutil.Address) string {
	switch addr.(type) {
	case *btcutil.AddressPubKeyHash:
		return "P2PKH"
	case *btcutil.AddressScriptHash:
		return "P2SH"
	case *btcutil.AddressWitnessPubKeyHash:
		return "P2WPKH"
	case *btcutil.AddressWitnessScriptHash:
		return "P2WSH"
	case *btcutil.AddressTaproot:
		return "P2TR"
	default:
		return "unknown"
	}
}

// TxHash verifies a 64-character hex transaction hash.
func TxHash(value string) error {
	return hash(value, "tx_hash")
}

// BlockHash verifies a 64-character hex block hash.
func BlockHash(value string) error {
	return hash(value, "block_hash")
}

func hash(value, field string) error {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != chainhash.MaxHashStringSize {
		return rpcerr.NewValidationError(
			fmt.Sprintf("%s must be a %d-character hex string", field, chainhash.MaxHashStringSize)).WithField(field)
	}
	if _, err := chainhash.NewHashFromStr(trimmed); err != nil {
		return rpcerr.NewValidationError(
			fmt.Sprintf("%s is not valid hex", field)).WithField(field)
	}
	return nil
}

// BlockHeight verifies a caller-supplied height.
func BlockHeight(height int64) error {
	if height < 0 || height > MaxBlockHeight {
		return rpcerr.NewValidationError(
			fmt.Sprintf("invalid block height: %d", height)).WithField("height")
	}
	return nil
}
