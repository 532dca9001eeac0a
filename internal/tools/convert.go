package tools

import (
	"encoding/json"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/btclens/btclens/internal/rpcerr"
)

// decodeObject unmarshals a raw node result into a generic object.
func decodeObject(raw json.RawMessage) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindBitcoinRPC, err, "decode node result")
	}
	return obj, nil
}

// decodeList unmarshals a raw node result into a generic list.
func decodeList(raw json.RawMessage) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindBitcoinRPC, err, "decode node result")
	}
	return list, nil
}

// satsToBTC converts satoshis to a BTC float for display fields.
func satsToBTC(sats int64) float64 {
	return btcutil.Amount(sats).ToBTC()
}
