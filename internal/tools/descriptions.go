package tools

// MethodDescriptions documents the JSON-RPC surface. The CLI renders it
// as a table and the MCP tools/list method serves it to clients.
var MethodDescriptions = map[string]string{
	"get_blockchain_info":      "Chain state: height, difficulty, verification progress",
	"get_block_by_height":      "Block at a given height",
	"get_block_by_hash":        "Block by its hash",
	"get_transaction":          "Decoded transaction by txid",
	"get_transaction_output":   "Unspent status and value of a specific output",
	"get_latest_blocks":        "Most recent block headers (count 1-50)",
	"search_blocks":            "Block headers in a height range (max 100)",
	"get_network_status":       "Merged network, chain, and mempool snapshot",
	"get_mempool_stats":        "Mempool state with smart fee estimates",
	"get_mining_info":          "Mining state: difficulty, hashrate estimate",
	"get_peer_info":            "Connected peers with direction counts",
	"validate_address":         "Address validity and type classification",
	"get_address_balance":      "Confirmed and pending balance for an address",
	"get_address_transactions": "Recent transactions for an address (limit 1-50)",
	"get_address_utxos":        "Unspent outputs for an address",
	"analyze_address_activity": "Aggregated balance, UTXO, and activity report",
	"get_current_price":        "Current bitcoin price in a fiat currency",
	"get_price_history":        "Price series over 1-365 days",
	"get_market_stats":         "Full market statistics from CoinGecko",
	"get_fear_greed_index":     "Fear & Greed index, optionally with history",
	"get_server_status":        "Gateway status, node connectivity, method list",
	"initialize":               "Model Context Protocol handshake",
	"tools/list":               "MCP tool definitions for the method surface",
	"tools/call":               "Invoke a method through the MCP tool surface",
	"resources/list":           "MCP resource descriptors",
	"resources/read":           "Read an MCP resource snapshot",
}
