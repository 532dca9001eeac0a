package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/rpcerr"
)

// mcpProtocolVersion is the protocol revision echoed by initialize when
// the client does not send one.
const mcpProtocolVersion = "2024-11-05"

// mcpResource describes one readable resource and the method whose
// result backs it.
type mcpResource struct {
	URI         string
	Name        string
	Description string
	Method      string
}

var mcpResources = []mcpResource{
	{
		URI:         "bitcoin:blockchain:info",
		Name:        "Bitcoin Blockchain Information",
		Description: "Current blockchain status and statistics",
		Method:      "get_blockchain_info",
	},
	{
		URI:         "bitcoin:network:status",
		Name:        "Bitcoin Network Status",
		Description: "Current network status and peer information",
		Method:      "get_network_status",
	},
	{
		URI:         "bitcoin:market:stats",
		Name:        "Bitcoin Market Statistics",
		Description: "Current market statistics and price data",
		Method:      "get_market_stats",
	},
}

// MCPTools adapts the method registry to the Model Context Protocol
// surface. Tools and resources are thin views over the same handlers:
// tools/call routes through the registry, resources read a fixed set of
// snapshot methods.
type MCPTools struct {
	methods jsonrpc.Registry
	version string
}

// NewMCPTools wraps a snapshot of the method registry. The snapshot
// excludes the MCP methods themselves so a tool call cannot recurse.
func NewMCPTools(methods jsonrpc.Registry, version string) *MCPTools {
	return &MCPTools{methods: methods, version: version}
}

// Initialize answers the MCP handshake.
func (t *MCPTools) Initialize(ctx context.Context, p jsonrpc.Params) (any, error) {
	protocolVersion, err := p.StringOr("protocolVersion", mcpProtocolVersion)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "btclens",
			"version": t.version,
		},
	}, nil
}

// ListTools returns the tool definitions, sorted by name.
func (t *MCPTools) ListTools(ctx context.Context, _ jsonrpc.Params) (any, error) {
	names := make([]string, 0, len(t.methods))
	for name := range t.methods {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]map[string]any, 0, len(names))
	for _, name := range names {
		list = append(list, map[string]any{
			"name":        name,
			"description": MethodDescriptions[name],
		})
	}
	return map[string]any{"tools": list}, nil
}

// CallTool executes one tool by name with named arguments.
func (t *MCPTools) CallTool(ctx context.Context, p jsonrpc.Params) (any, error) {
	name, err := p.String("name")
	if err != nil {
		return nil, err
	}
	handler, ok := t.methods[name]
	if !ok {
		return nil, rpcerr.NewValidationError(fmt.Sprintf("unknown tool: %s", name)).WithField("name")
	}

	args, err := p.ObjectOr("arguments")
	if err != nil {
		return nil, err
	}

	result, err := handler(ctx, args)
	if err != nil {
		return nil, err
	}
	return map[string]any{"content": result}, nil
}

// ListResources returns the resource descriptors.
func (t *MCPTools) ListResources(ctx context.Context, _ jsonrpc.Params) (any, error) {
	list := make([]map[string]any, 0, len(mcpResources))
	for _, res := range mcpResources {
		list = append(list, map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    "application/json",
		})
	}
	return map[string]any{"resources": list}, nil
}

// ReadResource serves one resource's current content as JSON text.
func (t *MCPTools) ReadResource(ctx context.Context, p jsonrpc.Params) (any, error) {
	uri, err := p.String("uri")
	if err != nil {
		return nil, err
	}

	var resource *mcpResource
	for i := range mcpResources {
		if mcpResources[i].URI == uri {
			resource = &mcpResources[i]
			break
		}
	}
	if resource == nil {
		return nil, rpcerr.NewValidationError(fmt.Sprintf("unknown resource: %s", uri)).WithField("uri")
	}

	handler, ok := t.methods[resource.Method]
	if !ok {
		return nil, rpcerr.NewInternalError(fmt.Sprintf("resource %s has no backing method", uri))
	}
	result, err := handler(ctx, jsonrpc.Params{})
	if err != nil {
		return nil, err
	}

	text, err := json.Marshal(result)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindInternal, err, "encode resource content")
	}

	return map[string]any{
		"contents": []map[string]any{{
			"uri":      uri,
			"mimeType": "application/json",
			"text":     string(text),
		}},
	}, nil
}
