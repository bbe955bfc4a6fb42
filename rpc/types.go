package rpc

import (
	"encoding/json"

	"contractkit/runtime"
)

const jsonRPCVersion = "2.0"

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeRateLimited    = -32020
	codePaused         = -32030
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type DeliverParams struct {
	Limit int `json:"limit"`
}

type DeliverResult struct {
	Delivered int `json:"delivered"`
	Pending   int `json:"pending"`
}

type ContractInfo struct {
	ID      string                  `json:"id"`
	Methods map[string]runtime.Kind `json:"methods"`
}

type HeightResult struct {
	Height  uint64 `json:"height"`
	Pending int    `json:"pending"`
}

type KeysParams struct {
	Contract string `json:"contract"`
}

type KeysResult struct {
	Contract string   `json:"contract"`
	Keys     []string `json:"keys"`
}
