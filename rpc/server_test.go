package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"contractkit/applets/counter"
	"contractkit/applets/xpod"
	"contractkit/host"
	"contractkit/native/common"
	"contractkit/observability/logging"
	"contractkit/storage"
)

func newTestServer(t *testing.T, opts ...host.Option) (*httptest.Server, *host.Host) {
	t.Helper()
	h := host.New(storage.NewMemDB(), append([]host.Option{host.WithLogger(logging.Discard())}, opts...)...)
	ctx := context.Background()
	_, err := h.Deploy(ctx, "counter", counter.Counter(), "alice", nil)
	require.NoError(t, err)
	_, err = h.Deploy(ctx, "first", xpod.First(), "alice", nil)
	require.NoError(t, err)
	_, err = h.Deploy(ctx, "second", xpod.Second(), "alice", nil)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(h, logging.Discard()))
	t.Cleanup(srv.Close)
	return srv, h
}

func rpcCall(t *testing.T, srv *httptest.Server, method string, params ...interface{}) (int, RPCResponse) {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		encoded, err := json.Marshal(p)
		require.NoError(t, err)
		raw = append(raw, encoded)
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: raw, ID: 1})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func resultInto(t *testing.T, resp RPCResponse, out interface{}) {
	t.Helper()
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestInvokeAndHeight(t *testing.T) {
	srv, _ := newTestServer(t)

	status, resp := rpcCall(t, srv, "contract_invoke", map[string]string{"contract": "counter", "method": "increment", "sender": "alice"})
	require.Equal(t, http.StatusOK, status)
	var invoked host.Response
	resultInto(t, resp, &invoked)
	require.Nil(t, invoked.Err)
	require.EqualValues(t, 4, invoked.Height)

	_, resp = rpcCall(t, srv, "contract_invoke", map[string]string{"contract": "counter", "method": "get_count", "sender": "alice"})
	resultInto(t, resp, &invoked)
	require.JSONEq(t, "1", string(invoked.Value))

	_, resp = rpcCall(t, srv, "host_height")
	var height HeightResult
	resultInto(t, resp, &height)
	require.EqualValues(t, 4, height.Height)
}

func TestContractFailureIsAResult(t *testing.T) {
	srv, _ := newTestServer(t)

	status, resp := rpcCall(t, srv, "contract_invoke", map[string]interface{}{
		"contract": "counter", "method": "set_value", "sender": "alice", "args": map[string]string{"val": "many"},
	})
	require.Equal(t, http.StatusOK, status)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"MethodArgumentDeserializationError"`)
}

func TestDeliverAndList(t *testing.T) {
	srv, h := newTestServer(t)

	_, resp := rpcCall(t, srv, "contract_invoke", map[string]interface{}{
		"contract": "first", "method": xpod.MethodSetListInSecond, "sender": "alice",
		"args": map[string]interface{}{"contract_id": "second", "id": "a", "val": 1},
	})
	require.Nil(t, resp.Error)
	require.Equal(t, 1, h.Pending())

	_, resp = rpcCall(t, srv, "contract_deliver", DeliverParams{Limit: 5})
	var delivered DeliverResult
	resultInto(t, resp, &delivered)
	require.Equal(t, DeliverResult{Delivered: 1, Pending: 0}, delivered)

	_, resp = rpcCall(t, srv, "contract_list")
	var list []ContractInfo
	resultInto(t, resp, &list)
	require.Len(t, list, 3)
	require.Equal(t, "counter", list[0].ID)
	require.Equal(t, "mutate", string(list[0].Methods["increment"]))

	_, resp = rpcCall(t, srv, "contract_keys", KeysParams{Contract: "second"})
	var keys KeysResult
	resultInto(t, resp, &keys)
	require.Equal(t, []string{"0_a"}, keys.Keys)
}

func TestHostErrors(t *testing.T) {
	srv, _ := newTestServer(t, host.WithPauses(common.NewPauses("second")))

	status, resp := rpcCall(t, srv, "contract_invoke", map[string]string{"contract": "ghost", "method": "x"})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	status, resp = rpcCall(t, srv, "contract_invoke", map[string]string{"contract": "second", "method": "get_list"})
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, codePaused, resp.Error.Code)

	status, resp = rpcCall(t, srv, "contract_burn")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	status, resp = rpcCall(t, srv, "contract_invoke")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestMalformedRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/rpc", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/rpc", "application/json", strings.NewReader(`{"jsonrpc":"1.0","method":"host_height","id":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	rpcCall(t, srv, "host_height")

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "contractkit_rpc_requests_total")
}
