package runtime_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"contractkit/collections"
	cerrors "contractkit/core/errors"
	"contractkit/runtime"
	"contractkit/runtime/runtimetest"
)

var _ runtime.Context = (*runtimetest.Context)(nil)

type tally struct {
	Count uint32 `json:"count"`
}

type addArgs struct {
	By uint32 `json:"by"`
}

func tallyContract() *runtime.Contract {
	return &runtime.Contract{
		Name: "tally",
		Init: runtime.Init(func(_ runtime.Context, a addArgs) (*tally, error) {
			return &tally{Count: a.By}, nil
		}),
		Methods: map[string]runtime.Method{
			"get": runtime.Query(func(_ runtime.Context, s *tally, _ runtime.NoArgs) (uint32, error) {
				return s.Count, nil
			}),
			"peek_add": runtime.Query(func(_ runtime.Context, s *tally, a addArgs) (uint32, error) {
				s.Count += a.By
				return s.Count, nil
			}),
			"add": runtime.Mutate(func(_ runtime.Context, s *tally, a addArgs) (uint32, error) {
				s.Count += a.By
				return s.Count, nil
			}),
			"fail": runtime.Mutate(func(runtime.Context, *tally, runtime.NoArgs) (runtime.Unit, error) {
				return runtime.Unit{}, errors.New("boom")
			}),
			"deny": runtime.Mutate(func(runtime.Context, *tally, runtime.NoArgs) (runtime.Unit, error) {
				return runtime.Unit{}, cerrors.Authorization("", "nope")
			}),
		},
	}
}

func invoke(t *testing.T, c *runtime.Contract, ctx runtime.Context, method string, state []byte, args string) runtime.Outcome {
	t.Helper()
	m, ok := c.Lookup(method)
	require.True(t, ok, method)
	return m.Handler(ctx, runtime.Invocation{Method: method, State: state, Args: []byte(args)})
}

func TestInitProducesSnapshot(t *testing.T) {
	c := tallyContract()
	require.NoError(t, c.Validate())

	out := c.Init(runtimetest.New("tally"), runtime.Invocation{Method: runtime.InitMethod, Args: []byte(`{"by":3}`)})
	require.False(t, out.Failed())
	require.JSONEq(t, `{"count":3}`, string(out.State))
	require.Equal(t, "null", string(out.Value))
}

func TestQueryDoesNotPersist(t *testing.T) {
	c := tallyContract()
	ctx := runtimetest.New("tally")

	out := invoke(t, c, ctx, "peek_add", []byte(`{"count":3}`), `{"by":2}`)
	require.False(t, out.Failed())
	require.Equal(t, "5", string(out.Value))
	require.Nil(t, out.State)

	out = invoke(t, c, ctx, "add", []byte(`{"count":3}`), `{"by":2}`)
	require.False(t, out.Failed())
	require.JSONEq(t, `{"count":5}`, string(out.State))
}

func TestArgumentDecoding(t *testing.T) {
	c := tallyContract()
	ctx := runtimetest.New("tally")

	out := invoke(t, c, ctx, "add", []byte(`{"count":0}`), ``)
	require.True(t, out.Failed())
	require.Equal(t, cerrors.KindArgumentDecoding, out.Err.Kind)
	require.Equal(t, "add", out.Err.Method)

	out = invoke(t, c, ctx, "add", []byte(`{"count":0}`), `{"by":"x"}`)
	require.ErrorIs(t, out.Err, cerrors.ErrArgumentDecoding)

	out = invoke(t, c, ctx, "get", []byte(`{"count":7}`), `not json at all`)
	require.False(t, out.Failed())
	require.Equal(t, "7", string(out.Value))
}

func TestMethodErrorsAreAttributed(t *testing.T) {
	c := tallyContract()
	ctx := runtimetest.New("tally")

	out := invoke(t, c, ctx, "fail", nil, `null`)
	require.Equal(t, cerrors.KindFunctionReturned, out.Err.Kind)
	require.Equal(t, "fail", out.Err.Method)
	require.Equal(t, "boom", out.Err.Message)

	out = invoke(t, c, ctx, "deny", nil, `null`)
	require.Equal(t, cerrors.KindAuthorization, out.Err.Kind)
	require.Equal(t, "deny", out.Err.Method)
}

func TestCorruptStateIsInconsistency(t *testing.T) {
	out := invoke(t, tallyContract(), runtimetest.New("tally"), "get", []byte(`[1,2`), `null`)
	require.ErrorIs(t, out.Err, cerrors.ErrInternalInconsistent)
}

func TestValidateRejectsReservedNames(t *testing.T) {
	c := tallyContract()
	c.Methods[runtime.InitMethod] = c.Methods["get"]
	require.Error(t, c.Validate())

	require.Error(t, (&runtime.Contract{Name: "bare"}).Validate())
	require.Equal(t, []string{"add", "deny", "fail", "get", "init", "peek_add"}, c.MethodNames())
}

func TestEncodeKeepsMarkup(t *testing.T) {
	raw, err := runtime.Encode("<'))><")
	require.NoError(t, err)
	require.Equal(t, `"<'))><"`, string(raw))

	raw, err = runtime.Encode(runtime.Unit{})
	require.NoError(t, err)
	require.Equal(t, "null", string(raw))
}

func TestCallContract(t *testing.T) {
	ctx := runtimetest.New("caller")
	ctx.Handle("callee", "get", func(sender string, _ []byte) ([]byte, error) {
		require.Equal(t, "caller", sender)
		return []byte("42"), nil
	})
	ctx.Handle("callee", "broken", func(string, []byte) ([]byte, error) {
		return nil, errors.New("exploded")
	})
	ctx.Handle("callee", "garbled", func(string, []byte) ([]byte, error) {
		return []byte(`"forty-two"`), nil
	})

	n, err := runtime.CallContract[uint32](ctx, "callee", "get", addArgs{By: 1})
	require.NoError(t, err)
	require.EqualValues(t, 42, n)
	calls := ctx.Calls()
	require.Len(t, calls, 1)
	require.JSONEq(t, `{"by":1}`, string(calls[0].Args))

	_, err = runtime.CallContract[uint32](ctx, "callee", "broken", nil)
	require.ErrorIs(t, err, cerrors.ErrCrossContractCall)
	ce, _ := cerrors.As(err)
	require.Equal(t, "callee", ce.ContractID)

	_, err = runtime.CallContract[uint32](ctx, "callee", "garbled", nil)
	require.ErrorIs(t, err, cerrors.ErrCallResultDecoding)

	_, err = runtime.CallContract[uint32](ctx, "nobody", "get", nil)
	require.ErrorIs(t, err, cerrors.ErrInvalidCall)
}

func TestCallbackDecoding(t *testing.T) {
	var cb runtime.Callback
	require.NoError(t, json.Unmarshal([]byte(`{"xpod_id":"tok-9","result":{"Ok":[1,2]}}`), &cb))
	require.Equal(t, "tok-9", cb.XpodID)
	list, ok, err := runtime.DecodeOk[[]int8](cb.Result)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int8{1, 2}, list)

	payload := `{"xpod_id":"tok-9","result":{"Err":{"MethodNotFoundError":{"contract_id":"x","method_name":"y","message":""}}}}`
	require.NoError(t, json.Unmarshal([]byte(payload), &cb))
	failure, isErr := cb.Result.Failure()
	require.True(t, isErr)
	require.Equal(t, cerrors.KindMethodNotFound, failure.Kind)
	_, ok, err = runtime.DecodeOk[[]int8](cb.Result)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, json.Unmarshal([]byte(`{"xpod_id":"tok-9","result":{"Maybe":1}}`), &cb))
	require.Equal(t, "set_val_callback", runtime.CallbackMethod("set_val"))
}

func TestDeferredRoundTrip(t *testing.T) {
	ctx := runtimetest.New("first")
	store := ctx.Store()
	pending := runtime.NewPendingCalls(0)
	counts := collections.NewMapping[string, uint32](1)

	token, err := runtime.CallDeferred(ctx, "second", "set_val", map[string]any{"id": "logical-A", "val": 1})
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)
	require.Len(t, ctx.Deferred(), 1)
	require.NoError(t, pending.Track(store, token, "logical-A"))

	bump := func(id string, result runtime.CallResult) error {
		if !result.IsOk() {
			return nil
		}
		n, err := counts.Get(store, id)
		if err != nil {
			return err
		}
		return counts.Insert(store, id, n+1)
	}

	cb := runtime.Callback{XpodID: token, Result: runtime.OkResult(json.RawMessage(`[1]`))}
	resumed, err := runtime.Resume(store, pending, cb, bump)
	require.NoError(t, err)
	require.True(t, resumed)

	n, err := counts.Get(store, "logical-A")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// A replayed token and one that was never issued are both ignored.
	for _, tok := range []string{"tok-1", "tok-2"} {
		resumed, err = runtime.Resume(store, pending, runtime.Callback{XpodID: tok, Result: runtime.OkResult(nil)}, bump)
		require.NoError(t, err)
		require.False(t, resumed)
	}
	n, err = counts.Get(store, "logical-A")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestResumeKeepsTokenWhenApplyFails(t *testing.T) {
	ctx := runtimetest.New("first")
	store := ctx.Store()
	pending := runtime.NewPendingCalls(0)
	require.NoError(t, pending.Track(store, "tok-1", "logical-A"))

	_, err := runtime.Resume(store, pending, runtime.Callback{XpodID: "tok-1", Result: runtime.OkResult(nil)}, func(string, runtime.CallResult) error {
		return errors.New("not yet")
	})
	require.Error(t, err)

	id, found, err := pending.Lookup(store, "tok-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "logical-A", id)
}
