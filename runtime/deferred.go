package runtime

import (
	"encoding/json"

	"contractkit/collections"
	cerrors "contractkit/core/errors"
	"contractkit/core/types"
	"contractkit/storage"
)

// CallbackSuffix is appended to the issuing method's name to route deferred
// results.
const CallbackSuffix = "_callback"

// CallbackMethod names the entry point that receives results of deferred
// calls issued by method.
func CallbackMethod(method string) string { return method + CallbackSuffix }

// CallResult is the payload of a deferred call: the callee's JSON value or
// its error.
type CallResult = types.Result[json.RawMessage, *cerrors.ContractError]

// Callback is the argument blob of a callback entry point.
type Callback struct {
	XpodID string     `json:"xpod_id"`
	Result CallResult `json:"result"`
}

// PendingCalls persists correlation tokens against the caller's own logical
// identifiers until the matching callback arrives.
type PendingCalls struct {
	Calls collections.Mapping[string, string] `json:"xpod_mapping"`
}

func NewPendingCalls(ns collections.Namespace) PendingCalls {
	return PendingCalls{Calls: collections.NewMapping[string, string](ns)}
}

// Track records that token resolves to logicalID.
func (p PendingCalls) Track(store storage.KeyedStore, token, logicalID string) error {
	return p.Calls.Insert(store, token, logicalID)
}

func (p PendingCalls) Lookup(store storage.KeyedStore, token string) (string, bool, error) {
	return p.Calls.Lookup(store, token)
}

// Resume applies a callback. Unknown tokens are a no-op and report false.
// A known token is removed only after apply succeeds, so a repeated callback
// for the same token is ignored.
func Resume(store storage.KeyedStore, p PendingCalls, cb Callback, apply func(logicalID string, result CallResult) error) (bool, error) {
	logicalID, found, err := p.Lookup(store, cb.XpodID)
	if err != nil || !found {
		return false, err
	}
	if err := apply(logicalID, cb.Result); err != nil {
		return true, err
	}
	if _, err := p.Calls.Remove(store, cb.XpodID); err != nil {
		return true, err
	}
	return true, nil
}

// DecodeOk decodes the Ok branch of result into T. It reports false for Err
// results.
func DecodeOk[T any](result CallResult) (T, bool, error) {
	var out T
	raw, ok := result.Value()
	if !ok {
		return out, false, nil
	}
	if len(raw) == 0 {
		return out, true, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, true, err
	}
	return out, true, nil
}

// OkResult and ErrResult build callback payloads.
func OkResult(value json.RawMessage) CallResult {
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	return types.Ok[json.RawMessage, *cerrors.ContractError](value)
}

func ErrResult(err *cerrors.ContractError) CallResult {
	return types.Err[json.RawMessage](err)
}
