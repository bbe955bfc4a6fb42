package runtime

import (
	"encoding/json"

	cerrors "contractkit/core/errors"
)

func encodeCallArgs(args any) ([]byte, error) {
	switch v := args.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return Encode(v)
	}
}

// callFailure wraps err from the host into a cross-contract failure unless
// it already describes one.
func callFailure(contractID, method string, err error) *cerrors.ContractError {
	if ce, ok := cerrors.As(err); ok {
		switch ce.Kind {
		case cerrors.KindCrossContractCall, cerrors.KindInvalidCall, cerrors.KindMethodNotFound:
			return ce
		}
	}
	return cerrors.CrossContractCall(contractID, method, err.Error())
}

// CallContract synchronously invokes method on contractID and decodes its
// value into T.
func CallContract[T any](ctx Context, contractID, method string, args any) (T, error) {
	var out T
	payload, err := encodeCallArgs(args)
	if err != nil {
		return out, cerrors.InvalidCall(contractID, method, err.Error())
	}
	raw, err := ctx.Call(contractID, method, payload)
	if err != nil {
		return out, callFailure(contractID, method, err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, cerrors.CallResultDecoding(contractID, method, err)
	}
	return out, nil
}

// CallDeferred schedules method on contractID and returns the correlation
// token the callback will carry.
func CallDeferred(ctx Context, contractID, method string, args any) (string, error) {
	payload, err := encodeCallArgs(args)
	if err != nil {
		return "", cerrors.InvalidCall(contractID, method, err.Error())
	}
	token, err := ctx.CallDeferred(contractID, method, payload)
	if err != nil {
		return "", callFailure(contractID, method, err)
	}
	return token, nil
}
