package runtimetest

import (
	"encoding/json"

	cerrors "contractkit/core/errors"
	"contractkit/runtime"
)

// Instance is a deployed contract driven directly by a test, without a host.
type Instance struct {
	Contract *runtime.Contract
	State    []byte
}

func encodeArgs(args any) ([]byte, error) {
	switch v := args.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return []byte(v), nil
	default:
		return runtime.Encode(v)
	}
}

// Deploy runs the constructor of c on ctx. String args are passed verbatim.
func Deploy(ctx *Context, c *runtime.Contract, args any) (*Instance, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	raw, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	out := c.Init(ctx, runtime.Invocation{Method: runtime.InitMethod, Args: raw})
	if out.Failed() {
		return nil, out.Err
	}
	return &Instance{Contract: c, State: out.State}, nil
}

// Invoke runs method as ctx's sender. Queries see a read-only store; the
// snapshot returned by a mutating method replaces State.
func (i *Instance) Invoke(ctx *Context, method string, args any) (json.RawMessage, error) {
	m, ok := i.Contract.Lookup(method)
	if !ok {
		return nil, cerrors.MethodNotFound(ctx.ContractID(), method)
	}
	raw, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	if m.Kind == runtime.KindQuery {
		ctx = ctx.ReadOnly()
	}
	out := m.Handler(ctx, runtime.Invocation{Method: method, State: i.State, Args: raw})
	if out.Failed() {
		return nil, out.Err
	}
	if out.State != nil {
		i.State = out.State
	}
	return out.Value, nil
}

// InvokeAs decodes the value of a successful invocation into T.
func InvokeAs[T any](i *Instance, ctx *Context, method string, args any) (T, error) {
	var out T
	raw, err := i.Invoke(ctx, method, args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
