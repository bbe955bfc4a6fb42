package runtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	cerrors "contractkit/core/errors"
)

// Kind classifies a method for the host dispatcher.
type Kind string

const (
	KindQuery  Kind = "query"
	KindMutate Kind = "mutate"
)

// InitMethod is the reserved name of the constructor.
const InitMethod = "init"

// Invocation is the input of one method execution.
type Invocation struct {
	Method string
	State  []byte
	Args   []byte
}

// Outcome is the terminal result of one method execution. Exactly one of
// Err or (State, Value) is meaningful. A nil State means the snapshot is
// unchanged.
type Outcome struct {
	State []byte
	Value json.RawMessage
	Err   *cerrors.ContractError
}

func Succeed(state []byte, value json.RawMessage) Outcome {
	return Outcome{State: state, Value: value}
}

func Fail(err *cerrors.ContractError) Outcome {
	return Outcome{Err: err}
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Handler executes one invocation.
type Handler func(ctx Context, inv Invocation) Outcome

type Method struct {
	Kind    Kind
	Handler Handler
}

// Contract is a deployable unit: a constructor plus named methods.
type Contract struct {
	Name    string
	Init    Handler
	Methods map[string]Method
}

var errNoInit = errors.New("runtime: contract has no init")

// Validate checks that the contract can be deployed.
func (c *Contract) Validate() error {
	if c == nil || c.Init == nil {
		return errNoInit
	}
	for name, m := range c.Methods {
		if name == "" || name == InitMethod {
			return fmt.Errorf("runtime: reserved method name %q", name)
		}
		if m.Handler == nil {
			return fmt.Errorf("runtime: method %q has no handler", name)
		}
		if m.Kind != KindQuery && m.Kind != KindMutate {
			return fmt.Errorf("runtime: method %q has unknown kind %q", name, m.Kind)
		}
	}
	return nil
}

func (c *Contract) Lookup(method string) (Method, bool) {
	m, ok := c.Methods[method]
	return m, ok
}

// MethodKinds reports the classification of every exported method.
func (c *Contract) MethodKinds() map[string]Kind {
	out := make(map[string]Kind, len(c.Methods))
	for name, m := range c.Methods {
		out[name] = m.Kind
	}
	return out
}

// MethodNames returns the exported method names in sorted order.
func (c *Contract) MethodNames() []string {
	names := make([]string, 0, len(c.Methods))
	for name := range c.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NoArgs marks a method that takes no arguments; its args blob is ignored.
type NoArgs struct{}

// Unit is the value of methods that return nothing. It encodes as null.
type Unit struct{}

func (Unit) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (*Unit) UnmarshalJSON([]byte) error { return nil }

// Query adapts a typed read-only method.
func Query[S any, A any, R any](fn func(ctx Context, state *S, args A) (R, error)) Method {
	return Method{Kind: KindQuery, Handler: typedHandler(fn, false)}
}

// Mutate adapts a typed method whose state changes are persisted.
func Mutate[S any, A any, R any](fn func(ctx Context, state *S, args A) (R, error)) Method {
	return Method{Kind: KindMutate, Handler: typedHandler(fn, true)}
}

// Init adapts a typed constructor.
func Init[S any, A any](fn func(ctx Context, args A) (*S, error)) Handler {
	return func(ctx Context, inv Invocation) Outcome {
		args, err := decodeArgs[A](inv.Args)
		if err != nil {
			return Fail(cerrors.ArgumentDecoding(InitMethod, err))
		}
		state, err := fn(ctx, args)
		if err != nil {
			return Fail(cerrors.Wrap(InitMethod, err))
		}
		snapshot, err := Encode(state)
		if err != nil {
			return Fail(cerrors.FunctionReturned(InitMethod, err))
		}
		return Succeed(snapshot, json.RawMessage("null"))
	}
}

func typedHandler[S any, A any, R any](fn func(Context, *S, A) (R, error), persist bool) Handler {
	return func(ctx Context, inv Invocation) Outcome {
		var state S
		if len(inv.State) > 0 {
			if err := json.Unmarshal(inv.State, &state); err != nil {
				return Fail(cerrors.InternalInconsistency(inv.Method, "state snapshot cannot be decoded: "+err.Error()))
			}
		}
		args, err := decodeArgs[A](inv.Args)
		if err != nil {
			return Fail(cerrors.ArgumentDecoding(inv.Method, err))
		}
		result, err := fn(ctx, &state, args)
		if err != nil {
			return Fail(cerrors.Wrap(inv.Method, err))
		}
		value, err := Encode(result)
		if err != nil {
			return Fail(cerrors.FunctionReturned(inv.Method, err))
		}
		if !persist {
			return Succeed(nil, value)
		}
		snapshot, err := Encode(&state)
		if err != nil {
			return Fail(cerrors.FunctionReturned(inv.Method, err))
		}
		return Succeed(snapshot, value)
	}
}

var errMissingArgs = errors.New("missing arguments")

func decodeArgs[A any](raw []byte) (A, error) {
	var args A
	if _, ok := any(args).(NoArgs); ok {
		return args, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return args, errMissingArgs
	}
	err := json.Unmarshal(raw, &args)
	return args, err
}

// Encode marshals v without HTML escaping so payloads such as "<><" survive
// verbatim.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
