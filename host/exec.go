package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cerrors "contractkit/core/errors"
	"contractkit/core/events"
	"contractkit/core/types"
	"contractkit/native/common"
	"contractkit/runtime"
	"contractkit/storage"
)

// invocation accumulates what the frames of one top-level request produce.
type invocation struct {
	stack    []string
	events   []types.Event
	deferred []queuedCall
}

func (inv *invocation) active(id string) bool {
	for _, entry := range inv.stack {
		if entry == id {
			return true
		}
	}
	return false
}

type frame struct {
	dep     *deployment
	method  string
	kind    runtime.Kind
	handler runtime.Handler
	sender  string
	args    []byte
}

// execute runs one frame. On success the snapshot of a mutating frame is
// persisted and its events and deferred calls are handed to inv.
func (h *Host) execute(ctx context.Context, inv *invocation, f frame) runtime.Outcome {
	ctx, span := h.tracer.Start(ctx, "contract."+f.method, trace.WithAttributes(
		attribute.String("contract", f.dep.id),
		attribute.String("method", f.method),
		attribute.String("kind", string(f.kind)),
		attribute.Int64("height", int64(h.height)),
	))
	defer span.End()

	inv.stack = append(inv.stack, f.dep.id)
	defer func() { inv.stack = inv.stack[:len(inv.stack)-1] }()

	logger := h.logger.With("contract", f.dep.id)
	logger.Debug("invoking contract method", "method", f.method, h.senderAttr(f.sender), "height", h.height, "depth", len(inv.stack))

	cc := &callContext{
		Context:  ctx,
		h:        h,
		inv:      inv,
		dep:      f.dep,
		method:   f.method,
		sender:   f.sender,
		readOnly: f.kind == runtime.KindQuery,
		logger:   logger,
	}

	start := time.Now()
	out := h.run(cc, f)
	h.metrics.ObserveInvocation(f.dep.id, f.method, string(f.kind), out.Failed(), time.Since(start))

	if !out.Failed() && f.kind == runtime.KindMutate && out.State != nil {
		if err := h.saveState(f.dep.id, out.State); err != nil {
			logger.Error("persist contract state", "method", f.method, "error", err)
			out = runtime.Fail(cerrors.InternalInconsistency(f.method, err.Error()))
		}
	}
	if out.Failed() {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, string(out.Err.Kind))
		logger.Warn("contract method failed", "method", f.method, h.senderAttr(f.sender), "error", out.Err)
		return out
	}

	emitted := cc.recorder.Drain()
	for i := range emitted {
		emitted[i].Contract = f.dep.id
	}
	inv.events = append(inv.events, emitted...)
	inv.deferred = append(inv.deferred, cc.deferred...)
	return out
}

// run calls the handler and normalizes its outcome so that exactly one of
// Err or Value is set.
func (h *Host) run(cc *callContext, f frame) (out runtime.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			cc.logger.Error("contract method panicked", "method", f.method, "panic", r)
			out = runtime.Fail(cerrors.FunctionReturned(f.method, fmt.Errorf("panic: %v", r)))
		}
	}()

	state, err := h.loadState(f.dep.id)
	if err != nil {
		return runtime.Fail(cerrors.InternalInconsistency(f.method, "state snapshot unavailable: "+err.Error()))
	}
	out = f.handler(cc, runtime.Invocation{Method: f.method, State: state, Args: f.args})
	if out.Failed() {
		return runtime.Fail(out.Err)
	}
	if len(out.Value) == 0 {
		out.Value = json.RawMessage("null")
	}
	return out
}

// callContext is the runtime.Context handed to one frame.
type callContext struct {
	context.Context

	h        *Host
	inv      *invocation
	dep      *deployment
	method   string
	sender   string
	readOnly bool
	logger   *slog.Logger
	recorder events.Recorder
	deferred []queuedCall
}

var _ runtime.Context = (*callContext)(nil)

func (c *callContext) Sender() string           { return c.sender }
func (c *callContext) ContractID() string       { return c.dep.id }
func (c *callContext) LedgerContractID() string { return c.h.ledgerID }
func (c *callContext) BlockHeight() uint64      { return c.h.height }
func (c *callContext) Logger() *slog.Logger     { return c.logger }

func (c *callContext) BlockTimestamp() string {
	return c.h.clock().UTC().Format(time.RFC3339)
}

func (c *callContext) Store() storage.KeyedStore {
	if c.readOnly {
		return storage.ReadOnly(c.dep.store)
	}
	return c.dep.store
}

func (c *callContext) Emit(evt events.Event) { c.recorder.Emit(evt) }

// Call runs method on target as a nested frame whose sender is this
// contract. Contracts already on the call stack cannot be re-entered.
func (c *callContext) Call(target, method string, args []byte) ([]byte, error) {
	dep, ok := c.h.contracts[target]
	if !ok {
		return nil, cerrors.InvalidCall(target, method, "contract is not deployed")
	}
	if c.inv.active(target) {
		return nil, cerrors.InvalidCall(target, method, "reentrant call")
	}
	if len(c.inv.stack) >= maxCallDepth {
		return nil, cerrors.InvalidCall(target, method, "call depth exceeded")
	}
	if err := common.Guard(c.h.pauses, target); err != nil {
		return nil, cerrors.InvalidCall(target, method, err.Error())
	}
	if hostInvoked(method) {
		return nil, cerrors.InvalidCall(target, method, errCallbackEntry)
	}
	m, ok := dep.contract.Lookup(method)
	if !ok {
		return nil, cerrors.MethodNotFound(target, method)
	}
	if c.readOnly && m.Kind == runtime.KindMutate {
		return nil, cerrors.InvalidCall(target, method, "queries cannot call mutating methods")
	}

	out := c.h.execute(c.Context, c.inv, frame{
		dep:     dep,
		method:  method,
		kind:    m.Kind,
		handler: m.Handler,
		sender:  c.dep.id,
		args:    args,
	})
	if out.Failed() {
		return nil, out.Err
	}
	return out.Value, nil
}

// CallDeferred queues method on target. The call is released to the host
// queue only if the issuing frame succeeds.
func (c *callContext) CallDeferred(target, method string, args []byte) (string, error) {
	if c.readOnly {
		return "", cerrors.InvalidCall(target, method, "queries cannot issue deferred calls")
	}
	if hostInvoked(method) {
		return "", cerrors.InvalidCall(target, method, errCallbackEntry)
	}
	token := c.h.newToken()
	c.deferred = append(c.deferred, queuedCall{
		Token:        token,
		Issuer:       c.dep.id,
		IssuerMethod: c.method,
		Target:       target,
		Method:       method,
		Args:         append([]byte(nil), args...),
	})
	return token, nil
}
