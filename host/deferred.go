package host

import (
	"context"

	cerrors "contractkit/core/errors"
	"contractkit/native/common"
	"contractkit/runtime"
)

// queuedCall is a deferred call waiting for delivery.
type queuedCall struct {
	Token        string
	Issuer       string
	IssuerMethod string
	Target       string
	Method       string
	Args         []byte
}

func (h *Host) enqueue(calls []queuedCall) []string {
	if len(calls) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(calls))
	for _, call := range calls {
		h.queue = append(h.queue, call)
		tokens = append(tokens, call.Token)
		h.metrics.RecordDeferred("queued")
	}
	h.metrics.SetPending(len(h.queue))
	return tokens
}

// DeliverPending delivers up to limit queued deferred calls in issue order.
// A non-positive limit delivers every call queued at entry; calls queued
// while delivering wait for the next round. Each delivery runs the target
// method with the issuing contract as sender, then passes the Result to the
// issuer's callback entry point with the target as sender. It returns the
// number of calls delivered.
func (h *Host) DeliverPending(ctx context.Context, limit int) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 {
		limit = len(h.queue)
	}
	delivered := 0
	for len(h.queue) > 0 && delivered < limit {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		call := h.queue[0]
		h.queue = h.queue[1:]
		h.advance()
		h.deliver(ctx, call)
		delivered++
	}
	h.metrics.SetPending(len(h.queue))
	return delivered, nil
}

func (h *Host) deliver(ctx context.Context, call queuedCall) {
	logger := h.logger.With("xpod_id", call.Token, "contract", call.Issuer)

	inv := &invocation{}
	result := h.executeDeferred(ctx, inv, call)
	h.enqueue(inv.deferred)

	issuer, ok := h.contracts[call.Issuer]
	if !ok {
		logger.Warn("issuer of deferred call is gone; dropping result")
		h.metrics.RecordDeferred("dropped")
		return
	}
	name := runtime.CallbackMethod(call.IssuerMethod)
	m, ok := issuer.contract.Lookup(name)
	if !ok {
		logger.Warn("issuer has no callback entry point; dropping result", "method", name)
		h.metrics.RecordDeferred("dropped")
		return
	}
	args, err := runtime.Encode(runtime.Callback{XpodID: call.Token, Result: result})
	if err != nil {
		logger.Error("encode callback payload", "error", err)
		h.metrics.RecordDeferred("dropped")
		return
	}

	cb := &invocation{}
	out := h.execute(ctx, cb, frame{
		dep:     issuer,
		method:  name,
		kind:    m.Kind,
		handler: m.Handler,
		sender:  call.Target,
		args:    args,
	})
	h.enqueue(cb.deferred)
	if out.Failed() {
		h.metrics.RecordDeferred("failed")
		return
	}
	h.metrics.RecordDeferred("delivered")
	logger.Debug("delivered deferred call", "target", call.Target, "method", call.Method, "err_result", result.IsErr(), "events", len(inv.events)+len(cb.events))
}

func (h *Host) executeDeferred(ctx context.Context, inv *invocation, call queuedCall) runtime.CallResult {
	dep, ok := h.contracts[call.Target]
	if !ok {
		return runtime.ErrResult(cerrors.InvalidCall(call.Target, call.Method, "contract is not deployed"))
	}
	if err := common.Guard(h.pauses, call.Target); err != nil {
		return runtime.ErrResult(cerrors.InvalidCall(call.Target, call.Method, err.Error()))
	}
	m, ok := dep.contract.Lookup(call.Method)
	if !ok {
		return runtime.ErrResult(cerrors.MethodNotFound(call.Target, call.Method))
	}
	out := h.execute(ctx, inv, frame{
		dep:     dep,
		method:  call.Method,
		kind:    m.Kind,
		handler: m.Handler,
		sender:  call.Issuer,
		args:    call.Args,
	})
	if out.Failed() {
		return runtime.ErrResult(out.Err)
	}
	return runtime.OkResult(out.Value)
}
