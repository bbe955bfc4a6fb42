// Package runtimetest provides an in-memory runtime.Context for contract unit
// tests. Remote contracts are replaced by stub handlers and deferred calls are
// recorded instead of executed.
package runtimetest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	cerrors "contractkit/core/errors"
	"contractkit/core/events"
	"contractkit/core/types"
	"contractkit/storage"
)

// Handler stands in for a remote contract method.
type Handler func(sender string, args []byte) ([]byte, error)

// Call records one synchronous call made by the contract under test.
type Call struct {
	Sender string
	Target string
	Method string
	Args   []byte
}

// DeferredCall records one CallDeferred request.
type DeferredCall struct {
	Token  string
	Sender string
	Target string
	Method string
	Args   []byte
}

type shared struct {
	mu       sync.Mutex
	db       *storage.MemDB
	store    storage.KeyedStore
	handlers map[string]Handler
	calls    []Call
	deferred []DeferredCall
	tokens   int
	recorder events.Recorder
}

// Context implements runtime.Context. Copies made with As or ReadOnly share
// the store, the stubs and the recordings.
type Context struct {
	context.Context

	SenderAddr string
	ID         string
	Ledger     string
	Height     uint64
	Timestamp  string

	readOnly bool
	logger   *slog.Logger
	s        *shared
}

// New returns a context for contract id with sender "alice" and ledger
// contract "ledger".
func New(id string) *Context {
	db := storage.NewMemDB()
	return &Context{
		Context:    context.Background(),
		SenderAddr: "alice",
		ID:         id,
		Ledger:     "ledger",
		Height:     1,
		Timestamp:  "2024-01-01T00:00:00Z",
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		s: &shared{
			db:       db,
			store:    storage.Prefixed(db, ""),
			handlers: make(map[string]Handler),
		},
	}
}

// As returns a view of the same contract invoked by sender.
func (c *Context) As(sender string) *Context {
	cp := *c
	cp.SenderAddr = sender
	return &cp
}

// ReadOnly returns a view whose store rejects writes, as during a query.
func (c *Context) ReadOnly() *Context {
	cp := *c
	cp.readOnly = true
	return &cp
}

func (c *Context) Sender() string           { return c.SenderAddr }
func (c *Context) ContractID() string       { return c.ID }
func (c *Context) LedgerContractID() string { return c.Ledger }
func (c *Context) BlockHeight() uint64      { return c.Height }
func (c *Context) BlockTimestamp() string   { return c.Timestamp }
func (c *Context) Logger() *slog.Logger     { return c.logger }

func (c *Context) Store() storage.KeyedStore {
	if c.readOnly {
		return storage.ReadOnly(c.s.store)
	}
	return c.s.store
}

// DB exposes the physical store for assertions on raw keys.
func (c *Context) DB() *storage.MemDB { return c.s.db }

var _ events.Emitter = (*Context)(nil)

func (c *Context) Emit(evt events.Event) { c.s.recorder.Emit(evt) }

// Events returns the events emitted so far.
func (c *Context) Events() []types.Event { return c.s.recorder.Events() }

func handlerKey(target, method string) string { return target + "." + method }

// Handle installs a stub for method on target.
func (c *Context) Handle(target, method string, h Handler) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.handlers[handlerKey(target, method)] = h
}

func (c *Context) Call(target, method string, args []byte) ([]byte, error) {
	c.s.mu.Lock()
	h, ok := c.s.handlers[handlerKey(target, method)]
	c.s.calls = append(c.s.calls, Call{Sender: c.ID, Target: target, Method: method, Args: append([]byte(nil), args...)})
	c.s.mu.Unlock()
	if !ok {
		return nil, cerrors.InvalidCall(target, method, "no such contract method")
	}
	out, err := h(c.ID, args)
	if err != nil {
		if ce, isContract := cerrors.As(err); isContract {
			return nil, cerrors.CrossContractCall(target, method, ce.Error())
		}
		return nil, cerrors.CrossContractCall(target, method, err.Error())
	}
	return out, nil
}

func (c *Context) CallDeferred(target, method string, args []byte) (string, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.tokens++
	token := fmt.Sprintf("tok-%d", c.s.tokens)
	c.s.deferred = append(c.s.deferred, DeferredCall{
		Token:  token,
		Sender: c.ID,
		Target: target,
		Method: method,
		Args:   append([]byte(nil), args...),
	})
	return token, nil
}

// Calls returns the synchronous calls made so far.
func (c *Context) Calls() []Call {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]Call, len(c.s.calls))
	copy(out, c.s.calls)
	return out
}

// Deferred returns the deferred calls issued so far. Tokens are "tok-1",
// "tok-2", ... in issue order.
func (c *Context) Deferred() []DeferredCall {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]DeferredCall, len(c.s.deferred))
	copy(out, c.s.deferred)
	return out
}
