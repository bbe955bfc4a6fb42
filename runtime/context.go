// Package runtime defines the boundary between contract logic and the host
// that executes it.
//
// A contract is a set of named methods over an explicit state value. Each
// invocation receives the persisted state snapshot and the JSON arguments,
// and produces exactly one Outcome: a new snapshot plus a value, or an error.
// Collection contents are not part of the snapshot; they are written through
// Context.Store as the method runs.
package runtime

import (
	"context"
	"log/slog"

	"contractkit/core/events"
	"contractkit/storage"
)

// Context is what a contract method can observe and do. Implementations are
// supplied by the host; runtimetest provides an in-memory one.
type Context interface {
	context.Context

	// Sender is the address (or contract id, for nested calls) that invoked
	// the current method.
	Sender() string
	ContractID() string
	LedgerContractID() string
	BlockHeight() uint64
	// BlockTimestamp is an RFC3339 timestamp.
	BlockTimestamp() string

	// Store is this contract's key space. It rejects writes during queries.
	Store() storage.KeyedStore

	// Call runs method on target to completion and returns its JSON value.
	Call(target, method string, args []byte) ([]byte, error)
	// CallDeferred schedules method on target and returns the host-assigned
	// correlation token. The result arrives later through the issuing
	// method's callback.
	CallDeferred(target, method string, args []byte) (string, error)

	Logger() *slog.Logger
	// Emitted events are released only if the method succeeds.
	events.Emitter
}
