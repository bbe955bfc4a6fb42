// Package host runs contracts in process. It keeps the deployment registry,
// dispatches methods according to their query/mutate classification,
// persists each contract's state snapshot, resolves synchronous nested calls
// and queues deferred calls until DeliverPending routes their results back.
//
// All invocations are serialized by a single host lock. Collection writes go
// straight to the backing database, so a failed invocation keeps whatever it
// wrote before failing; only the state snapshot is withheld.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	cerrors "contractkit/core/errors"
	"contractkit/core/types"
	"contractkit/native/common"
	"contractkit/observability"
	"contractkit/observability/logging"
	telemetry "contractkit/observability/otel"
	"contractkit/runtime"
	"contractkit/storage"
)

var (
	ErrUnknownContract   = errors.New("host: unknown contract")
	ErrAlreadyDeployed   = errors.New("host: contract already deployed")
	ErrInvalidContractID = errors.New("host: contract id must be non-empty and must not contain '/'")
	ErrRateLimited       = errors.New("host: sender rate limited")
	ErrKeysUnsupported   = errors.New("host: store backend cannot enumerate keys")
)

const (
	// DefaultLedgerID is the contract id reported by LedgerContractID unless
	// overridden with WithLedgerID.
	DefaultLedgerID = "ledger"

	statePrefix  = "s/"
	storePrefix  = "c/"
	heightKey    = "meta/height"
	maxCallDepth = 16
)

// Request addresses one top-level invocation.
type Request struct {
	ContractID string          `json:"contract"`
	Method     string          `json:"method"`
	Sender     string          `json:"sender"`
	Args       json.RawMessage `json:"args,omitempty"`
}

// Response carries the terminal outcome of an invocation: Value on success,
// Err on contract failure. Events and Deferred cover every frame of the
// invocation that succeeded, nested ones included.
type Response struct {
	Value    json.RawMessage        `json:"value,omitempty"`
	Err      *cerrors.ContractError `json:"error,omitempty"`
	Events   []types.Event          `json:"events,omitempty"`
	Deferred []string               `json:"deferred,omitempty"`
	Height   uint64                 `json:"height"`
}

type deployment struct {
	id       string
	contract *runtime.Contract
	store    storage.KeyedStore
}

// Host is safe for concurrent use.
type Host struct {
	mu sync.Mutex

	db        storage.Database
	contracts map[string]*deployment
	queue     []queuedCall
	height    uint64

	ledgerID      string
	logger        *slog.Logger
	metrics       *observability.HostMetrics
	tracer        trace.Tracer
	clock         func() time.Time
	newToken      func() string
	limiter       *senderLimiter
	pauses        common.PauseView
	redactSenders bool
}

// Option configures a Host.
type Option func(*Host)

func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics records executions into m. Without it the host records
// nothing.
func WithMetrics(m *observability.HostMetrics) Option {
	return func(h *Host) { h.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(h *Host) {
		if t != nil {
			h.tracer = t
		}
	}
}

// WithClock overrides the source of block timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Host) {
		if now != nil {
			h.clock = now
		}
	}
}

// WithTokenSource overrides how deferred-call correlation tokens are minted.
func WithTokenSource(next func() string) Option {
	return func(h *Host) {
		if next != nil {
			h.newToken = next
		}
	}
}

// WithRateLimit caps top-level invocations per sender. A non-positive rate
// disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(h *Host) { h.limiter = newSenderLimiter(perSecond, burst) }
}

// WithPauses refuses invocations of contracts p reports as paused.
func WithPauses(p common.PauseView) Option {
	return func(h *Host) { h.pauses = p }
}

// WithRedactedSenders masks sender addresses in logs.
func WithRedactedSenders() Option {
	return func(h *Host) { h.redactSenders = true }
}

func WithLedgerID(id string) Option {
	return func(h *Host) {
		if id = strings.TrimSpace(id); id != "" {
			h.ledgerID = id
		}
	}
}

// New returns a host over db. The block height is restored from db when a
// previous host persisted one.
func New(db storage.Database, opts ...Option) *Host {
	h := &Host{
		db:        db,
		contracts: make(map[string]*deployment),
		ledgerID:  DefaultLedgerID,
		logger:    slog.Default(),
		tracer:    telemetry.Tracer(),
		clock:     time.Now,
		newToken:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if height, err := h.loadHeight(); err != nil {
		h.logger.Error("restore block height", "error", err)
	} else {
		h.height = height
	}
	return h
}

const errCallbackEntry = "callback entry points are host-invoked"

// hostInvoked reports whether method receives deferred results. Only
// DeliverPending may run it.
func hostInvoked(method string) bool {
	return strings.HasSuffix(method, runtime.CallbackSuffix)
}

func validID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}

func stateKey(id string) []byte { return []byte(statePrefix + id) }

// Deploy registers c under id and runs its constructor as sender. When a
// state snapshot for id already exists in the database the contract is
// attached without running the constructor again.
func (h *Host) Deploy(ctx context.Context, id string, c *runtime.Contract, sender string, args []byte) (Response, error) {
	id = strings.TrimSpace(id)
	if !validID(id) {
		return Response{}, ErrInvalidContractID
	}
	if err := c.Validate(); err != nil {
		return Response{}, fmt.Errorf("host: deploy %s: %w", id, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.contracts[id]; exists {
		return Response{}, fmt.Errorf("%w: %s", ErrAlreadyDeployed, id)
	}
	dep := &deployment{id: id, contract: c, store: storage.Prefixed(h.db, storePrefix+id+"/")}

	attached, err := h.db.Has(stateKey(id))
	if err != nil {
		return Response{}, fmt.Errorf("host: deploy %s: %w", id, err)
	}
	h.contracts[id] = dep
	if attached {
		h.logger.Info("attached contract", "contract", id, "height", h.height)
		return Response{Height: h.height}, nil
	}

	h.advance()
	inv := &invocation{}
	out := h.execute(ctx, inv, frame{dep: dep, method: runtime.InitMethod, kind: runtime.KindMutate, handler: c.Init, sender: sender, args: args})
	if out.Failed() {
		delete(h.contracts, id)
		return Response{Err: out.Err, Height: h.height}, nil
	}
	h.logger.Info("deployed contract", "contract", id, "height", h.height)
	return Response{
		Value:    out.Value,
		Events:   inv.events,
		Deferred: h.enqueue(inv.deferred),
		Height:   h.height,
	}, nil
}

// Invoke runs one top-level method. The returned error reports host faults
// only; contract failures are carried in Response.Err.
func (h *Host) Invoke(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.limiter.allow(req.Sender) {
		h.metrics.RecordThrottle("rate_limit")
		return Response{}, ErrRateLimited
	}
	dep, ok := h.contracts[req.ContractID]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownContract, req.ContractID)
	}
	if err := common.Guard(h.pauses, req.ContractID); err != nil {
		h.metrics.RecordThrottle("paused")
		return Response{}, fmt.Errorf("host: %s: %w", req.ContractID, err)
	}
	if hostInvoked(req.Method) {
		return Response{Err: cerrors.InvalidCall(req.ContractID, req.Method, errCallbackEntry), Height: h.height}, nil
	}
	m, ok := dep.contract.Lookup(req.Method)
	if !ok {
		return Response{Err: cerrors.MethodNotFound(req.ContractID, req.Method), Height: h.height}, nil
	}
	if m.Kind == runtime.KindMutate {
		h.advance()
	}

	inv := &invocation{}
	out := h.execute(ctx, inv, frame{dep: dep, method: req.Method, kind: m.Kind, handler: m.Handler, sender: req.Sender, args: req.Args})
	resp := Response{Events: inv.events, Deferred: h.enqueue(inv.deferred), Height: h.height}
	if out.Failed() {
		resp.Err = out.Err
	} else {
		resp.Value = out.Value
	}
	return resp, nil
}

// Contracts returns the deployed contract ids in sorted order.
func (h *Host) Contracts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.contracts))
	for id := range h.contracts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Methods reports the method classification of a deployed contract.
func (h *Host) Methods(id string) (map[string]runtime.Kind, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	dep, ok := h.contracts[id]
	if !ok {
		return nil, false
	}
	return dep.contract.MethodKinds(), true
}

// Keys lists the collection keys contract id has written, relative to its
// store. Element keys are returned as stored, without decoding.
func (h *Host) Keys(id string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.contracts[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, id)
	}
	it, ok := h.db.(storage.Iterable)
	if !ok {
		return nil, ErrKeysUnsupported
	}
	prefix := storePrefix + id + "/"
	raw, err := it.KeysWithPrefix([]byte(prefix))
	if err != nil {
		return nil, fmt.Errorf("host: list keys of %s: %w", id, err)
	}
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = strings.TrimPrefix(string(k), prefix)
	}
	return keys, nil
}

func (h *Host) Height() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height
}

// Pending returns the number of deferred calls awaiting delivery.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

func (h *Host) advance() {
	h.height++
	h.metrics.SetHeight(h.height)
	if err := h.saveHeight(); err != nil {
		h.logger.Error("persist block height", "height", h.height, "error", err)
	}
}

func (h *Host) loadHeight() (uint64, error) {
	raw, err := h.db.Get([]byte(heightKey))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var height uint64
	if err := rlp.DecodeBytes(raw, &height); err != nil {
		return 0, err
	}
	return height, nil
}

func (h *Host) saveHeight() error {
	raw, err := rlp.EncodeToBytes(h.height)
	if err != nil {
		return err
	}
	return h.db.Put([]byte(heightKey), raw)
}

func (h *Host) loadState(id string) ([]byte, error) {
	raw, err := h.db.Get(stateKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return raw, err
}

func (h *Host) saveState(id string, state []byte) error {
	return h.db.Put(stateKey(id), state)
}

func (h *Host) senderAttr(sender string) slog.Attr {
	if h.redactSenders {
		return logging.MaskField("sender", sender)
	}
	return slog.String("sender", sender)
}
