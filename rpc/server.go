// Package rpc exposes a contract host over JSON-RPC 2.0.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"contractkit/host"
	"contractkit/native/common"
	"contractkit/observability"
	"contractkit/runtime"
)

const maxRequestBytes = 1 << 20 // 1 MiB

// Host is the part of *host.Host the server drives.
type Host interface {
	Invoke(ctx context.Context, req host.Request) (host.Response, error)
	DeliverPending(ctx context.Context, limit int) (int, error)
	Contracts() []string
	Methods(id string) (map[string]runtime.Kind, bool)
	Keys(id string) ([]string, error)
	Height() uint64
	Pending() int
}

type Server struct {
	host    Host
	logger  *slog.Logger
	metrics *observability.RPCMetrics
	router  chi.Router
}

func NewServer(h Host, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{host: h, logger: logger, metrics: observability.RPC()}
	r := chi.NewRouter()
	r.Post("/rpc", s.handle)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(s, "contractkit-rpc"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting JSON-RPC server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", nil)
		return
	}

	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON", err.Error())
		return
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid JSON-RPC request", nil)
		return
	}

	start := time.Now()
	failed := s.dispatch(w, r, &req)
	s.metrics.Observe(req.Method, failed, time.Since(start))
}

// dispatch writes the response for req and reports whether it was an error.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) bool {
	switch req.Method {
	case "contract_invoke":
		return s.handleInvoke(w, r, req)
	case "contract_deliver":
		return s.handleDeliver(w, r, req)
	case "contract_list":
		s.handleList(w, req)
	case "contract_keys":
		return s.handleKeys(w, req)
	case "host_height":
		writeResult(w, req.ID, HeightResult{Height: s.host.Height(), Pending: s.host.Pending()})
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found: "+req.Method, nil)
		return true
	}
	return false
}

func decodeParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return errors.New("expected exactly one parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request, req *RPCRequest) bool {
	var params host.Request
	if err := decodeParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid invoke parameters", err.Error())
		return true
	}
	resp, err := s.host.Invoke(r.Context(), params)
	if err != nil {
		s.writeHostError(w, req.ID, err)
		return true
	}
	writeResult(w, req.ID, resp)
	return false
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request, req *RPCRequest) bool {
	var params DeliverParams
	if len(req.Params) > 0 {
		if err := decodeParam(req, &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid deliver parameters", err.Error())
			return true
		}
	}
	n, err := s.host.DeliverPending(r.Context(), params.Limit)
	if err != nil {
		s.writeHostError(w, req.ID, err)
		return true
	}
	writeResult(w, req.ID, DeliverResult{Delivered: n, Pending: s.host.Pending()})
	return false
}

func (s *Server) handleList(w http.ResponseWriter, req *RPCRequest) {
	ids := s.host.Contracts()
	out := make([]ContractInfo, 0, len(ids))
	for _, id := range ids {
		methods, ok := s.host.Methods(id)
		if !ok {
			continue
		}
		out = append(out, ContractInfo{ID: id, Methods: methods})
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleKeys(w http.ResponseWriter, req *RPCRequest) bool {
	var params KeysParams
	if err := decodeParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid keys parameters", err.Error())
		return true
	}
	keys, err := s.host.Keys(params.Contract)
	if err != nil {
		s.writeHostError(w, req.ID, err)
		return true
	}
	writeResult(w, req.ID, KeysResult{Contract: params.Contract, Keys: keys})
	return false
}

func (s *Server) writeHostError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, host.ErrUnknownContract):
		writeError(w, http.StatusNotFound, id, codeInvalidParams, err.Error(), nil)
	case errors.Is(err, host.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, id, codeRateLimited, err.Error(), nil)
	case errors.Is(err, host.ErrKeysUnsupported):
		writeError(w, http.StatusNotImplemented, id, codeServerError, err.Error(), nil)
	case errors.Is(err, common.ErrModulePaused):
		writeError(w, http.StatusServiceUnavailable, id, codePaused, err.Error(), nil)
	default:
		s.logger.Error("host request failed", "error", err)
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}
