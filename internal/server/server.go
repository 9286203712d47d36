// Package server exposes the advisor over HTTP with JSON request and response bodies.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"BitcoinAdvisor/internal/advisor"
	"BitcoinAdvisor/internal/apperr"
	"BitcoinAdvisor/internal/metrics"
	"BitcoinAdvisor/internal/presenter"
)

const maxBodyBytes = 1 << 16

// Advisor is the subset of advisor.Service the handlers need.
type Advisor interface {
	Analyze(ctx context.Context, req advisor.AnalyzeRequest) (presenter.Analysis, error)
	SimulateDCA(ctx context.Context, req advisor.DCARequest) (presenter.DCA, error)
	History(ctx context.Context, limit int) ([]presenter.HistoryEntry, error)
}

// Server represents the HTTP server.
type Server struct {
	port          int
	advisor       Advisor
	metrics       *metrics.Metrics
	health        *metrics.HealthStatus
	defaultAmount float64
	server        *http.Server
}

// NewServer creates a new HTTP server. Metrics and health may be nil.
func NewServer(port int, a Advisor, m *metrics.Metrics, h *metrics.HealthStatus, defaultAmount float64) *Server {
	return &Server{port: port, advisor: a, metrics: m, health: h, defaultAmount: defaultAmount}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /get_recommendations", s.instrument("get_recommendations", s.handleRecommendations))
	mux.HandleFunc("POST /simulate_dca", s.instrument("simulate_dca", s.handleSimulateDCA))
	mux.HandleFunc("GET /history", s.instrument("history", s.handleHistory))
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	zap.L().Info("starting HTTP server", zap.Int("port", s.port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		if s.metrics != nil {
			s.metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		}
		zap.L().Debug("request served",
			zap.String("endpoint", endpoint),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	}
}

// recommendationsRequest is the JSON body of /get_recommendations. Chart defaults to true.
type recommendationsRequest struct {
	Symbol string `json:"symbol"`
	Period string `json:"period"`
	Chart  *bool  `json:"chart"`
}

// recommendationsResponse flattens the snapshot onto the top level.
type recommendationsResponse struct {
	Status string `json:"status"`
	presenter.Snapshot
	Symbol          string                     `json:"symbol"`
	Period          string                     `json:"period"`
	Recommendations []presenter.Recommendation `json:"recommendations"`
	LatestCross     *presenter.Cross           `json:"latest_cross"`
	Insufficient    bool                       `json:"insufficient_history"`
	Warning         string                     `json:"warning,omitempty"`
	Display         *presenter.Display         `json:"display,omitempty"`
	Chart           *presenter.Chart           `json:"chart,omitempty"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := s.advisor.Analyze(r.Context(), advisor.AnalyzeRequest{
		Symbol:       req.Symbol,
		Period:       req.Period,
		IncludeChart: req.Chart == nil || *req.Chart,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	setRunID(w, out.RunID)
	writeJSON(w, http.StatusOK, recommendationsResponse{
		Status:          "success",
		Snapshot:        out.Snapshot,
		Symbol:          out.Symbol,
		Period:          out.Period,
		Recommendations: out.Recommendations,
		LatestCross:     out.LatestCross,
		Insufficient:    out.Insufficient,
		Warning:         out.Warning,
		Display:         out.Display,
		Chart:           out.Chart,
	})
}

type dcaRequest struct {
	Symbol   string   `json:"symbol"`
	Period   string   `json:"period"`
	Amount   *float64 `json:"amount"`
	Interval string   `json:"interval"`
}

type dcaResponse struct {
	Status string `json:"status"`
	presenter.DCA
}

func (s *Server) handleSimulateDCA(w http.ResponseWriter, r *http.Request) {
	var req dcaRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount := s.defaultAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	out, err := s.advisor.SimulateDCA(r.Context(), advisor.DCARequest{
		Symbol:   req.Symbol,
		Period:   req.Period,
		Amount:   amount,
		Interval: req.Interval,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	setRunID(w, out.RunID)
	writeJSON(w, http.StatusOK, dcaResponse{Status: "success", DCA: out})
}

// RunIDHeader carries the persisted run id, outside the deterministic body.
const RunIDHeader = "X-Run-ID"

func setRunID(w http.ResponseWriter, id string) {
	if id != "" {
		w.Header().Set(RunIDHeader, id)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, apperr.InvalidParameter("limit must be a positive integer, got %q", v))
			return
		}
		limit = n
	}
	history, err := s.advisor.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "history": history})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.health != nil {
		resp["health"] = s.health.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeBody accepts an empty body as all defaults.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.InvalidParameter("malformed JSON body: %v", err)
	}
	return nil
}

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidParameter:
		return http.StatusBadRequest
	case apperr.KindDataUnavailable:
		return http.StatusBadGateway
	case apperr.KindInsufficientHistory:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == apperr.KindInternal {
		zap.L().Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, statusFor(kind), errorResponse{Status: "error", Code: string(kind), Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response failed", zap.Error(err))
	}
}
