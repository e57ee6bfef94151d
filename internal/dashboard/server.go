package dashboard

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/report"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

// Server serves the run artifacts as a read-only JSON API.
type Server struct {
	reader     *report.Reader
	history    *report.HistoryStore
	log        *logger.Logger
	httpServer *http.Server
	listener   net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithHistoryStore enables the decision count endpoint backed by the Parquet trade history.
func WithHistoryStore(history *report.HistoryStore) Option {
	return func(s *Server) {
		s.history = history
	}
}

// WithLogger sets the request logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer creates a dashboard server reading the artifacts through reader.
func NewServer(reader *report.Reader, opts ...Option) *Server {
	s := &Server{
		reader: reader,
		log:    logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.Named("dashboard")

	return s
}

// Router returns the HTTP handler of the API.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/portfolio", s.handlePortfolio).Methods(http.MethodGet)
	api.HandleFunc("/signals", s.handleSignals).Methods(http.MethodGet)
	api.HandleFunc("/trade-history", s.handleTradeHistory).Methods(http.MethodGet)
	api.HandleFunc("/assets", s.handleAssets).Methods(http.MethodGet)
	api.HandleFunc("/asset-performance/{asset}", s.handleAssetPerformance).Methods(http.MethodGet)
	api.HandleFunc("/asset-history/{asset}", s.handleAssetHistory).Methods(http.MethodGet)
	api.HandleFunc("/asset-allocation", s.handleAssetAllocation).Methods(http.MethodGet)
	api.HandleFunc("/decision-counts/{asset}", s.handleDecisionCounts).Methods(http.MethodGet)
	api.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)

	router.Use(s.logRequests)

	return router
}

// Start listens on address and serves in the background.
// An empty address or ":0" picks a free port; see Addr.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to listen on %s", address)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Dashboard server stopped", zap.Error(err))
		}
	}()

	s.log.Info("Dashboard listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	summary, err := s.reader.PortfolioSummary()
	if errors.HasCode(err, errors.ErrCodeDataNotFound) {
		writeError(w, http.StatusNotFound, "Summary file not found")

		return
	}

	if err != nil {
		s.serverError(w, err)

		return
	}

	writeJSON(w, summary)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	details, err := s.reader.PortfolioDetails()
	if err != nil {
		s.serverError(w, err)

		return
	}

	writeJSON(w, details)
}

func (s *Server) handleSignals(w http.ResponseWriter, _ *http.Request) {
	signals, err := s.reader.DailySignals()
	if err != nil {
		s.serverError(w, err)

		return
	}

	writeJSON(w, signals)
}

func (s *Server) handleTradeHistory(w http.ResponseWriter, _ *http.Request) {
	records, err := s.reader.TradeHistory()
	if err != nil {
		s.serverError(w, err)

		return
	}

	writeJSON(w, report.Tail(records, report.TradeHistoryWindow))
}

// Per-asset endpoints answer an empty list when the trade log cannot be read.

func (s *Server) handleAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, report.Assets(s.tradeHistory()))
}

func (s *Server) handleAssetPerformance(w http.ResponseWriter, r *http.Request) {
	asset := mux.Vars(r)["asset"]
	writeJSON(w, report.AssetPerformance(s.tradeHistory(), asset))
}

func (s *Server) handleAssetHistory(w http.ResponseWriter, r *http.Request) {
	asset := mux.Vars(r)["asset"]
	writeJSON(w, report.AssetHistory(s.tradeHistory(), asset))
}

func (s *Server) handleAssetAllocation(w http.ResponseWriter, _ *http.Request) {
	details, err := s.reader.PortfolioDetails()
	if err != nil {
		s.serverError(w, err)

		return
	}

	writeJSON(w, report.AssetAllocation(details))
}

func (s *Server) handleDecisionCounts(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "Parquet trade history is not configured")

		return
	}

	counts, err := s.history.DecisionCounts(mux.Vars(r)["asset"])
	if err != nil {
		s.serverError(w, err)

		return
	}

	out := map[types.Decision]int{
		types.DecisionBuy:  0,
		types.DecisionSell: 0,
		types.DecisionHold: 0,
	}
	for decision, count := range counts {
		out[decision] = count
	}

	writeJSON(w, out)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"version": version.GetVersion()})
}

func (s *Server) tradeHistory() []types.TradeRecord {
	records, err := s.reader.TradeHistory()
	if err != nil {
		s.log.Warn("Failed to read trade history", zap.Error(err))

		return nil
	}

	return records
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
