package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad-indexer/internal/broadcast"
	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/fees"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/rewards"
	"launchpad-indexer/internal/watcher"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second

	defaultLeaderboardLimit = 10
)

// RewardsAPI is the slice of the rewards service the gateway exposes.
type RewardsAPI interface {
	Summary(ctx context.Context, creator string) (*rewards.Summary, error)
	Claim(ctx context.Context, creator, wallet string) (*rewards.ClaimResult, error)
	ClaimPool(ctx context.Context, creator, poolAddress, wallet string) (*rewards.ClaimResult, error)
	Leaderboard(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error)
}

// Sweeper runs one fee-collection pass on demand.
type Sweeper interface {
	Sweep(ctx context.Context) (fees.Summary, error)
}

// StatusSource reports the chain watcher's liveness for health checks.
type StatusSource interface {
	Status() watcher.Status
}

// ServerConfig wires the gateway's collaborators.
type ServerConfig struct {
	Addr string

	Rewards RewardsAPI
	Sweeper Sweeper
	Hub     *broadcast.Hub
	Watcher StatusSource

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Server serves the HTTP API and the realtime WebSocket endpoint.
type Server struct {
	cfg    ServerConfig
	router *mux.Router
	server *http.Server
	logger *zap.Logger
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		logger: cfg.Logger.Named("gateway"),
	}
	s.routes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	// Specific paths before the {botId} wildcard.
	s.router.HandleFunc("/rewards/leaderboard/top", s.handleLeaderboard).Methods(http.MethodGet)
	s.router.HandleFunc("/rewards/collect", s.handleCollect).Methods(http.MethodPost)
	s.router.HandleFunc("/rewards/{botId}", s.handleSummary).Methods(http.MethodGet)
	s.router.HandleFunc("/rewards/{botId}/claim", s.handleClaim).Methods(http.MethodPost)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWS)
}

type rewardRow struct {
	PoolAddress    string          `json:"poolAddress"`
	TokenAddress   string          `json:"tokenAddress"`
	LifetimeEarned decimal.Decimal `json:"lifetimeEarned"`
	Unclaimed      decimal.Decimal `json:"unclaimed"`
	SharePercent   decimal.Decimal `json:"sharePercent"`
	Claimed        bool            `json:"claimed"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	botID := mux.Vars(r)["botId"]

	summary, err := s.cfg.Rewards.Summary(r.Context(), botID)
	if err != nil {
		s.logger.Error("reward summary failed", zap.String("creator", botID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load rewards")
		return
	}

	rows := make([]rewardRow, 0, len(summary.Rewards))
	for _, rw := range summary.Rewards {
		rows = append(rows, rewardRow{
			PoolAddress:    rw.PoolAddress,
			TokenAddress:   rw.TokenAddress,
			LifetimeEarned: rw.LifetimeEarned,
			Unclaimed:      rw.Unclaimed,
			SharePercent:   rw.SharePercent,
			Claimed:        rw.Claimed,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"botId":       summary.Creator,
		"totalEarned": summary.TotalEarned,
		"claimed":     summary.Claimed,
		"unclaimed":   summary.Unclaimed,
		"poolCount":   summary.PoolCount,
		"rewards":     rows,
	})
}

type claimRequest struct {
	BotWallet   string `json:"botWallet"`
	PoolAddress string `json:"poolAddress,omitempty"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	botID := mux.Vars(r)["botId"]

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BotWallet == "" {
		writeError(w, http.StatusBadRequest, "botWallet is required")
		return
	}

	var (
		result *rewards.ClaimResult
		err    error
	)
	if req.PoolAddress != "" {
		result, err = s.cfg.Rewards.ClaimPool(r.Context(), botID, req.PoolAddress, req.BotWallet)
	} else {
		result, err = s.cfg.Rewards.Claim(r.Context(), botID, req.BotWallet)
	}
	if err != nil {
		switch {
		case errors.Is(err, rewards.ErrInvalidWallet):
			writeError(w, http.StatusBadRequest, "invalid wallet address")
		case errors.Is(err, rewards.ErrNoUnclaimedRewards):
			writeError(w, http.StatusBadRequest, "no unclaimed rewards")
		case errors.Is(err, rewards.ErrAmountBelowMinimum):
			writeError(w, http.StatusBadRequest, "reward balance below minimum claim amount")
		default:
			s.logger.Error("reward claim failed", zap.String("creator", botID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "claim failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"amount":    result.Amount,
		"signature": result.Signature,
		"pools":     result.Pools,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	entries, err := s.cfg.Rewards.Leaderboard(r.Context(), limit)
	if err != nil {
		s.logger.Error("leaderboard query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	rows := make([]map[string]any, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, map[string]any{
			"rank":        i + 1,
			"botId":       e.Creator,
			"botWallet":   e.CreatorWallet,
			"totalEarned": e.TotalEarned,
			"poolCount":   e.PoolCount,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"leaderboard": rows,
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	summary, err := s.cfg.Sweeper.Sweep(r.Context())
	if err != nil {
		if errors.Is(err, fees.ErrSweepInProgress) {
			writeError(w, http.StatusConflict, "a fee sweep is already running")
			return
		}
		s.logger.Error("manual fee sweep failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "fee sweep failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"poolsProcessed": summary.Processed,
		"collected":      summary.Claimed,
		"totalAmount":    summary.TotalAmount,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := watcher.Status{}
	if s.cfg.Watcher != nil {
		status = s.cfg.Watcher.Status()
	}

	code := http.StatusOK
	if !status.Running {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"success":  status.Running,
		"watcher":  status.Running,
		"lastSlot": status.LastSlot,
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"error":   msg,
	})
}
