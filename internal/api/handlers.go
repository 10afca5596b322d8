package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/engine"
	"github.com/pkillboredom/MA210-Roulette/internal/record"
	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
	"github.com/pkillboredom/MA210-Roulette/internal/scripting"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
	"github.com/pkillboredom/MA210-Roulette/internal/store"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	roundFlushSize          = 200
)

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	catalog := roulette.NewCatalog()

	resp := TableResponse{EngineVersion: EngineVersion}
	for _, p := range catalog.Primitives() {
		resp.Pockets = append(resp.Pockets, PocketInfo{
			Value:      p.Value,
			Color:      roulette.ColorOf(p.Value).String(),
			Multiplier: p.Multiplier(),
		})
	}
	for _, g := range roulette.Groups() {
		c := catalog.Group(g)
		resp.Groups = append(resp.Groups, GroupInfo{
			Name:       c.Name(),
			Category:   c.Category().String(),
			Values:     c.Values(),
			Multiplier: c.Multiplier(),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// simulationPlan is a validated SimulationRequest.
type simulationPlan struct {
	cfg      sim.Config
	strategy sim.Strategy
	seeds    engine.Seeds
	nonce    uint64
}

func (s *Server) parseSimulation(req SimulationRequest) (*simulationPlan, *ErrorBuilder) {
	startBalance, err := decimal.NewFromString(req.StartBalance)
	if err != nil {
		return nil, NewError(ErrTypeInvalidParams, "start_balance must be a decimal").
			WithContext("field", "start_balance")
	}
	stake, err := decimal.NewFromString(req.Stake)
	if err != nil {
		return nil, NewError(ErrTypeInvalidParams, "stake must be a decimal").
			WithContext("field", "stake")
	}
	if req.MaxRounds < 0 || req.MaxRounds > s.limits.MaxRounds {
		return nil, NewError(ErrTypeInvalidParams, fmt.Sprintf("max_rounds must be between 0 and %d", s.limits.MaxRounds)).
			WithContext("field", "max_rounds").
			WithContext("max_allowed", s.limits.MaxRounds)
	}
	maxRounds := req.MaxRounds
	if maxRounds == 0 {
		maxRounds = s.limits.MaxRounds
	}

	cfg := sim.Config{StartBalance: startBalance, Stake: stake, MaxRounds: maxRounds}
	if err := cfg.Validate(); err != nil {
		return nil, NewError(ErrTypeInvalidParams, err.Error())
	}

	strategy, eb := s.parseStrategy(req)
	if eb != nil {
		return nil, eb
	}

	var seeds engine.Seeds
	if req.Seeds != nil {
		if req.Seeds.Server == "" || req.Seeds.Client == "" {
			return nil, NewError(ErrTypeInvalidSeed, "seeds need both server and client values")
		}
		seeds = *req.Seeds
	} else {
		seeds, err = engine.NewSeeds()
		if err != nil {
			return nil, NewError(ErrTypeInternal, "failed to generate seeds").WithCause(err)
		}
	}

	return &simulationPlan{cfg: cfg, strategy: strategy, seeds: seeds, nonce: req.NonceStart}, nil
}

// parseStrategy builds the requested strategy. Scripts are only accepted
// inline; file paths never reach the server's filesystem.
func (s *Server) parseStrategy(req SimulationRequest) (sim.Strategy, *ErrorBuilder) {
	if req.Script != "" {
		name := req.Strategy
		if name == "" {
			name = "inline"
		}
		strategy, err := scripting.NewStrategy(name, req.Script, s.logger)
		if err != nil {
			return nil, NewError(ErrTypeInvalidParams, "script failed to load").
				WithContext("field", "script").
				WithCause(err)
		}
		return strategy, nil
	}
	if strings.HasPrefix(strings.TrimSpace(req.Strategy), "script:") {
		return nil, NewError(ErrTypeInvalidParams, "script files are not accepted; send the source in the script field").
			WithContext("field", "strategy")
	}
	strategy, err := sim.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, NewError(ErrTypeInvalidTarget, err.Error()).WithContext("field", "strategy")
	}
	return strategy, nil
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return
	}
	plan, eb := s.parseSimulation(req)
	if eb != nil {
		status := http.StatusBadRequest
		if eb.errType == ErrTypeInternal {
			status = http.StatusInternalServerError
		}
		s.errorHandler.handle(w, r, status, eb)
		return
	}

	ctx := r.Context()
	src := engine.NewSeededSource(plan.seeds, plan.nonce)
	table := roulette.BuildTable(roulette.WithSource(src))
	hash := engine.HashServerSeed(plan.seeds.Server)

	sessionID, recorders, err := s.openSession(ctx, plan, hash)
	if err != nil {
		s.errorHandler.HandleError(w, r, NewError(ErrTypeInternal, "failed to create session").WithCause(err).Build(), http.StatusInternalServerError)
		return
	}

	runner, err := sim.NewRunner(plan.cfg, table, plan.strategy,
		sim.WithSink(recorders),
		sim.WithLogger(s.logger.With(zap.String("session_id", sessionID))),
	)
	if err != nil {
		_ = recorders.Close()
		s.errorHandler.HandleError(w, r, NewError(ErrTypeInvalidParams, err.Error()).Build(), http.StatusBadRequest)
		return
	}

	res, runErr := runner.Run(ctx)
	closeErr := recorders.Close()
	s.metrics.ObserveSession(res.Outcome, runErr)

	// The request may be gone by now; the session row still gets its final state.
	endCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		s.finishFailed(endCtx, sessionID)
		status, errType := http.StatusUnprocessableEntity, ErrTypeSimulation
		if errors.Is(runErr, context.DeadlineExceeded) {
			status, errType = http.StatusGatewayTimeout, ErrTypeTimeout
		}
		s.errorHandler.HandleError(w, r, NewError(errType, "simulation aborted").
			WithContext("session_id", sessionID).
			WithContext("rounds", res.Stats.Rounds).
			WithCause(runErr).Build(), status)
		return
	}
	if closeErr != nil {
		s.logger.Warn("closing recorders", zap.String("session_id", sessionID), zap.Error(closeErr))
	}

	if s.db != nil {
		if err := s.db.EndSession(endCtx, sessionID, store.EndFromResult(res)); err != nil {
			s.logger.Error("end session", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	if err := s.board.Submit(endCtx, sessionID, res.Stats.Profit); err != nil {
		s.logger.Warn("leaderboard submit", zap.String("session_id", sessionID), zap.Error(err))
	}

	s.writeJSON(w, http.StatusCreated, SimulationResponse{
		SessionID:      sessionID,
		Seeds:          plan.seeds,
		ServerSeedHash: hash,
		NonceStart:     plan.nonce,
		NonceEnd:       src.Nonce(),
		Result:         res,
		ReturnToPlayer: res.Stats.ReturnToPlayer().String(),
		ProfitPercent:  res.Stats.ProfitPercent(),
		EngineVersion:  EngineVersion,
	})
}

// openSession registers the session and builds the fan-out every round is
// written to. Without a database the ID is only used for the leaderboard.
func (s *Server) openSession(ctx context.Context, plan *simulationPlan, hash string) (string, record.Recorder, error) {
	sess := &store.Session{
		Strategy:       plan.strategy.Name(),
		ServerSeedHash: hash,
		ClientSeed:     plan.seeds.Client,
		NonceStart:     plan.nonce,
		StartBalance:   plan.cfg.StartBalance,
		Stake:          plan.cfg.Stake,
		MaxRounds:      plan.cfg.MaxRounds,
	}

	var sessionRec record.Recorder
	if s.db != nil {
		id, err := s.db.CreateSession(ctx, sess)
		if err != nil {
			return "", nil, err
		}
		sess.ID = id
		sessionRec = record.NewSessionRecorder(s.db, id, roundFlushSize)
	} else {
		sess.ID = uuid.NewString()
	}

	var kafkaRec record.Recorder
	if s.kafka != nil {
		kafkaRec = record.NewKafkaPublisher(record.SharedWriter(s.kafka), sess.ID, sess.Strategy, s.logger)
	}
	return sess.ID, record.Multi(sessionRec, s.metrics, kafkaRec), nil
}

func (s *Server) finishFailed(ctx context.Context, sessionID string) {
	if s.db == nil {
		return
	}
	if err := s.db.EndSession(ctx, sessionID, store.SessionEnd{FinalState: "error"}); err != nil {
		s.logger.Error("end failed session", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	page, perPage := pagination(r, 20)
	list, err := s.db.ListSessions(r.Context(), store.SessionsQuery{
		Strategy: r.URL.Query().Get("strategy"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		s.errorHandler.HandleError(w, r, NewError(ErrTypeInternal, "failed to list sessions").WithCause(err).Build(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	id := chi.URLParam(r, "id")
	sess, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		s.storeError(w, r, id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionRounds(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := s.db.GetSession(r.Context(), id); err != nil {
		s.storeError(w, r, id, err)
		return
	}
	page, perPage := pagination(r, 100)
	rounds, err := s.db.GetSessionRounds(r.Context(), id, page, perPage)
	if err != nil {
		s.storeError(w, r, id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rounds)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.db.DeleteSession(r.Context(), id); err != nil {
		s.storeError(w, r, id, err)
		return
	}
	if err := s.board.Remove(r.Context(), id); err != nil {
		s.logger.Warn("leaderboard remove", zap.String("session_id", id), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.errorHandler.HandleNotFound(w, r, "session", id)
		return
	}
	s.errorHandler.HandleError(w, r, NewError(ErrTypeInternal, "session store failed").
		WithContext("id", id).WithCause(err).Build(), http.StatusInternalServerError)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLeaderboardLimit {
			s.errorHandler.HandleValidationError(w, r, "limit", fmt.Sprintf("limit must be between 1 and %d", maxLeaderboardLimit))
			return
		}
		limit = n
	}
	entries, err := s.board.Top(r.Context(), limit)
	if err != nil {
		s.errorHandler.HandleError(w, r, NewError(ErrTypeServiceUnavailable, "leaderboard unavailable").WithCause(err).Build(), http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries, EngineVersion: EngineVersion})
}

// handleVerify reproduces a single draw so a client can audit a session.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return
	}
	if req.Seeds.Server == "" || req.Seeds.Client == "" {
		s.errorHandler.handle(w, r, http.StatusBadRequest, NewError(ErrTypeInvalidSeed, "seeds need both server and client values"))
		return
	}
	if req.Kind == "" {
		req.Kind = DrawWheel
	}

	resp := VerifyResponse{Nonce: req.Nonce, EngineVersion: EngineVersion, Echo: req}
	catalog := roulette.NewCatalog()
	switch req.Kind {
	case DrawWheel:
		resp.Draw = engine.Draw(req.Seeds, req.Nonce, roulette.PocketCount)
		resp.Outcome = strconv.Itoa(resp.Draw)
		resp.Color = roulette.ColorOf(resp.Draw).String()
	case DrawTarget:
		resp.Draw = engine.Draw(req.Seeds, req.Nonce, roulette.TargetOutcomes)
		target, err := catalog.TargetForDraw(resp.Draw)
		if err != nil {
			s.errorHandler.HandleError(w, r, NewError(ErrTypeInternal, err.Error()).Build(), http.StatusInternalServerError)
			return
		}
		resp.Outcome = target.Name()
	default:
		s.errorHandler.HandleValidationError(w, r, "kind", fmt.Sprintf("kind must be %q or %q", DrawWheel, DrawTarget))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSeedHash(w http.ResponseWriter, r *http.Request) {
	var req SeedHashRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return
	}
	if req.ServerSeed == "" {
		s.errorHandler.HandleValidationError(w, r, "server_seed", "server_seed is required")
		return
	}
	s.writeJSON(w, http.StatusOK, SeedHashResponse{
		Hash:          engine.HashServerSeed(req.ServerSeed),
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}

func pagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page, perPage = 1, defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if pp, err := strconv.Atoi(r.URL.Query().Get("perPage")); err == nil && pp > 0 && pp <= 500 {
		perPage = pp
	}
	return page, perPage
}
