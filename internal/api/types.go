package api

import (
	"github.com/pkillboredom/MA210-Roulette/internal/engine"
	"github.com/pkillboredom/MA210-Roulette/internal/leaderboard"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types
const (
	ErrTypeInvalidSeed   = "invalid_seed"
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"
	ErrTypeInvalidTarget = "invalid_target"

	ErrTypeNotFound   = "not_found"
	ErrTypeSimulation = "simulation_error"

	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory groups error types for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategorySimulation ErrorCategory = "simulation"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidSeed, ErrTypeInvalidParams, ErrTypeValidation, ErrTypeInvalidTarget, ErrTypeNotFound:
		return CategoryValidation
	case ErrTypeSimulation:
		return CategorySimulation
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// SimulationRequest starts one simulation. Money fields are decimal strings.
// Without seeds a fresh pair is generated and returned.
type SimulationRequest struct {
	Strategy     string        `json:"strategy"`
	Script       string        `json:"script,omitempty"`
	StartBalance string        `json:"start_balance"`
	Stake        string        `json:"stake"`
	MaxRounds    int           `json:"max_rounds"`
	Seeds        *engine.Seeds `json:"seeds,omitempty"`
	NonceStart   uint64        `json:"nonce_start,omitempty"`
}

// SimulationResponse summarizes a finished simulation.
type SimulationResponse struct {
	SessionID      string       `json:"session_id,omitempty"`
	Seeds          engine.Seeds `json:"seeds"`
	ServerSeedHash string       `json:"server_seed_hash"`
	NonceStart     uint64       `json:"nonce_start"`
	NonceEnd       uint64       `json:"nonce_end"`
	Result         sim.Result   `json:"result"`
	ReturnToPlayer string       `json:"return_to_player"`
	ProfitPercent  float64      `json:"profit_percent"`
	EngineVersion  string       `json:"engine_version"`
}

// Draw kinds accepted by /verify.
const (
	DrawWheel  = "wheel"
	DrawTarget = "target"
)

// VerifyRequest reproduces one seeded draw.
type VerifyRequest struct {
	Seeds engine.Seeds `json:"seeds"`
	Nonce uint64       `json:"nonce"`
	Kind  string       `json:"kind"`
}

// VerifyResponse is the outcome of a reproduced draw.
type VerifyResponse struct {
	Nonce         uint64        `json:"nonce"`
	Draw          int           `json:"draw"`
	Outcome       string        `json:"outcome"`
	Color         string        `json:"color,omitempty"`
	EngineVersion string        `json:"engine_version"`
	Echo          VerifyRequest `json:"echo"`
}

// SeedHashRequest represents a seed hashing request
type SeedHashRequest struct {
	ServerSeed string `json:"server_seed"`
}

// SeedHashResponse represents a seed hashing response
type SeedHashResponse struct {
	Hash          string          `json:"hash"`
	EngineVersion string          `json:"engine_version"`
	Echo          SeedHashRequest `json:"echo"`
}

// PocketInfo describes one pocket of the wheel.
type PocketInfo struct {
	Value      int    `json:"value"`
	Color      string `json:"color"`
	Multiplier int64  `json:"multiplier"`
}

// GroupInfo describes one fixed grouping.
type GroupInfo struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Values     []int  `json:"values"`
	Multiplier int64  `json:"multiplier"`
}

// TableResponse lists every space a bet can target.
type TableResponse struct {
	Pockets       []PocketInfo `json:"pockets"`
	Groups        []GroupInfo  `json:"groups"`
	EngineVersion string       `json:"engine_version"`
}

// LeaderboardResponse lists the most profitable sessions.
type LeaderboardResponse struct {
	Entries       []leaderboard.Entry `json:"entries"`
	EngineVersion string              `json:"engine_version"`
}
