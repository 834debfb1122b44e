package api

import (
	"github.com/dicebox/dicebox-go/internal/scan"
	"github.com/dicebox/dicebox-go/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidSeed  = "invalid_seed"
	ErrTypeInvalidNonce = "invalid_nonce"
	ErrTypeInvalidDice  = "invalid_dice"
	ErrTypeValidation   = "validation_error"

	// Roll pipeline errors
	ErrTypeRollNotFound = "roll_not_found"
	ErrTypeResolution   = "resolution_error"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryRoll       ErrorCategory = "roll"
	CategoryTimeout    ErrorCategory = "timeout"
	CategorySystem     ErrorCategory = "system"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidSeed, ErrTypeInvalidNonce, ErrTypeInvalidDice, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeRollNotFound, ErrTypeResolution:
		return CategoryRoll
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

// RollRequest asks for one seeded roll.
type RollRequest struct {
	Seed  string `json:"seed"`
	Nonce uint64 `json:"nonce"`
	Dice  int    `json:"dice"`
	// Desired, when present, sets the operator-desired face per die for
	// playback; 0 leaves a die alone. It never changes the resolved
	// outcome, only how frames are displayed.
	Desired []int `json:"desired,omitempty"`
}

// RollResponse is the resolved outcome of one roll.
type RollResponse struct {
	ID            string `json:"id"`
	Seed          string `json:"seed"`
	Nonce         uint64 `json:"nonce"`
	Faces         []int  `json:"faces"`
	Total         int    `json:"total"`
	Report        string `json:"report"`
	Desired       []int  `json:"desired,omitempty"`
	Steps         int    `json:"steps"`
	Retries       int    `json:"retries"`
	TimedOut      bool   `json:"timed_out,omitempty"`
	EngineVersion string `json:"engine_version"`
}

// RollsResponse is a paginated roll history page.
type RollsResponse struct {
	Rolls         []store.Roll `json:"rolls"`
	TotalCount    int          `json:"totalCount"`
	Page          int          `json:"page"`
	PerPage       int          `json:"perPage"`
	TotalPages    int          `json:"totalPages"`
	EngineVersion string       `json:"engine_version"`
}

// ScanResponse wraps a scan result.
type ScanResponse struct {
	Hits          []scan.Hit   `json:"hits"`
	Summary       scan.Summary `json:"summary"`
	EngineVersion string       `json:"engine_version"`
	Echo          scan.Request `json:"echo"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status        string `json:"status"`
	EngineVersion string `json:"engine_version"`
	Timestamp     string `json:"timestamp"`
}
