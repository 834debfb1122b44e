package api

import (
	"fmt"

	"github.com/dicebox/dicebox-go/internal/scan"
)

const (
	maxSeedLength = 64
	maxNonceRange = 1_000_000
	maxScanLimit  = 10_000
)

// ValidateRollRequest validates a roll request and returns any
// validation error. An empty seed is allowed; the handler substitutes
// an unpredictable one before resolving.
func ValidateRollRequest(req *RollRequest, diceMax int) error {
	if len(req.Seed) > maxSeedLength {
		return fmt.Errorf("seed too long (max %d characters)", maxSeedLength)
	}
	if req.Dice < 1 || req.Dice > diceMax {
		return fmt.Errorf("dice must be between 1 and %d", diceMax)
	}
	if len(req.Desired) > req.Dice {
		return fmt.Errorf("desired has %d entries for %d dice", len(req.Desired), req.Dice)
	}
	for i, f := range req.Desired {
		if f < 0 || f > 6 {
			return fmt.Errorf("desired[%d] must be between 0 and 6", i)
		}
	}
	return nil
}

// ValidateScanRequest validates a scan request and returns any validation error
func ValidateScanRequest(req *scan.Request, diceMax int) error {
	if req.Seed == "" {
		return fmt.Errorf("seed is required")
	}
	if len(req.Seed) > maxSeedLength {
		return fmt.Errorf("seed too long (max %d characters)", maxSeedLength)
	}
	if req.DiceCount < 1 || req.DiceCount > diceMax {
		return fmt.Errorf("dice_count must be between 1 and %d", diceMax)
	}
	if req.NonceEnd < req.NonceStart {
		return fmt.Errorf("nonce_end (%d) must be >= nonce_start (%d)", req.NonceEnd, req.NonceStart)
	}
	if req.NonceEnd-req.NonceStart > maxNonceRange {
		return fmt.Errorf("nonce range too large (max %d nonces)", maxNonceRange)
	}
	switch req.Target.Op {
	case scan.OpTotalEqual, scan.OpTotalGreater, scan.OpTotalLess:
		min, max := req.DiceCount, req.DiceCount*6
		if req.Target.Total < min || req.Target.Total > max {
			return fmt.Errorf("target total %d impossible for %d dice (range %d-%d)", req.Target.Total, req.DiceCount, min, max)
		}
	case scan.OpAllEqual:
		if req.Target.Face < 0 || req.Target.Face > 6 {
			return fmt.Errorf("target face must be between 0 and 6")
		}
	case scan.OpContainsFace:
		if req.Target.Face < 1 || req.Target.Face > 6 {
			return fmt.Errorf("target face must be between 1 and 6")
		}
	case "":
		return fmt.Errorf("target op is required")
	default:
		return fmt.Errorf("unknown target op %q", req.Target.Op)
	}
	if req.Limit < 0 {
		return fmt.Errorf("limit must be >= 0")
	}
	if req.Limit > maxScanLimit {
		return fmt.Errorf("limit too large (max %d)", maxScanLimit)
	}
	if req.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms must be >= 0")
	}
	return nil
}
