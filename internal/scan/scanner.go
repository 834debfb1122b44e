// Package scan searches nonce ranges for rolls matching an outcome
// target. Every candidate nonce runs the full deterministic resolution,
// so a hit found here reproduces exactly when rolled live.
package scan

import (
	"context"
	"log"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dicebox/dicebox-go/internal/phys"
	"github.com/dicebox/dicebox-go/internal/sim"
)

const engineVersion = "go-1.0.0"

// batchSize is deliberately small: each nonce costs a full physics
// resolution, not a hash evaluation.
const batchSize = 64

// TargetOp selects how roll outcomes are matched.
type TargetOp string

const (
	OpTotalEqual   TargetOp = "total_eq"
	OpTotalGreater TargetOp = "total_ge"
	OpTotalLess    TargetOp = "total_le"
	OpAllEqual     TargetOp = "all_equal"
	OpContainsFace TargetOp = "contains"
)

// Target is the outcome condition a scan looks for.
type Target struct {
	Op TargetOp `json:"op"`
	// Total is the face sum for the total_* ops.
	Total int `json:"total,omitempty"`
	// Face is the face value for all_equal (0 means any face) and
	// contains.
	Face int `json:"face,omitempty"`
}

// Matches checks a resolved face set against the target.
func (t Target) Matches(faces []int) bool {
	switch t.Op {
	case OpTotalEqual:
		return total(faces) == t.Total
	case OpTotalGreater:
		return total(faces) >= t.Total
	case OpTotalLess:
		return total(faces) <= t.Total
	case OpAllEqual:
		for _, f := range faces {
			if t.Face != 0 && f != t.Face {
				return false
			}
			if f != faces[0] {
				return false
			}
		}
		return len(faces) > 0
	case OpContainsFace:
		for _, f := range faces {
			if f == t.Face {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func total(faces []int) int {
	sum := 0
	for _, f := range faces {
		sum += f
	}
	return sum
}

// Request describes one scan operation.
type Request struct {
	Seed       string `json:"seed"`
	NonceStart uint64 `json:"nonce_start"`
	NonceEnd   uint64 `json:"nonce_end"`
	DiceCount  int    `json:"dice_count"`
	Target     Target `json:"target"`
	Limit      int    `json:"limit,omitempty"`
	TimeoutMs  int    `json:"timeout_ms,omitempty"`
}

// Hit is a single matching nonce.
type Hit struct {
	Nonce uint64 `json:"nonce"`
	Faces []int  `json:"faces"`
	Total int    `json:"total"`
}

// Summary holds scan aggregates.
type Summary struct {
	TotalEvaluated uint64 `json:"total_evaluated"`
	HitsFound      int    `json:"hits_found"`
	TimedOut       bool   `json:"timed_out,omitempty"`
}

// Result is the complete scan output.
type Result struct {
	Hits          []Hit   `json:"hits"`
	Summary       Summary `json:"summary"`
	EngineVersion string  `json:"engine_version"`
	Echo          Request `json:"echo"`
}

type job struct {
	start, end uint64
}

// Scanner runs parallel scans. Each worker owns a private world and
// resolver, so resolutions never share mutable physics state.
type Scanner struct {
	workerCount int
	physCfg     phys.Config
	scenCfg     sim.ScenarioConfig
	resCfg      sim.ResolverConfig
	logger      *log.Logger
}

// NewScanner creates a scanner sized to the available CPUs.
func NewScanner(physCfg phys.Config, scenCfg sim.ScenarioConfig, resCfg sim.ResolverConfig, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(log.Writer(), "[scan] ", log.LstdFlags)
	}
	return &Scanner{
		workerCount: runtime.GOMAXPROCS(0),
		physCfg:     physCfg,
		scenCfg:     scenCfg,
		resCfg:      resCfg,
		logger:      logger,
	}
}

// Scan resolves every nonce in the requested range and collects the
// ones whose outcome matches the target. A request timeout produces a
// partial result flagged TimedOut rather than an error.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	if req.NonceEnd < req.NonceStart {
		return nil, ErrInvalidRange
	}
	if req.DiceCount < 1 || req.DiceCount > 10 {
		return nil, ErrInvalidDice
	}
	switch req.Target.Op {
	case OpTotalEqual, OpTotalGreater, OpTotalLess, OpAllEqual, OpContainsFace:
	default:
		return nil, ErrUnknownOp
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, s.workerCount*2)
	hits := make(chan Hit, 256)
	var evaluated uint64

	g.Go(func() error {
		defer close(jobs)
		for cur := req.NonceStart; ; {
			end := cur + batchSize - 1
			if end > req.NonceEnd || end < cur {
				end = req.NonceEnd
			}
			select {
			case jobs <- job{start: cur, end: end}:
			case <-gctx.Done():
				return gctx.Err()
			}
			if end == req.NonceEnd {
				return nil
			}
			cur = end + 1
		}
	})

	for i := 0; i < s.workerCount; i++ {
		g.Go(func() error {
			world := phys.NewWorld(s.physCfg, req.DiceCount, s.scenCfg.DieHalfExtent)
			resolver := sim.NewResolver(world, s.resCfg, s.scenCfg, s.logger)
			for j := range jobs {
				for nonce := j.start; ; nonce++ {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
					out, err := resolver.Resolve(gctx, req.Seed, nonce, req.DiceCount)
					if err != nil {
						return err
					}
					atomic.AddUint64(&evaluated, 1)
					if !out.TimedOut && req.Target.Matches(out.Faces) {
						hits <- Hit{Nonce: nonce, Faces: out.Faces, Total: total(out.Faces)}
					}
					if nonce == j.end {
						break
					}
				}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(hits)
	}()

	var collected []Hit
	for hit := range hits {
		collected = append(collected, hit)
	}

	err := <-waitErr
	// Workers finish batches out of order; sort before the limit cut so
	// the same request always returns the same hits.
	sort.Slice(collected, func(i, j int) bool { return collected[i].Nonce < collected[j].Nonce })
	if req.Limit > 0 && len(collected) > req.Limit {
		collected = collected[:req.Limit]
	}
	timedOut := false
	if err != nil {
		if req.TimeoutMs > 0 && ctx.Err() == context.DeadlineExceeded {
			timedOut = true
		} else {
			return nil, err
		}
	}

	done := atomic.LoadUint64(&evaluated)
	s.logger.Printf("scan finished: %d evaluated, %d hits, timedOut=%v", done, len(collected), timedOut)

	return &Result{
		Hits: collected,
		Summary: Summary{
			TotalEvaluated: done,
			HitsFound:      len(collected),
			TimedOut:       timedOut,
		},
		EngineVersion: engineVersion,
		Echo:          req,
	}, nil
}
