package scan

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/dicebox/dicebox-go/internal/phys"
	"github.com/dicebox/dicebox-go/internal/sim"
)

func newTestScanner() *Scanner {
	return NewScanner(
		phys.DefaultConfig(),
		sim.DefaultScenarioConfig(),
		sim.DefaultResolverConfig(),
		log.New(io.Discard, "", 0),
	)
}

func TestTargetMatches(t *testing.T) {
	cases := []struct {
		name   string
		target Target
		faces  []int
		want   bool
	}{
		{"total eq hit", Target{Op: OpTotalEqual, Total: 7}, []int{3, 4}, true},
		{"total eq miss", Target{Op: OpTotalEqual, Total: 7}, []int{3, 3}, false},
		{"total ge", Target{Op: OpTotalGreater, Total: 10}, []int{6, 5}, true},
		{"total le", Target{Op: OpTotalLess, Total: 4}, []int{1, 2}, true},
		{"all equal any", Target{Op: OpAllEqual}, []int{4, 4, 4}, true},
		{"all equal any miss", Target{Op: OpAllEqual}, []int{4, 4, 5}, false},
		{"all equal face", Target{Op: OpAllEqual, Face: 6}, []int{6, 6}, true},
		{"all equal wrong face", Target{Op: OpAllEqual, Face: 6}, []int{5, 5}, false},
		{"contains hit", Target{Op: OpContainsFace, Face: 2}, []int{1, 2, 3}, true},
		{"contains miss", Target{Op: OpContainsFace, Face: 6}, []int{1, 2, 3}, false},
	}
	for _, tc := range cases {
		if got := tc.target.Matches(tc.faces); got != tc.want {
			t.Errorf("%s: Matches(%v) = %v, want %v", tc.name, tc.faces, got, tc.want)
		}
	}
}

func TestScanValidation(t *testing.T) {
	s := newTestScanner()
	ctx := context.Background()

	if _, err := s.Scan(ctx, Request{Seed: "x", NonceStart: 5, NonceEnd: 1, DiceCount: 1, Target: Target{Op: OpAllEqual}}); err != ErrInvalidRange {
		t.Errorf("reversed range: got %v, want ErrInvalidRange", err)
	}
	if _, err := s.Scan(ctx, Request{Seed: "x", NonceEnd: 1, DiceCount: 0, Target: Target{Op: OpAllEqual}}); err != ErrInvalidDice {
		t.Errorf("zero dice: got %v, want ErrInvalidDice", err)
	}
	if _, err := s.Scan(ctx, Request{Seed: "x", NonceEnd: 1, DiceCount: 1, Target: Target{Op: "bogus"}}); err != ErrUnknownOp {
		t.Errorf("bogus op: got %v, want ErrUnknownOp", err)
	}
}

func TestScanEvaluatesWholeRange(t *testing.T) {
	s := newTestScanner()
	// Face sum of one die is always >= 1, so every resolved nonce hits.
	req := Request{
		Seed:       "range-seed",
		NonceStart: 0,
		NonceEnd:   3,
		DiceCount:  1,
		Target:     Target{Op: OpTotalGreater, Total: 1},
	}
	res, err := s.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Summary.TotalEvaluated != 4 {
		t.Errorf("evaluated %d nonces, want 4", res.Summary.TotalEvaluated)
	}
	for i := 1; i < len(res.Hits); i++ {
		if res.Hits[i].Nonce <= res.Hits[i-1].Nonce {
			t.Fatal("hits must be sorted by nonce")
		}
	}
	for _, h := range res.Hits {
		if len(h.Faces) != 1 || h.Faces[0] < 1 || h.Faces[0] > 6 {
			t.Errorf("nonce %d: bad faces %v", h.Nonce, h.Faces)
		}
		if h.Total != h.Faces[0] {
			t.Errorf("nonce %d: total %d does not match faces %v", h.Nonce, h.Total, h.Faces)
		}
	}
	if res.EngineVersion == "" {
		t.Error("result must carry the engine version")
	}
	if res.Echo.Seed != req.Seed {
		t.Error("result must echo the request")
	}
}

func TestScanDeterminism(t *testing.T) {
	req := Request{
		Seed:      "repeat",
		NonceEnd:  2,
		DiceCount: 2,
		Target:    Target{Op: OpTotalGreater, Total: 2},
	}
	a, err := newTestScanner().Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	b, err := newTestScanner().Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(a.Hits) != len(b.Hits) {
		t.Fatalf("hit counts differ: %d vs %d", len(a.Hits), len(b.Hits))
	}
	for i := range a.Hits {
		if a.Hits[i].Nonce != b.Hits[i].Nonce || a.Hits[i].Total != b.Hits[i].Total {
			t.Errorf("hit %d differs across runs: %+v vs %+v", i, a.Hits[i], b.Hits[i])
		}
	}
}

func TestScanLimit(t *testing.T) {
	s := newTestScanner()
	res, err := s.Scan(context.Background(), Request{
		Seed:      "limited",
		NonceEnd:  4,
		DiceCount: 1,
		Target:    Target{Op: OpTotalGreater, Total: 1},
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(res.Hits) > 2 {
		t.Errorf("limit ignored: %d hits", len(res.Hits))
	}
	if res.Summary.TotalEvaluated != 5 {
		t.Errorf("limit must not stop evaluation early: %d evaluated", res.Summary.TotalEvaluated)
	}
}

func TestScanCancellation(t *testing.T) {
	s := newTestScanner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scan(ctx, Request{
		Seed:      "cancelled",
		NonceEnd:  100,
		DiceCount: 1,
		Target:    Target{Op: OpAllEqual},
	}); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}
