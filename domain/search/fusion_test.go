package search

import (
	"math"
	"testing"
)

func TestWeightedSum_BothPaths(t *testing.T) {
	strategy := NewWeightedSum(0.5)

	lexical := []Candidate{
		NewCandidate(1, 8.0),
		NewCandidate(2, 4.0),
		NewCandidate(3, 2.0),
	}
	vector := []Candidate{
		NewCandidate(2, 0.1),
		NewCandidate(4, 0.5),
		NewCandidate(1, 0.9),
	}

	results := strategy.Fuse(lexical, vector)

	if len(results) != 4 {
		t.Fatalf("expected 4 fused candidates, got %d", len(results))
	}

	// Lexical min-max over [8,4,2]: id1=1.0, id2=1/3, id3=0.
	// Vector distances [0.1,0.5,0.9]: id2=1.0, id4=0.5, id1=0.
	// Fused (alpha=0.5): id1=0.5, id2=2/3, id3=0, id4=0.25.
	want := map[int64]float64{
		1: 0.5,
		2: 0.5*(1.0/3.0) + 0.5*1.0,
		3: 0.0,
		4: 0.25,
	}
	for _, r := range results {
		if math.Abs(r.Score()-want[r.ID()]) > 1e-10 {
			t.Errorf("id %d: expected score %f, got %f", r.ID(), want[r.ID()], r.Score())
		}
	}

	if results[0].ID() != 2 {
		t.Errorf("expected id 2 ranked first, got %d", results[0].ID())
	}

	// id 2 appeared in both paths; both per-path scores must be reported.
	if results[0].LexicalScore() == nil || results[0].VectorScore() == nil {
		t.Error("expected both per-path scores for id 2")
	}
	// id 4 is vector-only.
	for _, r := range results {
		if r.ID() == 4 && r.LexicalScore() != nil {
			t.Error("expected nil lexical score for vector-only candidate")
		}
	}
}

func TestWeightedSum_EmptyVectorFallsBackToRRF(t *testing.T) {
	strategy := NewWeightedSum(0.5)

	lexical := []Candidate{
		NewCandidate(7, 3.0),
		NewCandidate(8, 1.0),
	}

	results := strategy.Fuse(lexical, nil)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// RRF with k=60: rank 0 -> 1/60, rank 1 -> 1/61.
	if math.Abs(results[0].Score()-1.0/60.0) > 1e-10 {
		t.Errorf("expected RRF score 1/60, got %f", results[0].Score())
	}
	if results[0].ID() != 7 {
		t.Errorf("expected id 7 first, got %d", results[0].ID())
	}
	if results[0].VectorScore() != nil {
		t.Error("expected nil vector score when vector path is empty")
	}
}

func TestWeightedSum_SingleCandidateLists(t *testing.T) {
	// Degenerate min-max (max == min) must not divide by zero.
	strategy := NewWeightedSum(0.5)

	lexical := []Candidate{NewCandidate(1, 5.0)}
	vector := []Candidate{NewCandidate(1, 0.2)}

	results := strategy.Fuse(lexical, vector)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if math.Abs(results[0].Score()-1.0) > 1e-10 {
		t.Errorf("expected fused score 1.0, got %f", results[0].Score())
	}
}

func TestRRF_TwoLists(t *testing.T) {
	strategy := NewRRF()

	lexical := []Candidate{
		NewCandidate(1, 9.0),
		NewCandidate(2, 5.0),
	}
	vector := []Candidate{
		NewCandidate(2, 0.1),
		NewCandidate(3, 0.4),
	}

	results := strategy.Fuse(lexical, vector)

	scores := make(map[int64]float64)
	for _, r := range results {
		scores[r.ID()] = r.Score()
	}

	wantTwo := 1.0/61.0 + 1.0/60.0
	if math.Abs(scores[2]-wantTwo) > 1e-10 {
		t.Errorf("id 2: expected %f, got %f", wantTwo, scores[2])
	}
	if math.Abs(scores[1]-1.0/60.0) > 1e-10 {
		t.Errorf("id 1: expected %f, got %f", 1.0/60.0, scores[1])
	}
	if results[0].ID() != 2 {
		t.Errorf("expected id 2 first, got %d", results[0].ID())
	}
}

func TestFusion_Deterministic(t *testing.T) {
	// Fixed candidate sets must fuse identically across runs regardless
	// of which path produced its list first.
	lexical := []Candidate{
		NewCandidate(5, 2.0),
		NewCandidate(6, 2.0),
		NewCandidate(7, 2.0),
	}
	vector := []Candidate{
		NewCandidate(7, 0.3),
		NewCandidate(5, 0.3),
		NewCandidate(6, 0.3),
	}

	for _, strategy := range []Strategy{NewWeightedSum(0.5), NewRRF()} {
		first := strategy.Fuse(lexical, vector)
		for i := 0; i < 10; i++ {
			again := strategy.Fuse(lexical, vector)
			if len(again) != len(first) {
				t.Fatalf("non-deterministic result count")
			}
			for j := range again {
				if again[j].ID() != first[j].ID() {
					t.Fatalf("non-deterministic order at %d: %d vs %d", j, again[j].ID(), first[j].ID())
				}
			}
		}
	}
}

func TestFusion_TieBreakByAscendingID(t *testing.T) {
	strategy := NewRRF()

	// Same ranks in mirrored lists produce equal scores for 10 and 20.
	lexical := []Candidate{NewCandidate(20, 1.0), NewCandidate(10, 0.5)}
	vector := []Candidate{NewCandidate(10, 0.1), NewCandidate(20, 0.2)}

	results := strategy.Fuse(lexical, vector)
	if results[0].ID() != 10 || results[1].ID() != 20 {
		t.Errorf("expected tie broken by ascending id, got %d, %d", results[0].ID(), results[1].ID())
	}
}

func TestStrategyFor(t *testing.T) {
	if _, ok := StrategyFor(PolicyRRF, 0.5).(RRF); !ok {
		t.Error("expected RRF strategy")
	}
	if _, ok := StrategyFor(PolicyWeightedSum, 0.5).(WeightedSum); !ok {
		t.Error("expected WeightedSum strategy")
	}
	if _, ok := StrategyFor(Policy("bogus"), 0.5).(WeightedSum); !ok {
		t.Error("expected WeightedSum fallback for unknown policy")
	}
}
