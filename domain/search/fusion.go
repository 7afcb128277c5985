package search

import "sort"

// DefaultRRFK is the reciprocal-rank-fusion constant.
const DefaultRRFK = 60.0

// DefaultAlpha is the default vector-path weight for weighted-sum fusion.
// It is a tunable, not a fixed constant; the engine takes it from
// configuration.
const DefaultAlpha = 0.5

// Policy selects a fusion strategy.
type Policy string

// Policy values.
const (
	PolicyWeightedSum Policy = "weighted"
	PolicyRRF         Policy = "rrf"
)

// Strategy combines the two retrieval paths' candidate lists into one
// ranking. Implementations must be deterministic: fixed inputs produce a
// fixed output regardless of which path returned first.
type Strategy interface {
	Fuse(lexical, vector []Candidate) []Fused
}

// StrategyFor returns the strategy for a policy. Unknown policies fall
// back to weighted sum.
func StrategyFor(policy Policy, alpha float64) Strategy {
	if policy == PolicyRRF {
		return NewRRF()
	}
	return NewWeightedSum(alpha)
}

// WeightedSum fuses min-max-normalized per-path scores with a weighted
// sum: fused = alpha*vector + (1-alpha)*lexical. When either path returns
// zero candidates it falls back to reciprocal-rank fusion, which is
// insensitive to the score-scale pathologies tiny result sets produce.
type WeightedSum struct {
	alpha float64
	rrf   RRF
}

// NewWeightedSum creates a WeightedSum with the given vector weight,
// clamped to [0, 1].
func NewWeightedSum(alpha float64) WeightedSum {
	if alpha < 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return WeightedSum{alpha: alpha, rrf: NewRRF()}
}

// Alpha returns the vector-path weight.
func (w WeightedSum) Alpha() float64 { return w.alpha }

// Fuse implements Strategy.
func (w WeightedSum) Fuse(lexical, vector []Candidate) []Fused {
	if len(lexical) == 0 || len(vector) == 0 {
		return w.rrf.Fuse(lexical, vector)
	}

	lexNorm := normalizeDescending(lexical)
	vecNorm := normalizeAscending(vector)

	fused := make(map[int64]Fused, len(lexical)+len(vector))
	for id, score := range lexNorm {
		s := score
		fused[id] = NewFused(id, (1-w.alpha)*s, &s, nil)
	}
	for id, score := range vecNorm {
		s := score
		if prev, ok := fused[id]; ok {
			fused[id] = NewFused(id, prev.Score()+w.alpha*s, prev.LexicalScore(), &s)
		} else {
			fused[id] = NewFused(id, w.alpha*s, nil, &s)
		}
	}

	return sortFused(fused)
}

// RRF implements reciprocal-rank fusion: each candidate contributes
// 1/(k+rank) per list it appears in. Reported per-path scores are the
// rank-reciprocal contributions.
type RRF struct {
	k float64
}

// NewRRF creates an RRF strategy with the default constant.
func NewRRF() RRF {
	return RRF{k: DefaultRRFK}
}

// NewRRFWithK creates an RRF strategy with a custom constant.
func NewRRFWithK(k float64) RRF {
	if k <= 0 {
		k = DefaultRRFK
	}
	return RRF{k: k}
}

// K returns the RRF constant.
func (r RRF) K() float64 { return r.k }

// Fuse implements Strategy. Input lists must already be ranked best-first,
// which both retrieval paths guarantee.
func (r RRF) Fuse(lexical, vector []Candidate) []Fused {
	fused := make(map[int64]Fused, len(lexical)+len(vector))

	for rank, c := range lexical {
		s := 1.0 / (r.k + float64(rank))
		fused[c.ID()] = NewFused(c.ID(), s, &s, nil)
	}
	for rank, c := range vector {
		s := 1.0 / (r.k + float64(rank))
		if prev, ok := fused[c.ID()]; ok {
			fused[c.ID()] = NewFused(c.ID(), prev.Score()+s, prev.LexicalScore(), &s)
		} else {
			fused[c.ID()] = NewFused(c.ID(), s, nil, &s)
		}
	}

	return sortFused(fused)
}

// sortFused orders by fused score descending, ties broken by ascending id
// so rankings are reproducible across runs.
func sortFused(fused map[int64]Fused) []Fused {
	results := make([]Fused, 0, len(fused))
	for _, f := range fused {
		results = append(results, f)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].ID() < results[j].ID()
	})
	return results
}

// normalizeDescending min-max normalizes higher-is-better scores to [0, 1].
// A single-candidate (or constant-score) list maps to 1.0.
func normalizeDescending(candidates []Candidate) map[int64]float64 {
	lo, hi := scoreBounds(candidates)
	norm := make(map[int64]float64, len(candidates))
	for _, c := range candidates {
		if _, seen := norm[c.ID()]; seen {
			continue
		}
		if hi == lo {
			norm[c.ID()] = 1.0
			continue
		}
		norm[c.ID()] = (c.Score() - lo) / (hi - lo)
	}
	return norm
}

// normalizeAscending min-max normalizes lower-is-better scores (distances)
// to [0, 1] with the closest candidate at 1.0.
func normalizeAscending(candidates []Candidate) map[int64]float64 {
	lo, hi := scoreBounds(candidates)
	norm := make(map[int64]float64, len(candidates))
	for _, c := range candidates {
		if _, seen := norm[c.ID()]; seen {
			continue
		}
		if hi == lo {
			norm[c.ID()] = 1.0
			continue
		}
		norm[c.ID()] = (hi - c.Score()) / (hi - lo)
	}
	return norm
}

func scoreBounds(candidates []Candidate) (lo, hi float64) {
	for i, c := range candidates {
		if i == 0 || c.Score() < lo {
			lo = c.Score()
		}
		if i == 0 || c.Score() > hi {
			hi = c.Score()
		}
	}
	return lo, hi
}
