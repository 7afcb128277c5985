package search

import "github.com/luminate-data/leadsearch/domain/lead"

// Candidate is one raw retrieval hit from a single path. For the lexical
// path score is a relevance score (higher is better); for the vector path
// it is a distance (lower is better). Scores from different paths are not
// comparable until normalized.
type Candidate struct {
	id    int64
	score float64
}

// NewCandidate creates a Candidate.
func NewCandidate(id int64, score float64) Candidate {
	return Candidate{id: id, score: score}
}

// ID returns the lead id.
func (c Candidate) ID() int64 { return c.id }

// Score returns the path-specific raw score.
func (c Candidate) Score() float64 { return c.score }

// Fused is one candidate after score fusion, before hydration.
type Fused struct {
	id      int64
	score   float64
	lexical *float64
	vector  *float64
}

// NewFused creates a Fused candidate. lexical and vector are the
// normalized per-path scores, nil when the path did not return the id.
func NewFused(id int64, score float64, lexical, vector *float64) Fused {
	return Fused{id: id, score: score, lexical: lexical, vector: vector}
}

// ID returns the lead id.
func (f Fused) ID() int64 { return f.id }

// Score returns the fused score.
func (f Fused) Score() float64 { return f.score }

// LexicalScore returns the normalized lexical score, nil when absent.
func (f Fused) LexicalScore() *float64 { return f.lexical }

// VectorScore returns the normalized vector score, nil when absent.
func (f Fused) VectorScore() *float64 { return f.vector }

// RankedLead is one hydrated search result.
type RankedLead struct {
	lead    lead.Lead
	fused   float64
	lexical *float64
	vector  *float64
}

// NewRankedLead creates a RankedLead.
func NewRankedLead(l lead.Lead, fused float64, lexical, vector *float64) RankedLead {
	return RankedLead{lead: l, fused: fused, lexical: lexical, vector: vector}
}

// Lead returns the hydrated lead.
func (r RankedLead) Lead() lead.Lead { return r.lead }

// FusedScore returns the combined score the result is ranked by.
func (r RankedLead) FusedScore() float64 { return r.fused }

// LexicalScore returns the normalized lexical score, nil when the lexical
// path did not surface this lead.
func (r RankedLead) LexicalScore() *float64 { return r.lexical }

// VectorScore returns the normalized vector score, nil when the vector
// path did not surface this lead (or the vector index is empty).
func (r RankedLead) VectorScore() *float64 { return r.vector }
