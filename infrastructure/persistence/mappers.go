package persistence

import (
	"time"

	"github.com/luminate-data/leadsearch/domain/ingest"
	"github.com/luminate-data/leadsearch/domain/lead"
)

// LeadMapper maps between domain Lead and LeadModel.
type LeadMapper struct{}

// ToDomain converts a LeadModel to a domain Lead.
func (m LeadMapper) ToDomain(e LeadModel) lead.Lead {
	f := lead.Fields{
		Username:       deref(e.Username),
		Name:           deref(e.Name),
		Bio:            deref(e.Bio),
		Category:       deref(e.Category),
		Title:          deref(e.Title),
		Company:        deref(e.Company),
		City:           deref(e.City),
		Domain:         deref(e.Domain),
		Website:        deref(e.Website),
		Email:          deref(e.Email),
		Phone:          deref(e.Phone),
		FollowerCount:  e.FollowerCount,
		FollowingCount: e.FollowingCount,
	}
	return lead.Reconstruct(e.ID, e.Dataset, e.SourceFile, f, e.TextConcat)
}

// ToModel converts a domain Lead to a LeadModel.
func (m LeadMapper) ToModel(l lead.Lead) LeadModel {
	f := l.Fields()
	return LeadModel{
		ID:             l.ID(),
		Dataset:        l.Dataset(),
		SourceFile:     l.SourceFile(),
		Username:       ref(f.Username),
		Name:           ref(f.Name),
		Bio:            ref(f.Bio),
		Category:       ref(f.Category),
		Title:          ref(f.Title),
		Company:        ref(f.Company),
		City:           ref(f.City),
		Domain:         ref(f.Domain),
		Website:        ref(f.Website),
		Email:          ref(f.Email),
		Phone:          ref(f.Phone),
		FollowerCount:  f.FollowerCount,
		FollowingCount: f.FollowingCount,
		TextConcat:     l.TextConcat(),
	}
}

// ProcessedFileMapper maps between domain ProcessedFile and ProcessedFileModel.
type ProcessedFileMapper struct{}

// ToDomain converts a ProcessedFileModel to a domain ProcessedFile.
func (m ProcessedFileMapper) ToDomain(e ProcessedFileModel) ingest.ProcessedFile {
	return ingest.NewProcessedFile(e.Dataset, e.FileName, e.RowCount, e.ErrorCount, e.Vectorized, e.CompletedAt)
}

// ToModel converts a domain ProcessedFile to a ProcessedFileModel.
func (m ProcessedFileMapper) ToModel(p ingest.ProcessedFile) ProcessedFileModel {
	completedAt := p.CompletedAt()
	if completedAt.IsZero() {
		completedAt = time.Now()
	}
	return ProcessedFileModel{
		Dataset:     p.Dataset(),
		FileName:    p.FileName(),
		RowCount:    p.RowCount(),
		ErrorCount:  p.ErrorCount(),
		Vectorized:  p.Vectorized(),
		CompletedAt: completedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ref maps empty strings to NULL so optional fields stay distinguishable
// from empty ones in ad hoc SQL.
func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
