// Package lead provides the canonical lead record and row normalization.
package lead

import "strings"

// Fields holds the optional attributes of a lead prior to persistence.
// Empty strings and nil counts represent absent values.
type Fields struct {
	Username       string
	Name           string
	Bio            string
	Category       string
	Title          string
	Company        string
	City           string
	Domain         string
	Website        string
	Email          string
	Phone          string
	FollowerCount  *int64
	FollowingCount *int64
}

// Lead is one normalized record from a source dataset. The id is assigned
// by the store on insert and is the only key correlating a lead across the
// row table, the lexical index, and the vector index.
type Lead struct {
	id         int64
	dataset    string
	sourceFile string
	fields     Fields
	textConcat string
}

// New creates a Lead from normalized fields. The text concatenation is
// derived here so that every consumer (lexical index, embedding input,
// result display) sees the same deterministic field order.
func New(dataset, sourceFile string, f Fields) Lead {
	return Lead{
		dataset:    dataset,
		sourceFile: sourceFile,
		fields:     f,
		textConcat: concatText(f),
	}
}

// Reconstruct rebuilds a Lead from stored values, including its assigned id
// and the text concatenation persisted at ingest time.
func Reconstruct(id int64, dataset, sourceFile string, f Fields, textConcat string) Lead {
	return Lead{
		id:         id,
		dataset:    dataset,
		sourceFile: sourceFile,
		fields:     f,
		textConcat: textConcat,
	}
}

// WithID returns a copy of the lead with the given store-assigned id.
func (l Lead) WithID(id int64) Lead {
	l.id = id
	return l
}

// ID returns the store-assigned id (0 before insert).
func (l Lead) ID() int64 { return l.id }

// Dataset returns the source collection identifier.
func (l Lead) Dataset() string { return l.dataset }

// SourceFile returns the archive member the lead was parsed from.
func (l Lead) SourceFile() string { return l.sourceFile }

// Fields returns the lead's optional attributes.
func (l Lead) Fields() Fields { return l.fields }

// Username returns the username, or empty if absent.
func (l Lead) Username() string { return l.fields.Username }

// Name returns the person name, or empty if absent.
func (l Lead) Name() string { return l.fields.Name }

// Bio returns the bio/description, or empty if absent.
func (l Lead) Bio() string { return l.fields.Bio }

// Category returns the category, or empty if absent.
func (l Lead) Category() string { return l.fields.Category }

// Title returns the job title, or empty if absent.
func (l Lead) Title() string { return l.fields.Title }

// Company returns the company name, or empty if absent.
func (l Lead) Company() string { return l.fields.Company }

// City returns the city, or empty if absent.
func (l Lead) City() string { return l.fields.City }

// Domain returns the web domain, or empty if absent.
func (l Lead) Domain() string { return l.fields.Domain }

// Website returns the website URL, or empty if absent.
func (l Lead) Website() string { return l.fields.Website }

// Email returns the email address, or empty if absent.
func (l Lead) Email() string { return l.fields.Email }

// Phone returns the phone number, or empty if absent.
func (l Lead) Phone() string { return l.fields.Phone }

// FollowerCount returns the follower count, or nil if absent.
func (l Lead) FollowerCount() *int64 { return l.fields.FollowerCount }

// FollowingCount returns the following count, or nil if absent.
func (l Lead) FollowingCount() *int64 { return l.fields.FollowingCount }

// TextConcat returns the derived text used for lexical indexing and as
// the embedding input.
func (l Lead) TextConcat() string { return l.textConcat }

// concatText joins the non-empty text fields with single spaces.
// The field order is fixed: username, name, bio, category, title, company,
// city, domain, website, email, phone. Changing it would silently change
// the embedding and lexical inputs for newly ingested rows.
func concatText(f Fields) string {
	parts := make([]string, 0, 11)
	for _, v := range []string{
		f.Username, f.Name, f.Bio, f.Category, f.Title,
		f.Company, f.City, f.Domain, f.Website, f.Email, f.Phone,
	} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
