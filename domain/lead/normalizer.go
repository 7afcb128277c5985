package lead

import (
	"strconv"
	"strings"
)

// Record is one raw spreadsheet row: column names paired with their values
// in file order. Column order matters because first-match wins when two
// columns map to the same canonical field.
type Record struct {
	columns []string
	values  []string
}

// NewRecord creates a Record. If values is shorter than columns the missing
// cells are treated as empty; extra values are ignored.
func NewRecord(columns, values []string) Record {
	return Record{columns: columns, values: values}
}

// Len returns the number of columns.
func (r Record) Len() int { return len(r.columns) }

// Column returns the column name at position i.
func (r Record) Column(i int) string { return r.columns[i] }

// Value returns the raw cell value at position i, or empty when the row is
// shorter than its header.
func (r Record) Value(i int) string {
	if i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// Normalizer converts raw records to Leads using a declarative alias table.
type Normalizer struct {
	lookup   map[string]Field
	required []Field
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithRequired marks canonical fields whose absence from a record's header
// is a SchemaError. By default no field is required.
func WithRequired(fields ...Field) NormalizerOption {
	return func(n *Normalizer) {
		n.required = fields
	}
}

// NewNormalizer creates a Normalizer from an alias table. Within one field
// earlier synonyms win; across fields the first column that matches claims
// the field.
func NewNormalizer(aliases AliasTable, opts ...NormalizerOption) Normalizer {
	lookup := make(map[string]Field)
	for field, synonyms := range aliases {
		for _, syn := range synonyms {
			key := canonicalKey(syn)
			if key == "" {
				continue
			}
			if _, taken := lookup[key]; !taken {
				lookup[key] = field
			}
		}
	}

	n := Normalizer{lookup: lookup}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Normalize maps a raw record onto the canonical schema. Unmapped optional
// fields stay empty. A required field with no matching column yields a
// SchemaError. Numeric fields parse leniently and fall back to nil.
func (n Normalizer) Normalize(dataset, sourceFile string, record Record) (Lead, error) {
	mapped := make(map[Field]string, record.Len())
	for i := 0; i < record.Len(); i++ {
		field, ok := n.lookup[canonicalKey(record.Column(i))]
		if !ok {
			continue
		}
		if _, taken := mapped[field]; taken {
			continue
		}
		mapped[field] = strings.TrimSpace(record.Value(i))
	}

	for _, field := range n.required {
		if _, ok := mapped[field]; !ok {
			return Lead{}, NewSchemaError(field)
		}
	}

	f := Fields{
		Username:       mapped[FieldUsername],
		Name:           mapped[FieldName],
		Bio:            mapped[FieldBio],
		Category:       mapped[FieldCategory],
		Title:          mapped[FieldTitle],
		Company:        mapped[FieldCompany],
		City:           mapped[FieldCity],
		Domain:         mapped[FieldDomain],
		Website:        mapped[FieldWebsite],
		Email:          mapped[FieldEmail],
		Phone:          mapped[FieldPhone],
		FollowerCount:  parseCount(mapped[FieldFollowerCount]),
		FollowingCount: parseCount(mapped[FieldFollowingCount]),
	}

	return New(dataset, sourceFile, f), nil
}

// parseCount parses a numeric cell leniently: thousands separators and
// surrounding whitespace are stripped, the empty string is nil, and
// anything unparseable is nil rather than an error.
func parseCount(raw string) *int64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '_', '\'', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return nil
	}

	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		// Some exports render counts as floats ("1200.0").
		fv, ferr := strconv.ParseFloat(cleaned, 64)
		if ferr != nil {
			return nil
		}
		v = int64(fv)
	}
	if v < 0 {
		return nil
	}
	return &v
}
