package lead

import (
	"errors"
	"testing"
)

func TestNormalizer_AliasMatching(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	record := NewRecord(
		[]string{"Full Name", "Employer", "E-mail"},
		[]string{"Ada Lovelace", "Analytical Engines Ltd", "ada@example.com"},
	)

	l, err := n.Normalize("ds1", "leads.csv", record)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if l.Name() != "Ada Lovelace" {
		t.Errorf("Name() = %q", l.Name())
	}
	if l.Company() != "Analytical Engines Ltd" {
		t.Errorf("Company() = %q", l.Company())
	}
	if l.Email() != "ada@example.com" {
		t.Errorf("Email() = %q", l.Email())
	}
	if l.Title() != "" || l.City() != "" {
		t.Errorf("expected empty title/city, got %q/%q", l.Title(), l.City())
	}
	if l.Dataset() != "ds1" || l.SourceFile() != "leads.csv" {
		t.Errorf("dataset/sourceFile = %q/%q", l.Dataset(), l.SourceFile())
	}
}

func TestNormalizer_FirstMatchWins(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	// Both "website" and "url" map to the website field; the first column wins.
	record := NewRecord(
		[]string{"Website", "URL"},
		[]string{"https://first.example", "https://second.example"},
	)

	l, err := n.Normalize("ds", "f.csv", record)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if l.Website() != "https://first.example" {
		t.Errorf("Website() = %q", l.Website())
	}
}

func TestNormalizer_RequiredFieldMissing(t *testing.T) {
	n := NewNormalizer(DefaultAliases(), WithRequired(FieldEmail))

	record := NewRecord([]string{"Name"}, []string{"Bob"})

	_, err := n.Normalize("ds", "f.csv", record)
	if err == nil {
		t.Fatal("expected SchemaError")
	}
	if !errors.Is(err, ErrSchema) {
		t.Errorf("expected errors.Is(err, ErrSchema), got %v", err)
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T", err)
	}
	if schemaErr.Field() != FieldEmail {
		t.Errorf("Field() = %q", schemaErr.Field())
	}
}

func TestNormalizer_NumericParsing(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	tests := []struct {
		name string
		raw  string
		want *int64
	}{
		{"plain", "1200", ptr(1200)},
		{"thousands separator", "1,200,000", ptr(1200000)},
		{"spaces", " 42 ", ptr(42)},
		{"float export", "1200.0", ptr(1200)},
		{"empty is null", "", nil},
		{"garbage is null", "a lot", nil},
		{"negative is null", "-5", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := NewRecord([]string{"followers"}, []string{tt.raw})
			l, err := n.Normalize("ds", "f.csv", record)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			got := l.FollowerCount()
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expected nil, got %d", *got)
			case tt.want != nil && got == nil:
				t.Errorf("expected %d, got nil", *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("expected %d, got %d", *tt.want, *got)
			}
		})
	}
}

func TestNormalizer_CaseAndPunctuationInsensitive(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	record := NewRecord(
		[]string{"PHONE_NUMBER", "Company-Name"},
		[]string{"+49 89 1234567", "Beispiel GmbH"},
	)

	l, err := n.Normalize("ds", "f.csv", record)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if l.Phone() != "+49 89 1234567" {
		t.Errorf("Phone() = %q", l.Phone())
	}
	if l.Company() != "Beispiel GmbH" {
		t.Errorf("Company() = %q", l.Company())
	}
}

func TestNormalizer_ShortRow(t *testing.T) {
	n := NewNormalizer(DefaultAliases())

	// Row has fewer cells than the header; missing cells are empty.
	record := NewRecord([]string{"Name", "City"}, []string{"Eve"})

	l, err := n.Normalize("ds", "f.csv", record)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if l.Name() != "Eve" || l.City() != "" {
		t.Errorf("Name/City = %q/%q", l.Name(), l.City())
	}
}

func TestAliasTable_Merge(t *testing.T) {
	merged := DefaultAliases().Merge(AliasTable{
		FieldCompany: {"firma"},
	})

	n := NewNormalizer(merged)
	record := NewRecord([]string{"Firma"}, []string{"Muster AG"})

	l, err := n.Normalize("ds", "f.csv", record)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if l.Company() != "Muster AG" {
		t.Errorf("Company() = %q", l.Company())
	}
}

func ptr(v int64) *int64 { return &v }
