package lead

import "testing"

func TestLead_TextConcatOrder(t *testing.T) {
	l := New("ds", "f.csv", Fields{
		Username: "ada",
		Name:     "Ada Lovelace",
		Title:    "Engineer",
		City:     "London",
		Email:    "ada@example.com",
	})

	want := "ada Ada Lovelace Engineer London ada@example.com"
	if l.TextConcat() != want {
		t.Errorf("TextConcat() = %q, want %q", l.TextConcat(), want)
	}
}

func TestLead_TextConcatSkipsEmpty(t *testing.T) {
	l := New("ds", "f.csv", Fields{Name: "Bob"})
	if l.TextConcat() != "Bob" {
		t.Errorf("TextConcat() = %q", l.TextConcat())
	}

	empty := New("ds", "f.csv", Fields{})
	if empty.TextConcat() != "" {
		t.Errorf("TextConcat() = %q, want empty", empty.TextConcat())
	}
}

func TestLead_WithID(t *testing.T) {
	l := New("ds", "f.csv", Fields{Name: "Bob"})
	l2 := l.WithID(42)

	if l2.ID() != 42 {
		t.Errorf("WithID result ID() = %d, want 42", l2.ID())
	}
	if l.ID() != 0 {
		t.Errorf("original ID() = %d, want 0 (value type should be unchanged)", l.ID())
	}
}

func TestReconstruct_PreservesStoredConcat(t *testing.T) {
	// Reconstruct must not re-derive textConcat: the stored value is what
	// the lexical index and embeddings were built from.
	l := Reconstruct(7, "ds", "f.csv", Fields{Name: "Bob"}, "legacy concat")
	if l.TextConcat() != "legacy concat" {
		t.Errorf("TextConcat() = %q", l.TextConcat())
	}
	if l.ID() != 7 {
		t.Errorf("ID() = %d", l.ID())
	}
}
