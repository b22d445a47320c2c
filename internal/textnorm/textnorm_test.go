package textnorm

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "And it came to pass", []string{"and", "it", "came", "to", "pass"}},
		{"punctuation", "Behold, I say unto you: Repent!", []string{"behold", "i", "say", "unto", "you", "repent"}},
		{"verse numerals", "1 In the beginning God created", []string{"in", "the", "beginning", "god", "created"}},
		{"chapter and verse marker", "Alma 32:21 faith is not", []string{"alma", "faith", "is", "not"}},
		{"inner apostrophe kept", "the Lord's house", []string{"the", "lord's", "house"}},
		{"curly apostrophe", "the Lord’s house", []string{"the", "lord's", "house"}},
		{"edge apostrophes trimmed", "'tis the sons' portion", []string{"tis", "the", "sons", "portion"}},
		{"hyphen separates", "Beer-sheba", []string{"beer", "sheba"}},
		{"em dash separates", "Joseph Smith—History", []string{"joseph", "smith", "history"}},
		{"accents folded", "Naïve café", []string{"naive", "cafe"}},
		{"ligature expanded", "ﬁnd", []string{"find"}},
		{"ae ligature kept in word", "Cæsar", []string{"caesar"}},
		{"oe ligature leading", "Œdipus", []string{"oedipus"}},
		{"sharp s", "Straße", []string{"strasse"}},
		{"stroked letters", "Søren Łódź", []string{"soren", "lodz"}},
		{"thorn and eth", "Þórr Eðda", []string{"thorr", "edda"}},
		{"empty", "", []string{}},
		{"whitespace only", "  \t\n ", []string{}},
		{"punctuation only", "--- ; !", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Faith", "  LOVE one   another ", "the Lord's", "'O'er'", "Joseph Smith—History 1:17",
		"faith", "lord's", "Cæsar's Œuvre", "Straße", "ÆTHELRED",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTokenize_CaseInsensitive(t *testing.T) {
	if !reflect.DeepEqual(Tokenize("Faith HOPE Charity"), Tokenize("faith hope charity")) {
		t.Error("tokenization should not depend on case")
	}
}

func TestIsToken(t *testing.T) {
	for _, tok := range Tokenize("Behold, the Lord's servant; 12 tribes") {
		if !IsToken(tok) {
			t.Errorf("IsToken(%q) = false for tokenizer output", tok)
		}
	}
	for _, tok := range Tokenize("Cæsar Œdipus Straße Þórr") {
		if !IsToken(tok) {
			t.Errorf("IsToken(%q) = false for folded letter output", tok)
		}
	}
	for _, s := range []string{"", "Faith", "two words", "'tis", "x1"} {
		if IsToken(s) {
			t.Errorf("IsToken(%q) = true, want false", s)
		}
	}
}
