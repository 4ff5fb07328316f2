package normalize

import "testing"

func TestValue_Basic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Microsoft", "microsoft"},
		{"the Microsoft Corporation", "microsoft corporation"},
		{"My Dog", "dog"},
		{"New   York  City", "new york city"},
		{"Seattle.", "seattle"},
		{"a FastAPI", "fastapi"},
		{"", ""},
	}

	for _, tt := range tests {
		got := Value(tt.in)
		if got != tt.want {
			t.Errorf("Value(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValue_PreservesDecimals(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"99.9%", "99.9%"},
		{"v3.11", "v3.11"},
		{"v3.11.", "v3.11"},
		{"Python 3.11.4", "python 3.11.4"},
		{"5", "5"},
		{"5.", "5"},
	}

	for _, tt := range tests {
		got := Value(tt.in)
		if got != tt.want {
			t.Errorf("Value(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValue_Deterministic(t *testing.T) {
	in := "The quick v2.5 Fox's 99.9% answer."
	first := Value(in)
	for i := 0; i < 10; i++ {
		if got := Value(in); got != first {
			t.Fatalf("Value not deterministic: %q vs %q", got, first)
		}
	}
}

func TestTokenize_Offsets(t *testing.T) {
	text := "You work at Amazon and live in Seattle"
	tokens := Tokenize(text)

	for _, tok := range tokens {
		if text[tok.Start:tok.End] != tok.Text {
			t.Errorf("token %q does not match its span %d:%d (%q)",
				tok.Text, tok.Start, tok.End, text[tok.Start:tok.End])
		}
	}

	if len(tokens) != 8 {
		t.Fatalf("expected 8 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[3].Text != "Amazon" {
		t.Errorf("expected token 3 to be Amazon, got %q", tokens[3].Text)
	}
}

func TestTokenize_NumericUnits(t *testing.T) {
	tokens := Tokenize("uptime hit 99.9% on v3.11.")

	var found []string
	for _, tok := range tokens {
		found = append(found, tok.Text)
	}

	want := map[string]bool{"99.9%": false, "v3.11": false}
	for _, f := range found {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for tok, ok := range want {
		if !ok {
			t.Errorf("expected token %q in %v", tok, found)
		}
	}
}

func TestText_CollapsesWhitespace(t *testing.T) {
	got := Text("  The\tUser   Works\nat  Microsoft ")
	if got != "the user works at microsoft" {
		t.Errorf("Text() = %q", got)
	}
}
