package clause

import "testing"

func TestSplit_CommaSeparatedClauses(t *testing.T) {
	clauses := Split("frontend is React, backend is FastAPI")

	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d: %v", len(clauses), clauses)
	}
	if clauses[0].Text != "frontend is React" {
		t.Errorf("clause 0 = %q", clauses[0].Text)
	}
	if clauses[1].Text != "backend is FastAPI" {
		t.Errorf("clause 1 = %q", clauses[1].Text)
	}
	if clauses[0].Index != 0 || clauses[1].Index != 1 {
		t.Errorf("clause indices wrong: %d, %d", clauses[0].Index, clauses[1].Index)
	}
}

func TestSplit_ConjunctionNeedsFullClause(t *testing.T) {
	// "live" is a verb, so "and" here joins two verb phrases, not clauses.
	clauses := Split("You work at Amazon and live in Seattle")
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d: %v", len(clauses), clauses)
	}

	// Here "and" joins two full clauses.
	clauses = Split("The database is Postgres and the cache is Redis")
	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d: %v", len(clauses), clauses)
	}
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	clauses := Split("My name is Alice. I work at Google! Do you remember?")
	if len(clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d: %v", len(clauses), clauses)
	}
}

func TestSplit_DecimalPeriodNotBoundary(t *testing.T) {
	clauses := Split("Uptime is 99.9% this quarter")
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d: %v", len(clauses), clauses)
	}
}

func TestSplit_CommaInsideParensAndQuotes(t *testing.T) {
	clauses := Split(`The stack (Go, Rust) is settled`)
	if len(clauses) != 1 {
		t.Fatalf("expected paren comma to be ignored, got %d: %v", len(clauses), clauses)
	}

	clauses = Split(`I'm reading "Hello, World" tonight`)
	if len(clauses) != 1 {
		t.Fatalf("expected quoted comma to be ignored, got %d: %v", len(clauses), clauses)
	}
}

func TestSplit_TemporalSubordinator(t *testing.T) {
	clauses := Split("we ended up going with Postgres after the whole MySQL disaster")
	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d: %v", len(clauses), clauses)
	}
	if clauses[1].Text != "the whole MySQL disaster" {
		t.Errorf("clause 1 = %q", clauses[1].Text)
	}
}

func TestSplit_OffsetsPointIntoSource(t *testing.T) {
	text := "frontend is React, backend is FastAPI"
	for _, c := range Split(text) {
		if text[c.Start:c.Start+len(c.Text)] != c.Text {
			t.Errorf("clause %q has wrong start offset %d", c.Text, c.Start)
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	if got := Split(""); len(got) != 0 {
		t.Errorf("expected no clauses for empty input, got %v", got)
	}
}
