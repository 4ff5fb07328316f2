package store

import (
	"errors"
	"testing"

	"github.com/ppiankov/groundcheck/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// Deterministic clock for ordering assertions
	var tick int64
	s.now = func() int64 { tick++; return tick }
	return s
}

func TestPut_SourceTrustDefaults(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		source string
		trust  float64
	}{
		{"user", 0.70},
		{"document", 0.60},
		{"code", 0.80},
		{"inferred", 0.40},
		{"unknown", 0.50},
	}
	for _, tt := range tests {
		m, err := s.Put("some text", "", tt.source, nil)
		if err != nil {
			t.Fatalf("Put(%s) failed: %v", tt.source, err)
		}
		if m.Trust != tt.trust {
			t.Errorf("source %s: trust = %v, want %v", tt.source, m.Trust, tt.trust)
		}
		if m.ID == "" || m.Timestamp == nil {
			t.Errorf("source %s: incomplete memory %+v", tt.source, m)
		}
	}
}

func TestPut_ExplicitTrustAndValidation(t *testing.T) {
	s := openTestStore(t)

	trust := 0.95
	m, err := s.Put("text", "", "user", &trust)
	if err != nil {
		t.Fatal(err)
	}
	if m.Trust != 0.95 {
		t.Errorf("trust = %v", m.Trust)
	}

	bad := 1.5
	if _, err := s.Put("text", "", "user", &bad); !errors.Is(err, model.ErrInputMalformed) {
		t.Errorf("out-of-range trust: got %v", err)
	}
	if _, err := s.Put("", "", "user", nil); !errors.Is(err, model.ErrInputMalformed) {
		t.Errorf("empty text: got %v", err)
	}
}

func TestQuery_OrderAndNamespaceIsolation(t *testing.T) {
	s := openTestStore(t)

	low := 0.3
	high := 0.9
	if _, err := s.Put("low trust", "ns1", "user", &low); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put("high trust", "ns1", "user", &high); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put("other namespace", "ns2", "user", &high); err != nil {
		t.Fatal(err)
	}

	memories, err := s.Query("ns1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(memories) != 2 {
		t.Fatalf("expected 2 memories in ns1, got %d", len(memories))
	}
	if memories[0].Text != "high trust" {
		t.Errorf("expected trust-descending order, got %q first", memories[0].Text)
	}

	other, err := s.Query("ns2", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 || other[0].Text != "other namespace" {
		t.Errorf("ns2 = %+v", other)
	}
}

func TestQuery_EqualTrustOrdersByRecency(t *testing.T) {
	s := openTestStore(t)

	trust := 0.7
	if _, err := s.Put("older", "", "user", &trust); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put("newer", "", "user", &trust); err != nil {
		t.Fatal(err)
	}

	memories, err := s.Query("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(memories) != 2 || memories[0].Text != "newer" {
		t.Errorf("expected newest first on trust tie, got %+v", memories)
	}
}

func TestForget(t *testing.T) {
	s := openTestStore(t)

	m, err := s.Put("to forget", "", "user", nil)
	if err != nil {
		t.Fatal(err)
	}

	removed, err := s.Forget("", m.ID)
	if err != nil || !removed {
		t.Fatalf("Forget() = %v, %v", removed, err)
	}

	removed, err = s.Forget("", m.ID)
	if err != nil || removed {
		t.Fatalf("second Forget() = %v, %v, want false", removed, err)
	}

	memories, err := s.Query("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(memories) != 0 {
		t.Errorf("expected empty store, got %+v", memories)
	}
}
