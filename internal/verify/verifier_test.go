package verify

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ppiankov/groundcheck/internal/model"
)

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := New(model.DefaultConfig())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return v
}

func ts(v int64) *int64 { return &v }

func TestVerify_HallucinationCorrectedInStrictMode(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User works at Microsoft", Trust: 0.9},
		{ID: "m2", Text: "User lives in Seattle", Trust: 0.8},
	}

	report, err := v.Verify(context.Background(),
		"You work at Amazon and live in Seattle", memories, model.ModeStrict)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}

	if report.Passed {
		t.Error("expected verification to fail")
	}
	if len(report.Hallucinations) != 1 || report.Hallucinations[0] != "Amazon" {
		t.Errorf("hallucinations = %v, want [Amazon]", report.Hallucinations)
	}
	if report.Corrected != "You work at Microsoft and live in Seattle" {
		t.Errorf("corrected = %q", report.Corrected)
	}
	if report.GroundingMap["location"] != "m2" {
		t.Errorf("location grounding = %q, want m2", report.GroundingMap["location"])
	}
	if report.GroundingMap["employer"] != "" {
		t.Errorf("employer grounding = %q, want empty", report.GroundingMap["employer"])
	}

	// (0.8 - 0.9) / (1.0 + 0.8), clamped at zero
	if report.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", report.Confidence)
	}
}

func TestVerify_ContradictionRequiresDisclosure(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User is named Alice", Trust: 0.9},
		{ID: "m2", Text: "User is named Bob", Trust: 0.3},
	}

	report, err := v.Verify(context.Background(), "Your name is Bob", memories, model.ModeStrict)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}

	if !report.RequiresDisclosure {
		t.Error("expected requires_disclosure with a 0.6 trust gap")
	}
	if len(report.ContradictionDetails) != 1 {
		t.Fatalf("contradictions = %+v", report.ContradictionDetails)
	}
	if report.ContradictionDetails[0].MostTrustedValue != "alice" {
		t.Errorf("most trusted = %q, want alice", report.ContradictionDetails[0].MostTrustedValue)
	}
	if report.Passed {
		t.Error("a contradiction on a draft slot must fail verification")
	}
}

func TestVerify_AbbreviationGrounding(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User lives in New York City", Trust: 1.0},
	}

	report, err := v.Verify(context.Background(), "You live in NYC", memories, model.ModeStrict)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if !report.Passed {
		t.Errorf("expected NYC to ground against New York City: %+v", report)
	}
	if report.GroundingMap["location"] != "m1" {
		t.Errorf("grounding = %v", report.GroundingMap)
	}
}

func TestVerify_EmptyMemoriesPassesIffNoClaims(t *testing.T) {
	v := newVerifier(t)

	report, err := v.Verify(context.Background(), "Nice weather today, huh?", nil, model.ModeStrict)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Passed || report.Confidence != 1.0 {
		t.Errorf("claim-free draft must pass with full confidence: %+v", report)
	}
	if len(report.FactsExtracted) != 0 || len(report.GroundingMap) != 0 {
		t.Errorf("expected empty maps, got %+v", report)
	}

	report, err = v.Verify(context.Background(), "You work at Amazon", nil, model.ModeStrict)
	if err != nil {
		t.Fatal(err)
	}
	if report.Passed {
		t.Error("claims with no memories must fail")
	}
	if report.Corrected != "" {
		t.Errorf("no grounded replacement exists, corrected must be empty, got %q", report.Corrected)
	}
}

func TestVerify_GroundingMapMirrorsFactsExtracted(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User works at Microsoft", Trust: 0.9},
	}
	report, err := v.Verify(context.Background(),
		"You work at Amazon and live in Seattle. The backend is FastAPI.",
		memories, model.ModePermissive)
	if err != nil {
		t.Fatal(err)
	}

	for slot := range report.GroundingMap {
		if _, ok := report.FactsExtracted[slot]; !ok {
			t.Errorf("grounding_map slot %q missing from facts_extracted", slot)
		}
	}
	for slot := range report.FactsExtracted {
		if _, ok := report.GroundingMap[slot]; !ok {
			t.Errorf("facts_extracted slot %q missing from grounding_map", slot)
		}
	}
}

func TestVerify_FullSupportFullConfidence(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User works at Microsoft", Trust: 0.7},
		{ID: "m2", Text: "User lives in Seattle", Trust: 0.4},
	}
	report, err := v.Verify(context.Background(),
		"You work at Microsoft and live in Seattle", memories, model.ModeStrict)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Passed {
		t.Fatalf("expected pass: %+v", report)
	}
	if math.Abs(report.Confidence-1.0) > 1e-9 {
		t.Errorf("confidence = %v, want 1.0 when every claim is supported", report.Confidence)
	}
}

func TestVerify_Idempotence(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User works at Microsoft", Trust: 0.9},
		{ID: "m2", Text: "User lives in Seattle", Trust: 0.8},
	}
	draft := "You work at Amazon and live in Seattle"

	first, err := v.Verify(context.Background(), draft, memories, model.ModeStrict)
	if err != nil {
		t.Fatal(err)
	}
	input := first.Corrected
	if input == "" {
		input = draft
	}

	second, err := v.Verify(context.Background(), input, memories, model.ModeStrict)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Passed {
		t.Errorf("verifying the corrected draft must pass: %+v", second)
	}
}

func TestVerify_Deterministic(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User works at Microsoft", Trust: 0.9, Timestamp: ts(100)},
		{ID: "m2", Text: "User works at Amazon", Trust: 0.8, Timestamp: ts(200)},
		{ID: "m3", Text: "User lives in Seattle", Trust: 0.8},
	}
	draft := "You work at Google and live in Seattle"

	first, err := v.Verify(context.Background(), draft, memories, model.ModeStrict)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		next, err := v.Verify(context.Background(), draft, memories, model.ModeStrict)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, next)
		}
	}
}

func TestVerify_ConflictingMemoriesRewriteMostTrusted(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User works at Microsoft", Trust: 0.9},
		{ID: "m2", Text: "User works at Amazon", Trust: 0.5},
	}

	report, err := v.Verify(context.Background(), "You work at Google", memories, model.ModeStrict)
	if err != nil {
		t.Fatal(err)
	}
	if report.Corrected != "You work at Microsoft" {
		t.Errorf("corrected = %q, want the most trusted Microsoft", report.Corrected)
	}
	if !report.RequiresDisclosure {
		t.Error("conflicting grounded values must set requires_disclosure")
	}
}

func TestVerify_PermissiveNeverRewrites(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User works at Microsoft", Trust: 0.9},
	}
	report, err := v.Verify(context.Background(), "You work at Amazon", memories, model.ModePermissive)
	if err != nil {
		t.Fatal(err)
	}
	if report.Passed {
		t.Error("expected failure")
	}
	if report.Corrected != "" {
		t.Errorf("permissive mode must not rewrite, got %q", report.Corrected)
	}
}

func TestVerify_InputValidation(t *testing.T) {
	v := newVerifier(t)

	_, err := v.Verify(context.Background(), "text", nil, model.Mode("aggressive"))
	if !errors.Is(err, model.ErrInputMalformed) {
		t.Errorf("unknown mode: got %v, want ErrInputMalformed", err)
	}

	_, err = v.Verify(context.Background(), "text",
		[]model.Memory{{ID: "m1", Text: "User works at Microsoft", Trust: 1.5}},
		model.ModeStrict)
	if !errors.Is(err, model.ErrInputMalformed) {
		t.Errorf("trust out of range: got %v, want ErrInputMalformed", err)
	}

	_, err = v.Verify(context.Background(), "text",
		[]model.Memory{{ID: "m1", Text: "", Trust: 0.5}},
		model.ModeStrict)
	if !errors.Is(err, model.ErrInputMalformed) {
		t.Errorf("empty memory text: got %v, want ErrInputMalformed", err)
	}
}

func TestNew_NeuralWithoutMatcher(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Verify.Neural = true

	_, err := New(cfg)
	if !errors.Is(err, model.ErrSemanticUnavailable) {
		t.Errorf("got %v, want ErrSemanticUnavailable", err)
	}
}

func TestNew_MissingOntology(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Ontology.VerbPath = "/nonexistent/verb_ontology.json"

	_, err := New(cfg)
	if !errors.Is(err, model.ErrOntologyMissing) {
		t.Errorf("got %v, want ErrOntologyMissing", err)
	}
}

func TestVerify_KnowledgeTierClaims(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "The team migrated from MySQL to Postgres", Trust: 0.9},
	}

	report, err := v.Verify(context.Background(),
		"We went with Postgres", memories, model.ModeStrict)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Passed {
		t.Errorf("expected Postgres claim grounded by migration memory: %+v", report)
	}
}

func TestFindSupport(t *testing.T) {
	v := newVerifier(t)

	memories := []model.Memory{
		{ID: "m1", Text: "User works at Microsoft", Trust: 0.9},
	}
	claims := v.ExtractClaims("You work at Microsoft")
	claim, ok := claims["employer"]
	if !ok {
		t.Fatalf("claims = %v", claims)
	}

	support := v.FindSupport(context.Background(), claim, memories)
	if support == nil || support.MemoryID != "m1" {
		t.Errorf("support = %+v", support)
	}

	none := v.FindSupport(context.Background(), model.ExtractedFact{
		Slot: "employer", Value: "Initech", Normalized: "initech",
	}, memories)
	if none != nil {
		t.Errorf("expected no support, got %+v", none)
	}
}

func TestVerify_TrustGapThresholdConfigurable(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Verify.TrustGapThreshold = 0.9
	v, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	memories := []model.Memory{
		{ID: "m1", Text: "User is named Alice", Trust: 0.9},
		{ID: "m2", Text: "User is named Bob", Trust: 0.3},
	}
	report, err := v.Verify(context.Background(), "Your name is Bob", memories, model.ModePermissive)
	if err != nil {
		t.Fatal(err)
	}
	if report.RequiresDisclosure {
		t.Error("0.6 gap under a 0.9 threshold must not require disclosure")
	}
}
