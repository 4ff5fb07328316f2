// Package groundcheck detects hallucinations in AI-generated text by
// cross-checking it against trust-scored memories.
//
// The verifier extracts factual claims from a draft, grounds each one in
// the supplied memories, detects contradictions between the memories
// themselves, and reports a verdict:
//
//	verifier, err := groundcheck.New(nil)
//	if err != nil { ... }
//	report, err := verifier.Verify(ctx,
//		"You work at Amazon",
//		[]groundcheck.Memory{{ID: "m1", Text: "User works at Microsoft", Trust: 0.9}},
//		groundcheck.ModeStrict)
//	// report.Passed == false, report.Corrected == "You work at Microsoft"
//
// Each verification is synchronous and pure over its inputs; a verifier may
// be shared freely between goroutines.
package groundcheck

import (
	"github.com/ppiankov/groundcheck/internal/ground"
	"github.com/ppiankov/groundcheck/internal/memfile"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/semantic"
	"github.com/ppiankov/groundcheck/internal/verify"
)

// Core data types.
type (
	Memory              = model.Memory
	ExtractedFact       = model.ExtractedFact
	KnowledgeFact       = model.KnowledgeFact
	ContradictionDetail = model.ContradictionDetail
	VerificationReport  = model.VerificationReport
	Config              = model.Config
	Mode                = model.Mode
	Support             = ground.Support
)

// Verification modes.
const (
	ModeStrict     = model.ModeStrict
	ModePermissive = model.ModePermissive
)

// Boundary errors surfaced to callers.
var (
	ErrInputMalformed      = model.ErrInputMalformed
	ErrOntologyMissing     = model.ErrOntologyMissing
	ErrSemanticUnavailable = model.ErrSemanticUnavailable
)

// Matcher is the semantic-matching capability injected when neural mode is
// on. See semantic.OpenAIMatcher for the bundled implementation.
type Matcher = semantic.Matcher

// Verifier runs the verification pipeline.
type Verifier = verify.Verifier

// Option customizes verifier construction.
type Option = verify.Option

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return model.DefaultConfig()
}

// New builds a verifier. A nil config selects the defaults; when
// cfg.Verify.Neural is true a Matcher must be supplied via WithMatcher.
func New(cfg *Config, opts ...Option) (*Verifier, error) {
	return verify.New(cfg, opts...)
}

// WithMatcher injects a semantic matcher.
func WithMatcher(m Matcher) Option {
	return verify.WithMatcher(m)
}

// NewOpenAIMatcher returns the OpenAI-backed Matcher implementation.
func NewOpenAIMatcher(cfg model.OpenAIConfig) (Matcher, error) {
	return semantic.NewOpenAIMatcher(cfg)
}

// LoadMemories reads a memory list from a JSON file (an array of memory
// objects or {"memories": [...]}).
func LoadMemories(path string) ([]Memory, error) {
	return memfile.Load(path)
}
