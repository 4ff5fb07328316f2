package model

import "errors"

// Boundary-condition errors. Only these propagate out of the library;
// internal regex or ontology mismatches degrade silently.
var (
	// ErrInputMalformed: draft or memory input failed validation (empty
	// memory text, trust out of [0,1], unknown mode).
	ErrInputMalformed = errors.New("malformed input")

	// ErrOntologyMissing: an ontology file is absent or unparseable at
	// construction time.
	ErrOntologyMissing = errors.New("ontology missing")

	// ErrSemanticUnavailable: neural matching was requested but no semantic
	// matcher was injected.
	ErrSemanticUnavailable = errors.New("semantic matcher unavailable")
)
