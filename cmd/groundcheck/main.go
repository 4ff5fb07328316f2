package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/groundcheck/internal/cli"
	"github.com/ppiankov/groundcheck/internal/model"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	// A failed verification is a clean run with a failing verdict.
	if errors.Is(err, cli.ErrVerificationFailed) {
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	// Malformed input and missing resources are usage errors.
	if errors.Is(err, model.ErrInputMalformed) ||
		errors.Is(err, model.ErrOntologyMissing) ||
		errors.Is(err, model.ErrSemanticUnavailable) {
		os.Exit(2)
	}
	os.Exit(1)
}
