package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/memfile"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/semantic"
	"github.com/ppiankov/groundcheck/internal/verify"
)

var (
	memoriesPath string
	modeFlag     string
	neuralFlag   bool
	verbPath     string
	taxonomyPath string
)

// ErrVerificationFailed marks a clean run whose draft did not pass; the
// binary maps it to exit code 1.
var ErrVerificationFailed = errors.New("verification failed")

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <text>",
	Short: "Verify text against stored memories",
	Long: `Verify extracts factual claims from the text, grounds each one in the
supplied memories, detects contradictions between the memories themselves,
and prints the full verification report as JSON.

Exit codes: 0 when the draft passed, 1 when it failed, 2 on malformed input.

Example:
  groundcheck verify "You work at Amazon" --memories memories.json
  groundcheck verify "We run Postgres" -m memories.json --mode permissive
  groundcheck verify "You live in NYC" -m memories.json --neural`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&memoriesPath, "memories", "m", "", "path to a JSON memory file (required)")
	verifyCmd.Flags().StringVar(&modeFlag, "mode", "strict", "verification mode (strict, permissive)")
	verifyCmd.Flags().BoolVar(&neuralFlag, "neural", false, "enable the OpenAI-backed semantic matcher (needs OPENAI_API_KEY)")
	verifyCmd.Flags().StringVar(&verbPath, "verb-ontology", "", "path to verb_ontology.json (default: embedded)")
	verifyCmd.Flags().StringVar(&taxonomyPath, "entity-taxonomy", "", "path to entity_taxonomy.json (default: embedded)")
	_ = verifyCmd.MarkFlagRequired("memories")
}

// buildVerifier assembles a verifier from config, flags, and environment.
func buildVerifier() (*verify.Verifier, error) {
	cfg := model.DefaultConfig()
	cfg.Verify.Neural = neuralFlag
	cfg.Ontology.VerbPath = verbPath
	cfg.Ontology.TaxonomyPath = taxonomyPath
	cfg.Output.Verbose = verbose

	var opts []verify.Option
	if neuralFlag {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY environment variable not set", model.ErrSemanticUnavailable)
		}
		matcher, err := semantic.NewOpenAIMatcher(cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrSemanticUnavailable, err)
		}
		opts = append(opts, verify.WithMatcher(matcher))
	}

	return verify.New(cfg, opts...)
}

func runVerify(cmd *cobra.Command, args []string) error {
	draft := args[0]

	mode := model.Mode(modeFlag)
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", model.ErrInputMalformed, modeFlag)
	}

	memories, err := memfile.Load(memoriesPath)
	if err != nil {
		return err
	}
	if len(memories) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no memories loaded from file")
	}

	verifier, err := buildVerifier()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying against %d memories (mode: %s)\n", len(memories), mode)
	}

	start := time.Now()
	report, err := verifier.Verify(context.Background(), draft, memories, mode)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d claims\n", len(report.FactsExtracted))
		fmt.Fprintf(os.Stderr, "✓ Detected %d contradictions\n", len(report.ContradictionDetails))
		fmt.Fprintf(os.Stderr, "✓ Verified in %s\n", elapsed.Round(time.Microsecond))
	}

	output := struct {
		*model.VerificationReport
		LatencyMS float64 `json:"latency_ms"`
		Memories  int     `json:"memories_count"`
	}{report, float64(elapsed.Microseconds()) / 1000, len(memories)}

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))

	if !report.Passed {
		return ErrVerificationFailed
	}
	return nil
}
