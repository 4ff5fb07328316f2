package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var knowledgeFlag bool

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <text>",
	Short: "Extract facts from text",
	Long: `Extract runs the fact extractors over the text and prints the results
as JSON without any verification.

Example:
  groundcheck extract "My name is Alice and I work at Google"
  groundcheck extract --knowledge "we migrated from MySQL to Postgres"`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&knowledgeFlag, "knowledge", false, "print raw Tier-1.5 knowledge facts instead of the merged slot map")
	extractCmd.Flags().StringVar(&verbPath, "verb-ontology", "", "path to verb_ontology.json (default: embedded)")
	extractCmd.Flags().StringVar(&taxonomyPath, "entity-taxonomy", "", "path to entity_taxonomy.json (default: embedded)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	verifier, err := buildVerifier()
	if err != nil {
		return err
	}

	var output interface{}
	if knowledgeFlag {
		output = verifier.ExtractKnowledgeFacts(args[0])
	} else {
		output = verifier.ExtractClaims(args[0])
	}

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
