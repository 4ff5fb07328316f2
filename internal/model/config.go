package model

// Config holds the complete GroundCheck configuration
type Config struct {
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
	Ontology OntologyConfig `yaml:"ontology" mapstructure:"ontology"`
	OpenAI   OpenAIConfig   `yaml:"openai" mapstructure:"openai"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// VerifyConfig tunes the verification pipeline
type VerifyConfig struct {
	// Neural enables the semantic matcher. When true a Matcher must be
	// injected at construction time.
	Neural bool `yaml:"neural" mapstructure:"neural"`

	// TrustGapThreshold: a contradiction whose trust spread reaches this
	// requires disclosure to the user. Asserted as 0.3 in the upstream
	// docs but not derived; kept configurable.
	TrustGapThreshold float64 `yaml:"trust_gap_threshold" mapstructure:"trust_gap_threshold"`

	// FuzzyBase and FuzzyDivisor control the fuzzy-match tolerance:
	// edit distance <= max(FuzzyBase, len/FuzzyDivisor). Inferred from
	// observed behavior, so tunable.
	FuzzyBase    int `yaml:"fuzzy_base" mapstructure:"fuzzy_base"`
	FuzzyDivisor int `yaml:"fuzzy_divisor" mapstructure:"fuzzy_divisor"`

	// EmbeddingThreshold is the cosine-similarity floor for the embedding
	// grounding strategy.
	EmbeddingThreshold float64 `yaml:"embedding_threshold" mapstructure:"embedding_threshold"`

	// ContradictionThreshold is the minimum entailment-contradiction
	// confidence for a dynamic-slot conflict to count.
	ContradictionThreshold float64 `yaml:"contradiction_threshold" mapstructure:"contradiction_threshold"`
}

// OntologyConfig points at the knowledge tables. Empty paths select the
// embedded defaults.
type OntologyConfig struct {
	VerbPath     string `yaml:"verb_path" mapstructure:"verb_path"`
	TaxonomyPath string `yaml:"taxonomy_path" mapstructure:"taxonomy_path"`
}

// OpenAIConfig configures the OpenAI-backed semantic matcher
type OpenAIConfig struct {
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	EmbeddingModel    string  `yaml:"embedding_model" mapstructure:"embedding_model"`
	EntailmentModel   string  `yaml:"entailment_model" mapstructure:"entailment_model"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	CacheTTLSeconds   int     `yaml:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the standard configuration
func DefaultConfig() *Config {
	return &Config{
		Verify: VerifyConfig{
			Neural:                 false,
			TrustGapThreshold:      0.3,
			FuzzyBase:              2,
			FuzzyDivisor:           6,
			EmbeddingThreshold:     0.75,
			ContradictionThreshold: 0.55,
		},
		OpenAI: OpenAIConfig{
			EmbeddingModel:    "text-embedding-3-small",
			EntailmentModel:   "gpt-4o-mini",
			TimeoutSeconds:    30,
			RequestsPerSecond: 5,
			CacheTTLSeconds:   3600,
		},
	}
}
