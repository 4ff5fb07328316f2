package semantic

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ppiankov/groundcheck/internal/model"
)

// OpenAIMatcher implements Matcher against the OpenAI API: embeddings for
// Embed/Similarity and a constrained chat completion for Entails.
// Embeddings are cached so repeated verifications of the same values do not
// re-bill, and all requests go through a shared rate limiter.
type OpenAIMatcher struct {
	client  *openai.Client
	cfg     model.OpenAIConfig
	cache   *gocache.Cache
	limiter *rate.Limiter
}

// NewOpenAIMatcher creates a matcher from the given configuration.
func NewOpenAIMatcher(cfg model.OpenAIConfig) (*OpenAIMatcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &OpenAIMatcher{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		cache:   gocache.New(ttl, 2*ttl),
		limiter: rate.NewLimiter(rate.Limit(rps), 2),
	}, nil
}

// Embed returns the embedding vector for text, consulting the cache first.
func (m *OpenAIMatcher) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, found := m.cache.Get("emb:" + text); found {
		return v.([]float64), nil
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	embeddingModel := m.cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}

	resp, err := m.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("create embedding: empty response")
	}

	vec := make([]float64, len(resp.Data[0].Embedding))
	for i, f := range resp.Data[0].Embedding {
		vec[i] = float64(f)
	}
	m.cache.Set("emb:"+text, vec, gocache.DefaultExpiration)
	return vec, nil
}

// Similarity is cosine similarity over the two embeddings.
func (m *OpenAIMatcher) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := m.Embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := m.Embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return Cosine(va, vb), nil
}

const entailPrompt = `You judge the logical relation between two statements.
Answer with exactly one line in the form LABEL CONFIDENCE where LABEL is one
of entail, neutral, contradict and CONFIDENCE is a number between 0 and 1.

Premise: %s
Hypothesis: %s`

// Entails asks the chat model for an entailment judgment. Responses that do
// not parse come back as neutral with zero confidence rather than an error,
// so a flaky model degrades instead of failing the verification.
func (m *OpenAIMatcher) Entails(ctx context.Context, premise, hypothesis string) (EntailmentResult, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return EntailmentResult{}, err
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	chatModel := m.cfg.EntailmentModel
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(entailPrompt, premise, hypothesis),
			},
		},
		MaxTokens:   16,
		Temperature: 0,
	})
	if err != nil {
		return EntailmentResult{}, fmt.Errorf("entailment completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return EntailmentResult{Label: Neutral}, nil
	}

	return parseEntailment(resp.Choices[0].Message.Content), nil
}

func parseEntailment(answer string) EntailmentResult {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(answer)))
	if len(fields) == 0 {
		return EntailmentResult{Label: Neutral}
	}

	var label Entailment
	switch {
	case strings.HasPrefix(fields[0], "entail"):
		label = Entails
	case strings.HasPrefix(fields[0], "contradict"):
		label = Contradicts
	case strings.HasPrefix(fields[0], "neutral"):
		label = Neutral
	default:
		return EntailmentResult{Label: Neutral}
	}

	confidence := 0.5
	if len(fields) > 1 {
		if _, err := fmt.Sscanf(fields[1], "%f", &confidence); err != nil {
			confidence = 0.5
		}
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return EntailmentResult{Label: label, Confidence: confidence}
}

func (m *OpenAIMatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(m.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
