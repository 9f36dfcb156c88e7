package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"github.com/erickguan/agentic-finance-analysis/internal/config"
	"github.com/erickguan/agentic-finance-analysis/internal/logger"
)

// Embedder turns text into fixed-length float vectors. Implementations are
// batched and rate-limited; callers treat a failure as "no result" rather
// than a fatal condition.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// maxEmbedChars bounds the text sent per item; Gemini rejects oversized
// inputs and a single huge document must not sink the whole batch.
const maxEmbedChars = 32000

// GeminiEmbedder generates embeddings through the Google Generative AI API
// (text-embedding-004 by default), guarded by a circuit breaker and a
// client-side rate limiter.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	batchSize int
	breaker   *gobreaker.CircuitBreaker
	limiter   *rate.Limiter
}

func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiEmbeddings",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.EmbedRPM)*0.9/60.0), max(cfg.EmbedRPM/10, 1))

	batch := cfg.EmbedBatchSize
	if batch <= 0 || batch > 100 {
		batch = 100
	}

	return &GeminiEmbedder{
		client:    client,
		model:     cfg.EmbeddingsModel,
		dimension: cfg.EmbeddingDim,
		batchSize: batch,
		breaker:   breaker,
		limiter:   limiter,
	}, nil
}

// EmbedTexts embeds all texts, splitting into batches of at most the
// configured batch size. Any batch failure fails the whole call so callers
// never see a partial result.
func (ge *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	tracer := otel.Tracer("gemini-embedder")
	ctx, span := tracer.Start(ctx, "gemini.embed_texts")
	defer span.End()

	span.SetAttributes(
		attribute.Int("embed.texts", len(texts)),
		attribute.String("embed.model", ge.model),
	)

	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += ge.batchSize {
		end := min(start+ge.batchSize, len(texts))

		if err := ge.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding rate limit wait: %w", err)
		}

		batch, err := ge.embedBatch(ctx, texts[start:end])
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (ge *GeminiEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := ge.breaker.Execute(func() (interface{}, error) {
		em := ge.client.EmbeddingModel(ge.model)
		b := em.NewBatch()
		for _, text := range texts {
			b.AddContent(genai.Text(prepareText(text)))
		}
		return em.BatchEmbedContents(ctx, b)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed: %w", err)
	}

	resp := result.(*genai.BatchEmbedContentsResponse)
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at position %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Dimension reports the configured embedding dimension.
func (ge *GeminiEmbedder) Dimension() int {
	return ge.dimension
}

// Close releases the underlying API client.
func (ge *GeminiEmbedder) Close() error {
	return ge.client.Close()
}

func prepareText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxEmbedChars {
		text = text[:maxEmbedChars]
	}
	return text
}
