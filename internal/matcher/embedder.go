package matcher

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"pincrawl/internal/config"
	"pincrawl/pkg/utils"
)

// Embedder turns text into a fixed-dimension vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder implements Embedder using the OpenAI embeddings API
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates a new OpenAI embedder instance
func NewOpenAIEmbedder(cfg *config.Config) *OpenAIEmbedder {
	client := openai.NewClient(
		option.WithAPIKey(cfg.Embedding.APIKey),
	)

	return &OpenAIEmbedder{
		client:     client,
		model:      cfg.Embedding.Model,
		dimensions: cfg.Embedding.Dimensions,
	}
}

// Embed generates an embedding vector for the given text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Dimensions: openai.Int(int64(e.dimensions)),
	})
	if err != nil {
		return nil, utils.NewProviderError("openai", "embeddings", utils.RetryNow, err)
	}

	if len(resp.Data) == 0 {
		return nil, utils.NewProviderError("openai", "embeddings", utils.RetryNow,
			fmt.Errorf("no embedding in response"))
	}

	embedding := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}
