package matcher

import (
	"context"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"pincrawl/internal/config"
	"pincrawl/pkg/models"
	"pincrawl/pkg/utils"
)

// VectorEntry is one catalog product embedding to upsert into the index
type VectorEntry struct {
	ID       string
	Values   []float32
	Metadata map[string]interface{}
}

// VectorIndex is the nearest-neighbor search surface over catalog embeddings.
// The index itself is built offline; the pipeline only queries it.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]models.Match, error)
	Upsert(ctx context.Context, entries []VectorEntry) (int, error)
	Existing(ctx context.Context, ids []string) (map[string]bool, error)
}

// PineconeIndex implements VectorIndex using a Pinecone serverless index
type PineconeIndex struct {
	conn *pinecone.IndexConnection
}

// NewPineconeIndex connects to the configured Pinecone index
func NewPineconeIndex(cfg *config.Config) (*PineconeIndex, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.Pinecone.APIKey,
	})
	if err != nil {
		return nil, utils.NewProviderError("pinecone", "connect", utils.Unrecoverable, err)
	}

	conn, err := client.Index(pinecone.NewIndexConnParams{
		Host:      cfg.Pinecone.IndexHost,
		Namespace: cfg.Pinecone.Namespace,
	})
	if err != nil {
		return nil, utils.NewProviderError("pinecone", "connect", utils.Unrecoverable, err)
	}

	return &PineconeIndex{conn: conn}, nil
}

// CreateIndex creates the serverless Pinecone index the matcher queries,
// sized to the configured embedding dimensions, and returns its host. The
// host then goes into pinecone.index_host (or PINECONE_INDEX_HOST).
func CreateIndex(ctx context.Context, cfg *config.Config) (string, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.Pinecone.APIKey,
	})
	if err != nil {
		return "", utils.NewProviderError("pinecone", "connect", utils.Unrecoverable, err)
	}

	dimension := int32(cfg.Embedding.Dimensions)
	metric := pinecone.Cosine

	index, err := client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:      cfg.Pinecone.IndexName,
		Dimension: &dimension,
		Metric:    &metric,
		Cloud:     pinecone.Cloud(cfg.Pinecone.Cloud),
		Region:    cfg.Pinecone.Region,
	})
	if err != nil {
		return "", utils.NewProviderError("pinecone", "create_index", utils.Unrecoverable, err)
	}

	return index.Host, nil
}

// Query returns the topK nearest catalog entries for the given vector
func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.Match, error) {
	res, err := p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, utils.NewProviderError("pinecone", "query", utils.RetryNow, err)
	}

	matches := make([]models.Match, 0, len(res.Matches))
	for _, m := range res.Matches {
		if m.Vector == nil {
			continue
		}

		match := models.Match{
			OpdbID: m.Vector.Id,
			Score:  m.Score,
		}

		if m.Vector.Metadata != nil {
			fields := m.Vector.Metadata.Fields
			if v, ok := fields["name"]; ok {
				match.Name = v.GetStringValue()
			}
			if v, ok := fields["manufacturer"]; ok {
				match.Manufacturer = v.GetStringValue()
			}
			if v, ok := fields["year"]; ok {
				match.Year = v.GetStringValue()
			}
		}

		matches = append(matches, match)
	}

	return matches, nil
}

// Existing reports which of the given ids are already present in the index,
// so an interrupted index build can resume without re-embedding everything.
func (p *PineconeIndex) Existing(ctx context.Context, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	res, err := p.conn.FetchVectors(ctx, ids)
	if err != nil {
		return nil, utils.NewProviderError("pinecone", "fetch", utils.RetryNow, err)
	}

	existing := make(map[string]bool, len(res.Vectors))
	for id := range res.Vectors {
		existing[id] = true
	}
	return existing, nil
}

// Upsert writes catalog embeddings into the index, returning the count written
func (p *PineconeIndex) Upsert(ctx context.Context, entries []VectorEntry) (int, error) {
	vectors := make([]*pinecone.Vector, 0, len(entries))
	for _, entry := range entries {
		values := entry.Values

		metadata, err := structpb.NewStruct(entry.Metadata)
		if err != nil {
			return 0, utils.NewProviderError("pinecone", "upsert", utils.Unrecoverable, err)
		}

		vectors = append(vectors, &pinecone.Vector{
			Id:       entry.ID,
			Values:   &values,
			Metadata: metadata,
		})
	}

	count, err := p.conn.UpsertVectors(ctx, vectors)
	if err != nil {
		return 0, utils.NewProviderError("pinecone", "upsert", utils.RetryNow, err)
	}

	return int(count), nil
}
