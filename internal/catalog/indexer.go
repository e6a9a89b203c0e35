package catalog

import (
	"context"
	"fmt"

	"pincrawl/internal/logging"
	"pincrawl/internal/matcher"
	"pincrawl/internal/storage"
	"pincrawl/pkg/models"
)

// Indexer maintains the two product stores: the relational catalog copy and
// the vector index of catalog embeddings.
type Indexer struct {
	store    storage.ProductStore
	embedder matcher.Embedder
	index    matcher.VectorIndex
	logger   logging.Logger
}

// NewIndexer creates an Indexer. The embedder and index may be nil when only
// Populate is used.
func NewIndexer(store storage.ProductStore, embedder matcher.Embedder, index matcher.VectorIndex) *Indexer {
	return &Indexer{
		store:    store,
		embedder: embedder,
		index:    index,
		logger:   logging.GetGlobalLogger(),
	}
}

// Populate loads an OPDB export into the relational catalog. An already
// populated catalog is left alone unless force is set, in which case it is
// replaced wholesale.
func (i *Indexer) Populate(ctx context.Context, path string, force bool) (int, error) {
	count, err := i.store.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 && !force {
		i.logger.Info("Catalog already populated, skipping", map[string]interface{}{
			"products": count,
		})
		return 0, nil
	}

	products, err := LoadFile(path)
	if err != nil {
		return 0, err
	}

	if force && count > 0 {
		if err := i.store.DeleteAllProducts(ctx); err != nil {
			return 0, err
		}
	}

	for idx := range products {
		if err := i.store.UpsertProduct(ctx, &products[idx]); err != nil {
			return idx, fmt.Errorf("store product %s: %w", products[idx].OpdbID, err)
		}
	}

	i.logger.Info("Catalog populated", map[string]interface{}{
		"products": len(products),
		"source":   path,
	})

	return len(products), nil
}

// upsertBatchSize keeps each Pinecone request well under the 2MB payload cap.
const upsertBatchSize = 100

// Index embeds catalog products and upserts them into the vector index.
// Products already present in the index are skipped, so an interrupted build
// resumes where it stopped. A limit of 0 indexes the whole catalog.
func (i *Indexer) Index(ctx context.Context, limit int) (int, error) {
	products, err := i.store.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}

	indexed := 0
	skipped := 0

	for start := 0; start < len(products); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(products) {
			end = len(products)
		}
		chunk := products[start:end]

		ids := make([]string, len(chunk))
		for n, product := range chunk {
			ids[n] = product.OpdbID
		}
		existing, err := i.index.Existing(ctx, ids)
		if err != nil {
			return indexed, err
		}

		batch := make([]matcher.VectorEntry, 0, len(chunk))
		for n := range chunk {
			if existing[chunk[n].OpdbID] {
				skipped++
				continue
			}
			entry, err := i.buildEntry(ctx, &chunk[n])
			if err != nil {
				return indexed, err
			}
			batch = append(batch, entry)
		}

		if len(batch) > 0 {
			count, err := i.index.Upsert(ctx, batch)
			if err != nil {
				return indexed, err
			}
			indexed += count
		}

		i.logger.Info("Indexing progress", map[string]interface{}{
			"indexed": indexed,
			"skipped": skipped,
			"total":   len(products),
		})
	}

	i.logger.Info("Catalog indexed", map[string]interface{}{
		"products": indexed,
		"skipped":  skipped,
	})

	return indexed, nil
}

func (i *Indexer) buildEntry(ctx context.Context, product *models.Product) (matcher.VectorEntry, error) {
	text := matcher.EmbeddingText(product.Name, strValue(product.Shortname), product.Manufacturer, strValue(product.Year))

	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return matcher.VectorEntry{}, fmt.Errorf("embed product %s: %w", product.OpdbID, err)
	}

	metadata := map[string]interface{}{
		"name":         product.Name,
		"manufacturer": product.Manufacturer,
	}
	if product.Year != nil {
		metadata["year"] = *product.Year
	}

	return matcher.VectorEntry{
		ID:       product.OpdbID,
		Values:   vector,
		Metadata: metadata,
	}, nil
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
