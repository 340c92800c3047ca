package retriever

import (
	"context"
	"sort"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/Alejob60/meta-agent/internal/vectorstore"
	"github.com/rs/zerolog/log"
)

// Embedder turns text into a fixed-dimension vector
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Retriever turns free text into a ranked set of relevant prior knowledge,
// scoped per tenant. Retrieval is an enhancement, not a blocking dependency:
// backend failures degrade to an empty result set.
type Retriever struct {
	embedder Embedder
	store    vectorstore.VectorStore
	topK     int
	minScore float32
}

// New creates a retriever with default top-k and threshold
func New(embedder Embedder, store vectorstore.VectorStore, topK int, minScore float32) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
		minScore: minScore,
	}
}

// Retrieve embeds the text and searches documents tagged with tenantID,
// returning at most topK results at or above the threshold, ordered by
// descending score.
func (r *Retriever) Retrieve(ctx context.Context, text, tenantID string) []domain.RetrievedDocument {
	if r.store == nil || text == "" {
		return nil
	}

	vector, err := r.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("embedding failed, skipping retrieval")
		return nil
	}

	results, err := r.store.Search(ctx, vector, vectorstore.SearchFilter{
		TenantID: tenantID,
		MinScore: r.minScore,
	}, r.topK)
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("vector search failed, continuing without context")
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > r.topK {
		results = results[:r.topK]
	}

	docs := make([]domain.RetrievedDocument, 0, len(results))
	for _, res := range results {
		if res.Score < r.minScore {
			continue
		}
		docs = append(docs, domain.RetrievedDocument{
			Text:     res.Content,
			Score:    res.Score,
			Metadata: res.Metadata,
		})
	}

	return docs
}
