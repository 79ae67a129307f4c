// Package memoryindex is a thin adapter over an embedding+vector-search
// backend (chromem-go with per-user collections). The rest of the system
// only ever sees the normalized Hit type; a nil *Index degrades every
// operation to a no-op so an unconfigured backend never fails a turn.
package memoryindex

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
)

// Record is one role-tagged line of the exchange being remembered.
type Record struct {
	Role    string
	Content string
}

// Hit is a single similarity-search result.
type Hit struct {
	Content string
	Score   float32
}

// Index wraps chromem-go with per-user collections and disk persistence.
type Index struct {
	mu    sync.RWMutex
	db    *chromem.DB
	embed chromem.EmbeddingFunc
	log   zerolog.Logger
}

// New creates (or opens) the persistent index at dataDir/memoryindex/.
// embedFunc computes document and query embeddings; NewOllamaEmbedding
// covers a local Ollama instance, tests pass a custom func.
func New(dataDir string, embedFunc chromem.EmbeddingFunc, log zerolog.Logger) (*Index, error) {
	db, err := chromem.NewPersistentDB(dataDir+"/memoryindex", false)
	if err != nil {
		return nil, fmt.Errorf("open memory index: %w", err)
	}
	return &Index{
		db:    db,
		embed: embedFunc,
		log:   log.With().Str("component", "memory-index").Logger(),
	}, nil
}

// NewOllamaEmbedding returns an embedding function backed by an Ollama
// instance at baseURL.
func NewOllamaEmbedding(model, baseURL string) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOllama(model, strings.TrimSuffix(baseURL, "/")+"/api")
}

// collectionName returns the per-user collection name. Memories are
// partitioned by user and never cross-read.
func collectionName(userID string) string {
	return "user_" + userID + "_memories"
}

func (idx *Index) getOrCreateCollection(userID string) *chromem.Collection {
	name := collectionName(userID)
	col := idx.db.GetCollection(name, idx.embed)
	if col == nil {
		var err error
		col, err = idx.db.CreateCollection(name, nil, idx.embed)
		if err != nil {
			idx.log.Error().Err(err).Str("user", userID).Msg("failed to create memory collection")
			return nil
		}
	}
	return col
}

// Add appends one memory document summarizing the given records for
// userID. metadata is stored alongside (category, conversation id, ...).
// A nil index is a no-op.
func (idx *Index) Add(ctx context.Context, records []Record, userID string, metadata map[string]string) error {
	if idx == nil || len(records) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	col := idx.getOrCreateCollection(userID)
	if col == nil {
		return fmt.Errorf("memory index: nil collection for user %s", userID)
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.Content)
	}

	meta := map[string]string{
		"user_id":   userID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for k, v := range metadata {
		meta[k] = v
	}

	doc := chromem.Document{
		ID:       uuid.New().String(),
		Content:  strings.Join(lines, "\n"),
		Metadata: meta,
	}
	return col.AddDocument(ctx, doc)
}

// Search returns the top-limit memories most similar to query for
// userID, normalized to []Hit. A nil index returns no hits and no error.
func (idx *Index) Search(ctx context.Context, query, userID string, limit int) ([]Hit, error) {
	if idx == nil {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	col := idx.getOrCreateCollection(userID)
	if col == nil {
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	var results []chromem.Result
	var err error

	// chromem-go sometimes rejects nResults despite the Count check.
	// Step down limit if it fails.
	for k := limit; k > 0; k-- {
		results, err = col.Query(ctx, query, k, nil, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return normalize(results), nil
}

// normalize is the single point where backend result shapes become the
// documented Hit type; nothing downstream bypasses it.
func normalize(results []chromem.Result) []Hit {
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.Content == "" {
			continue
		}
		hits = append(hits, Hit{Content: r.Content, Score: r.Similarity})
	}
	return hits
}
