package memoryindex

import (
	"context"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
)

// stubEmbedding maps text onto a tiny fixed vocabulary so similarity
// search works deterministically without a real embedding backend.
func stubEmbedding() chromem.EmbeddingFunc {
	vocab := []string{"coffee", "french", "spanish", "exercise", "greeting"}
	return func(ctx context.Context, text string) ([]float32, error) {
		lower := strings.ToLower(text)
		vec := make([]float32, len(vocab)+1)
		vec[len(vocab)] = 0.01 // avoid zero vectors
		for i, word := range vocab {
			if strings.Contains(lower, word) {
				vec[i] = 1
			}
		}
		return vec, nil
	}
}

func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(t.TempDir(), stubEmbedding(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	return idx
}

func TestAddAndSearch(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()

	records := []Record{
		{Role: "user", Content: "Ana (learning French) said: how do I order coffee?"},
		{Role: "assistant", Content: "Tutor responded: un café, s'il vous plaît"},
	}
	if err := idx.Add(ctx, records, "user-1", map[string]string{"category": "general"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := idx.Add(ctx, []Record{{Role: "user", Content: "completed a spanish exercise"}}, "user-1", nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	hits, err := idx.Search(ctx, "coffee in french", "user-1", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("Expected at least one hit")
	}
	if !strings.Contains(hits[0].Content, "coffee") {
		t.Errorf("Expected top hit about coffee, got %q", hits[0].Content)
	}
	if hits[0].Score <= 0 {
		t.Errorf("Expected positive similarity score, got %f", hits[0].Score)
	}
}

func TestSearchIsPartitionedByUser(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()

	idx.Add(ctx, []Record{{Role: "user", Content: "coffee in french"}}, "user-a", nil)

	hits, err := idx.Search(ctx, "coffee", "user-b", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no cross-user hits, got %d", len(hits))
	}
}

func TestSearchEmptyCollection(t *testing.T) {
	idx := setupTestIndex(t)

	hits, err := idx.Search(context.Background(), "anything", "user-1", 5)
	if err != nil {
		t.Fatalf("Search on empty collection should not error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no hits, got %d", len(hits))
	}
}

func TestSearchLimitCappedToCount(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()

	idx.Add(ctx, []Record{{Role: "user", Content: "greeting practice"}}, "user-1", nil)

	hits, err := idx.Search(ctx, "greeting", "user-1", 50)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Expected 1 hit, got %d", len(hits))
	}
}

func TestNilIndexIsNoOp(t *testing.T) {
	var idx *Index

	if err := idx.Add(context.Background(), []Record{{Role: "user", Content: "x"}}, "u", nil); err != nil {
		t.Errorf("Nil index Add should be a no-op, got %v", err)
	}
	hits, err := idx.Search(context.Background(), "x", "u", 5)
	if err != nil {
		t.Errorf("Nil index Search should be a no-op, got %v", err)
	}
	if hits != nil {
		t.Errorf("Nil index Search should return nil hits, got %v", hits)
	}
}
