// Package assembler gathers the grounding context for a turn: the tail
// of the conversation transcript plus the most relevant long-term
// memories.
package assembler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/akshsgaur/translator-agent/internal/conversation"
	"github.com/akshsgaur/translator-agent/internal/memoryindex"
)

// Context is the assembled grounding for one turn.
type Context struct {
	// RecentHistory holds the last historyWindow messages, most-recent-last.
	RecentHistory []conversation.Message
	// Memories holds up to topK relevant memory snippets.
	Memories []string
}

// HistorySource reads the transcript of one conversation.
type HistorySource interface {
	Load(conversationID string) ([]conversation.Message, error)
}

// MemorySource performs similarity search over a user's memories.
type MemorySource interface {
	Search(ctx context.Context, query, userID string, limit int) ([]memoryindex.Hit, error)
}

// Assembler builds turn contexts from a conversation store and a
// semantic memory index.
type Assembler struct {
	store         HistorySource
	index         MemorySource
	historyWindow int
	topK          int
	log           zerolog.Logger
}

// New creates an Assembler. historyWindow is a turn count, not a token
// count; truncation always drops the oldest messages.
func New(store HistorySource, index MemorySource, historyWindow, topK int, log zerolog.Logger) *Assembler {
	return &Assembler{
		store:         store,
		index:         index,
		historyWindow: historyWindow,
		topK:          topK,
		log:           log.With().Str("component", "assembler").Logger(),
	}
}

// Assemble returns the grounding context for message in the given
// conversation. A failing or absent memory index yields empty memories,
// never an error; an unknown conversation id surfaces as the store's
// ErrNotFound since it indicates a caller bug.
func (a *Assembler) Assemble(ctx context.Context, userID, message, conversationID string) (*Context, error) {
	history, err := a.store.Load(conversationID)
	if err != nil {
		return nil, err
	}
	if len(history) > a.historyWindow {
		history = history[len(history)-a.historyWindow:]
	}

	var memories []string
	if a.index != nil {
		hits, err := a.index.Search(ctx, message, userID, a.topK)
		if err != nil {
			a.log.Warn().Err(err).Msg("memory search failed, continuing without memories")
		} else {
			for _, hit := range hits {
				memories = append(memories, hit.Content)
			}
		}
	}

	return &Context{
		RecentHistory: history,
		Memories:      memories,
	}, nil
}
