// Package tutor wires the message pipeline together: route the intent,
// assemble context, execute the task, persist the exchange, and record
// memory and progress in the background.
package tutor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/akshsgaur/translator-agent/internal/assembler"
	"github.com/akshsgaur/translator-agent/internal/conversation"
	"github.com/akshsgaur/translator-agent/internal/executor"
	"github.com/akshsgaur/translator-agent/internal/memoryindex"
	"github.com/akshsgaur/translator-agent/internal/memqueue"
	"github.com/akshsgaur/translator-agent/internal/router"
)

const titleMaxChars = 50

// UserProfile describes the student the tutor is serving.
type UserProfile = executor.Profile

// IntentRouter decides what a message asks for.
type IntentRouter interface {
	Route(ctx context.Context, message string) router.Decision
}

// ContextAssembler gathers recent history and relevant memories.
type ContextAssembler interface {
	Assemble(ctx context.Context, userID, message, conversationID string) (*assembler.Context, error)
}

// TaskExecutor produces the reply for a routed action.
type TaskExecutor interface {
	Execute(ctx context.Context, decision router.Decision, message string, actx *assembler.Context, profile executor.Profile) (string, error)
}

// MemoryIndex records exchanges for later semantic recall.
type MemoryIndex interface {
	Add(ctx context.Context, records []memoryindex.Record, userID string, metadata map[string]string) error
}

// ProgressLog records learning activity.
type ProgressLog interface {
	LogTranslation(userID, text, targetLanguage string) error
	LogExercise(userID, language, difficulty string) error
}

// Tutor orchestrates one student's sessions.
type Tutor struct {
	conversations *conversation.Store
	router        IntentRouter
	assembler     ContextAssembler
	executor      TaskExecutor
	index         MemoryIndex
	progress      ProgressLog
	queue         *memqueue.Queue
	profile       UserProfile
	log           zerolog.Logger
}

// New assembles a Tutor from its pipeline stages.
func New(
	conversations *conversation.Store,
	intentRouter IntentRouter,
	ctxAssembler ContextAssembler,
	taskExecutor TaskExecutor,
	index MemoryIndex,
	progressLog ProgressLog,
	queue *memqueue.Queue,
	profile UserProfile,
	log zerolog.Logger,
) *Tutor {
	return &Tutor{
		conversations: conversations,
		router:        intentRouter,
		assembler:     ctxAssembler,
		executor:      taskExecutor,
		index:         index,
		progress:      progressLog,
		queue:         queue,
		profile:       profile,
		log:           log.With().Str("component", "tutor").Logger(),
	}
}

// Profile returns the active user profile.
func (t *Tutor) Profile() UserProfile { return t.profile }

// HandleTurn runs one message through the pipeline and returns the
// tutor's reply. The user message is persisted before any model work,
// and the reply (an apology on execution failure) is persisted before
// returning. Store IO failures are the only fatal errors.
func (t *Tutor) HandleTurn(ctx context.Context, conversationID, message string) (string, error) {
	if _, err := t.conversations.AppendMessage(conversationID, conversation.RoleUser, message); err != nil {
		return "", fmt.Errorf("failed to save message: %w", err)
	}
	t.maybeTitle(conversationID, message)

	decision := t.router.Route(ctx, message)

	actx, err := t.assembler.Assemble(ctx, t.profile.UserID, message, conversationID)
	if err != nil {
		// The reply can still be produced without context.
		t.log.Error().Err(err).Str("conversation_id", conversationID).Msg("context assembly failed")
		actx = &assembler.Context{}
	}

	reply, execErr := t.executor.Execute(ctx, decision, message, actx, t.profile)

	if _, err := t.conversations.AppendMessage(conversationID, conversation.RoleAssistant, reply); err != nil {
		return reply, fmt.Errorf("failed to save reply: %w", err)
	}

	if execErr == nil {
		t.recordInBackground(decision, message, reply)
	}

	return reply, nil
}

// maybeTitle derives the conversation title from its first message.
func (t *Tutor) maybeTitle(conversationID, message string) {
	conv, err := t.conversations.Get(conversationID)
	if err != nil || len(conv.Messages) != 1 {
		return
	}
	if err := t.conversations.Rename(conversationID, deriveTitle(message)); err != nil {
		t.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to set title")
	}
}

func deriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= titleMaxChars {
		return message
	}
	return string(runes[:titleMaxChars]) + "..."
}

// recordInBackground queues memory indexing and progress logging so the
// reply path never waits on them.
func (t *Tutor) recordInBackground(decision router.Decision, message, reply string) {
	name := t.profile.DisplayName
	if name == "" {
		name = "Student"
	}
	records := []memoryindex.Record{
		{Role: conversation.RoleUser, Content: fmt.Sprintf("%s (learning %s) said: %s", name, t.profile.TargetLanguage, message)},
		{Role: conversation.RoleAssistant, Content: "Tutor responded: " + reply},
	}
	metadata := map[string]string{"category": executor.Category(decision.Action)}
	userID := t.profile.UserID

	err := t.queue.Submit(context.Background(), func(jobCtx context.Context) error {
		if err := t.index.Add(jobCtx, records, userID, metadata); err != nil {
			return err
		}
		return t.logProgress(decision, message)
	})
	if err != nil {
		t.log.Warn().Err(err).Msg("failed to queue memory recording")
	}
}

func (t *Tutor) logProgress(decision router.Decision, message string) error {
	if t.progress == nil {
		return nil
	}
	switch decision.Action {
	case router.ActionTranslate:
		text := decision.Arg("text")
		if text == "" {
			text = message
		}
		target := decision.Arg("target_language")
		if target == "" {
			target = t.profile.TargetLanguage
		}
		return t.progress.LogTranslation(t.profile.UserID, text, target)
	case router.ActionExercise:
		lang := decision.Arg("language")
		if lang == "" {
			lang = t.profile.TargetLanguage
		}
		difficulty := decision.Arg("difficulty")
		if difficulty == "" {
			difficulty = "beginner"
		}
		return t.progress.LogExercise(t.profile.UserID, lang, difficulty)
	default:
		return nil
	}
}

// Flush blocks until every queued background job has completed.
func (t *Tutor) Flush(ctx context.Context) error {
	return t.queue.Barrier(ctx)
}

// Close drains the background queue.
func (t *Tutor) Close() {
	t.queue.Stop()
}

// Conversation management pass-throughs for the CLI.

// NewConversation starts an empty conversation.
func (t *Tutor) NewConversation() (*conversation.Conversation, error) {
	id, err := t.conversations.Create()
	if err != nil {
		return nil, err
	}
	return t.conversations.Get(id)
}

// GetConversation loads a conversation with its messages.
func (t *Tutor) GetConversation(id string) (*conversation.Conversation, error) {
	return t.conversations.Get(id)
}

// ListConversations returns summaries, most recently updated first.
func (t *Tutor) ListConversations() ([]conversation.Summary, error) {
	return t.conversations.ListAll()
}

// ClearConversation removes all messages but keeps the conversation.
func (t *Tutor) ClearConversation(id string) error {
	return t.conversations.Clear(id)
}

// RenameConversation sets a new title.
func (t *Tutor) RenameConversation(id, title string) error {
	return t.conversations.Rename(id, title)
}

// DeleteConversation removes a conversation entirely.
func (t *Tutor) DeleteConversation(id string) error {
	return t.conversations.Delete(id)
}

// DeleteMessage removes one message; reports whether it existed.
func (t *Tutor) DeleteMessage(conversationID, messageID string) (bool, error) {
	return t.conversations.DeleteMessage(conversationID, messageID)
}

// SummaryGroup is a labeled band of conversation summaries.
type SummaryGroup struct {
	Label     string
	Summaries []conversation.Summary
}

// GroupSummaries bands summaries into Today, This Week and Older
// relative to now, preserving input order within each band.
func GroupSummaries(summaries []conversation.Summary, now time.Time) []SummaryGroup {
	year, month, day := now.Date()
	startOfDay := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -6)

	groups := []SummaryGroup{
		{Label: "Today"},
		{Label: "This Week"},
		{Label: "Older"},
	}
	for _, s := range summaries {
		switch {
		case !s.UpdatedAt.Before(startOfDay):
			groups[0].Summaries = append(groups[0].Summaries, s)
		case !s.UpdatedAt.Before(startOfWeek):
			groups[1].Summaries = append(groups[1].Summaries, s)
		default:
			groups[2].Summaries = append(groups[2].Summaries, s)
		}
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.Summaries) > 0 {
			out = append(out, g)
		}
	}
	return out
}
