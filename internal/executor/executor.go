// Package executor turns a routed action plus assembled context into the
// final tutor reply by prompting the appropriate model. Model failures
// become templated apology replies; they never propagate as panics or
// unhandled errors.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/akshsgaur/translator-agent/internal/assembler"
	"github.com/akshsgaur/translator-agent/internal/llm"
	"github.com/akshsgaur/translator-agent/internal/router"
)

// Profile is the read-only user profile supplied by the host at session
// start.
type Profile struct {
	UserID         string    `yaml:"user_id"`
	DisplayName    string    `yaml:"display_name"`
	TargetLanguage string    `yaml:"target_language"`
	CreatedAt      time.Time `yaml:"created_at"`
}

// Memory categories recorded per action.
const (
	CategoryTranslation        = "translation"
	CategoryTeaching           = "teaching"
	CategoryExerciseCompletion = "exercise-completion"
	CategoryGeneral            = "general"
)

// Category returns the memory category for a routed action.
func Category(action router.Action) string {
	switch action {
	case router.ActionTranslate:
		return CategoryTranslation
	case router.ActionTeach:
		return CategoryTeaching
	case router.ActionExercise:
		return CategoryExerciseCompletion
	case router.ActionChat:
		return CategoryGeneral
	default:
		return CategoryGeneral
	}
}

const maxTranscriptChars = 200

// ChatClient is the slice of the LLM client the executor needs.
type ChatClient interface {
	Chat(ctx context.Context, model llm.Model, messages []llm.Message, tools []llm.Tool) (*llm.ChatResponse, error)
}

// Executor dispatches routed actions to the translation or reasoning
// model.
type Executor struct {
	client      ChatClient
	reasoning   llm.Model
	translation llm.Model
	log         zerolog.Logger
}

// New creates an Executor over the given models.
func New(client ChatClient, reasoning, translation llm.Model, log zerolog.Logger) *Executor {
	return &Executor{
		client:      client,
		reasoning:   reasoning,
		translation: translation,
		log:         log.With().Str("component", "executor").Logger(),
	}
}

// Execute produces the reply for one turn. The returned reply is always
// usable; on model failure it is a templated apology embedding the
// error detail, with the underlying error returned for logging only.
func (e *Executor) Execute(ctx context.Context, decision router.Decision, message string, actx *assembler.Context, profile Profile) (string, error) {
	switch decision.Action {
	case router.ActionTranslate:
		return e.translate(ctx, decision, message, profile)
	case router.ActionTeach:
		return e.respond(ctx, teachTask(decision, message, profile), actx, profile)
	case router.ActionExercise:
		return e.respond(ctx, exerciseTask(decision, profile), actx, profile)
	case router.ActionChat:
		return e.respond(ctx, chatTask(message, actx), actx, profile)
	default:
		// Unknown actions cannot come out of the router, but degrade to
		// conversation rather than dropping the turn.
		return e.respond(ctx, chatTask(message, actx), actx, profile)
	}
}

// translate invokes the translation-specialized model with a minimal
// instruction and wraps the raw translation in a short templated reply.
func (e *Executor) translate(ctx context.Context, decision router.Decision, message string, profile Profile) (string, error) {
	text := decision.Arg("text")
	if text == "" {
		text = message
	}
	target := decision.Arg("target_language")
	if target == "" {
		target = profile.TargetLanguage
	}

	prompt := fmt.Sprintf("Translate to %s: %s", target, text)
	resp, err := e.client.Chat(ctx, e.translation, []llm.Message{
		{Role: "user", Content: prompt},
	}, nil)
	if err != nil {
		e.log.Error().Err(err).Msg("translation failed")
		return fmt.Sprintf("Sorry, I had trouble translating that: %v", err), err
	}

	translation := strings.TrimSpace(resp.Content)
	reply := fmt.Sprintf("Here's the translation to %s:\n\n**%s**\n\nWould you like me to break down any part of this?", target, translation)
	return reply, nil
}

// respond invokes the general reasoning model with a personalized system
// instruction plus the task prompt.
func (e *Executor) respond(ctx context.Context, task string, actx *assembler.Context, profile Profile) (string, error) {
	resp, err := e.client.Chat(ctx, e.reasoning, []llm.Message{
		{Role: "system", Content: systemPrompt(actx, profile)},
		{Role: "user", Content: task},
	}, nil)
	if err != nil {
		e.log.Error().Err(err).Msg("execution failed")
		return fmt.Sprintf("Sorry, I encountered an error: %v", err), err
	}
	return strings.TrimSpace(resp.Content), nil
}

// systemPrompt embeds the student's name, target language and memory
// snippets (only when non-empty).
func systemPrompt(actx *assembler.Context, profile Profile) string {
	name := profile.DisplayName
	if name == "" {
		name = "Student"
	}
	target := profile.TargetLanguage
	if target == "" {
		target = "Spanish"
	}

	var memoryBlock string
	if actx != nil && len(actx.Memories) > 0 {
		var b strings.Builder
		b.WriteString("Relevant memories about the user:\n")
		for _, mem := range actx.Memories {
			fmt.Fprintf(&b, "- %s\n", mem)
		}
		memoryBlock = b.String()
	}

	return fmt.Sprintf(`You are a friendly language tutor helping %s learn %s.

%s
Be warm, encouraging, and practical. Keep responses concise but helpful.`, name, target, memoryBlock)
}

func teachTask(decision router.Decision, message string, profile Profile) string {
	topic := decision.Arg("topic")
	if topic == "" {
		topic = message
	}
	lang := decision.Arg("language")
	if lang == "" {
		lang = profile.TargetLanguage
	}

	return fmt.Sprintf(`Teach about: %s in %s

Include:
1. The word/phrase with pronunciation
2. Meaning and usage
3. 1-2 example sentences
4. A quick tip

Keep it concise and engaging.`, topic, lang)
}

func exerciseTask(decision router.Decision, profile Profile) string {
	lang := decision.Arg("language")
	if lang == "" {
		lang = profile.TargetLanguage
	}
	difficulty := decision.Arg("difficulty")
	if difficulty == "" {
		difficulty = "beginner"
	}

	return fmt.Sprintf(`Create a quick %s %s exercise.

- 3 questions max
- Include answer key
- Be encouraging`, difficulty, lang)
}

func chatTask(message string, actx *assembler.Context) string {
	var transcript string
	if actx != nil && len(actx.RecentHistory) > 0 {
		lines := make([]string, 0, len(actx.RecentHistory))
		for _, msg := range actx.RecentHistory {
			content := msg.Content
			// Rune-based so truncation never splits a multibyte character.
			if runes := []rune(content); len(runes) > maxTranscriptChars {
				content = string(runes[:maxTranscriptChars])
			}
			lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, content))
		}
		transcript = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`Student says: "%s"

%s

Respond naturally as their tutor. Be friendly and helpful.`, message, transcript)
}
