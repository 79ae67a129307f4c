// Package router classifies a user message into one of the fixed tutor
// actions using a fast tool-routing model. Routing never fails a turn:
// every failure mode degrades to the chat action.
package router

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/akshsgaur/translator-agent/internal/llm"
)

// Action is a classified user intent.
type Action string

const (
	ActionTranslate Action = "translate"
	ActionTeach     Action = "teach"
	ActionExercise  Action = "exercise"
	ActionChat      Action = "chat"
)

// Decision is the routing outcome for one message. It is computed per
// turn and never persisted.
type Decision struct {
	Action Action
	Args   map[string]any
}

// Arg returns the named string argument, or "" when absent or not a string.
func (d Decision) Arg(key string) string {
	if v, ok := d.Args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func chatFallback() Decision {
	return Decision{Action: ActionChat, Args: map[string]any{}}
}

// ChatClient is the slice of the LLM client the router needs.
type ChatClient interface {
	Chat(ctx context.Context, model llm.Model, messages []llm.Message, tools []llm.Tool) (*llm.ChatResponse, error)
}

// Router routes messages with a single, non-retried model call.
type Router struct {
	client ChatClient
	model  llm.Model
	log    zerolog.Logger
}

// New creates a Router using the given fast classification model.
func New(client ChatClient, model llm.Model, log zerolog.Logger) *Router {
	return &Router{
		client: client,
		model:  model,
		log:    log.With().Str("component", "router").Logger(),
	}
}

// Route classifies message. It never returns an error: transport
// failures, plain-text replies and unknown tool names all map to the
// chat action with empty arguments.
func (r *Router) Route(ctx context.Context, message string) Decision {
	resp, err := r.client.Chat(ctx, r.model, []llm.Message{
		{Role: "user", Content: message},
	}, tutorTools)
	if err != nil {
		r.log.Warn().Err(err).Msg("routing failed, falling back to chat")
		return chatFallback()
	}

	if len(resp.ToolCalls) == 0 {
		// The model answered in plain text; treat as general conversation.
		return chatFallback()
	}

	call := resp.ToolCalls[0].Function
	action, ok := knownAction(call.Name)
	if !ok {
		r.log.Warn().Str("tool", call.Name).Msg("unknown tool name, falling back to chat")
		return chatFallback()
	}

	args := map[string]any{}
	if call.Arguments != "" {
		// A malformed argument payload degrades to empty arguments
		// rather than failing the turn.
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			r.log.Warn().Err(err).Str("tool", call.Name).Msg("unparseable tool arguments")
			args = map[string]any{}
		}
	}

	r.log.Debug().Str("action", string(action)).Interface("args", args).Msg("routed message")
	return Decision{Action: action, Args: args}
}

func knownAction(name string) (Action, bool) {
	switch Action(name) {
	case ActionTranslate, ActionTeach, ActionExercise, ActionChat:
		return Action(name), true
	default:
		return "", false
	}
}
