// Package cli is the interactive terminal frontend for the tutor.
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/rs/zerolog"

	"github.com/akshsgaur/translator-agent/internal/assembler"
	"github.com/akshsgaur/translator-agent/internal/config"
	"github.com/akshsgaur/translator-agent/internal/conversation"
	"github.com/akshsgaur/translator-agent/internal/executor"
	"github.com/akshsgaur/translator-agent/internal/llm"
	"github.com/akshsgaur/translator-agent/internal/logger"
	"github.com/akshsgaur/translator-agent/internal/memoryindex"
	"github.com/akshsgaur/translator-agent/internal/memqueue"
	"github.com/akshsgaur/translator-agent/internal/progress"
	"github.com/akshsgaur/translator-agent/internal/router"
	"github.com/akshsgaur/translator-agent/internal/tutor"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// session holds the REPL state.
type session struct {
	tutor          *tutor.Tutor
	progress       *progress.Store
	conversationID string
	memoryWindow   int
	log            zerolog.Logger
}

// Run wires the pipeline from config and starts the interactive loop.
func Run(cfg *config.Config) error {
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		LogDir:     cfg.Log.Dir,
		ConsoleOut: cfg.Log.ConsoleOut,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	client := llm.New(
		cfg.Models.BaseURL,
		cfg.Models.APIKey,
		cfg.Models.MaxTokens,
		time.Duration(cfg.Models.TimeoutSeconds)*time.Second,
	)

	convStore, err := conversation.NewStore(cfg.Storage.DataDir, log)
	if err != nil {
		return fmt.Errorf("failed to initialize conversation store: %w", err)
	}

	// Memory is best-effort: without an embedding backend the tutor
	// still works, just without recall.
	var index *memoryindex.Index
	if cfg.Memory.Enabled {
		embed := memoryindex.NewOllamaEmbedding(cfg.Memory.EmbeddingModel, cfg.EmbeddingBaseURL())
		index, err = memoryindex.New(cfg.Storage.DataDir, embed, log)
		if err != nil {
			log.Warn().Err(err).Msg("memory index unavailable, continuing without recall")
			index = nil
		}
	}

	progressStore, err := progress.NewStore(filepath.Join(cfg.Storage.DataDir, "progress.db"))
	if err != nil {
		return fmt.Errorf("failed to initialize progress store: %w", err)
	}
	defer progressStore.Close()

	profilePath, err := config.ProfilePath()
	if err != nil {
		return err
	}
	profile, err := tutor.LoadProfile(profilePath)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	intentRouter := router.New(client, llm.Model{Name: cfg.Models.Router}, log)
	ctxAssembler := assembler.New(convStore, index, cfg.Context.HistoryWindow, cfg.Context.TopK, log)
	taskExecutor := executor.New(
		client,
		llm.Model{Name: cfg.Models.Reasoning, Temperature: cfg.Models.ReasoningTemperature},
		llm.Model{Name: cfg.Models.Translation, Temperature: cfg.Models.TranslationTemperature},
		log,
	)
	queue := memqueue.New(memqueue.Config{
		ErrorHandler: func(err error) {
			log.Error().Err(err).Msg("background memory job failed")
		},
	}, log)

	tut := tutor.New(convStore, intentRouter, ctxAssembler, taskExecutor, index, progressStore, queue, profile, log)
	defer tut.Close()

	conversationID, err := resumeOrCreate(tut)
	if err != nil {
		return err
	}

	s := &session{
		tutor:          tut,
		progress:       progressStore,
		conversationID: conversationID,
		memoryWindow:   cfg.Context.MemoryWindow,
		log:            log,
	}
	s.printWelcome(profile)
	return s.loop()
}

// resumeOrCreate picks the most recently updated conversation, or
// starts a fresh one.
func resumeOrCreate(tut *tutor.Tutor) (string, error) {
	summaries, err := tut.ListConversations()
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(summaries) > 0 {
		return summaries[0].ID, nil
	}
	conv, err := tut.NewConversation()
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv.ID, nil
}

func (s *session) printWelcome(profile tutor.UserProfile) {
	fmt.Printf("\n%sLanguage Tutor v%s%s\n", colorCyan, Version, colorReset)
	fmt.Printf("Hi %s! Let's practice some %s.\n", profile.DisplayName, profile.TargetLanguage)
	fmt.Printf("%sType /help for commands, /exit to quit%s\n\n", colorGray, colorReset)
}

// loop reads one line at a time until /exit.
func (s *session) loop() error {
	for {
		input := strings.TrimSpace(prompt.Input(
			"You: ",
			completer,
			prompt.OptionPrefixTextColor(prompt.Green),
			prompt.OptionHistory(nil),
		))
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if !s.handleCommand(input) {
				return nil
			}
			continue
		}

		s.respond(input)
	}
}

func completer(d prompt.Document) []prompt.Suggest {
	if !strings.HasPrefix(d.TextBeforeCursor(), "/") {
		return nil
	}
	suggestions := []prompt.Suggest{
		{Text: "/new", Description: "Start a new conversation"},
		{Text: "/list", Description: "List conversations"},
		{Text: "/switch", Description: "Switch to a conversation by id"},
		{Text: "/clear", Description: "Clear the current conversation"},
		{Text: "/rename", Description: "Rename the current conversation"},
		{Text: "/delete", Description: "Delete a conversation by id"},
		{Text: "/progress", Description: "Show learning progress"},
		{Text: "/help", Description: "Show help"},
		{Text: "/exit", Description: "Quit"},
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

// respond runs one turn and prints the reply.
func (s *session) respond(input string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reply, err := s.tutor.HandleTurn(ctx, s.conversationID, input)
	if err != nil {
		fmt.Printf("\n%sError: %v%s\n\n", colorRed, err, colorReset)
		return
	}
	fmt.Printf("\n%sTutor: %s%s\n\n", colorBlue, colorReset, reply)
}
