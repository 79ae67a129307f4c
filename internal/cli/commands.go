package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/akshsgaur/translator-agent/internal/config"
	"github.com/akshsgaur/translator-agent/internal/conversation"
	"github.com/akshsgaur/translator-agent/internal/progress"
	"github.com/akshsgaur/translator-agent/internal/tutor"
)

// handleCommand runs a slash command. Returns false when the REPL
// should exit.
func (s *session) handleCommand(input string) bool {
	name, arg := splitCommand(input)

	switch name {
	case "/help":
		printHelp()

	case "/exit", "/quit", "/q":
		fmt.Printf("%sHasta luego!%s\n", colorCyan, colorReset)
		return false

	case "/new":
		conv, err := s.tutor.NewConversation()
		if err != nil {
			s.fail("Failed to create conversation", err)
			return true
		}
		s.conversationID = conv.ID
		fmt.Printf("%sStarted conversation %s%s\n", colorGreen, conv.ID, colorReset)

	case "/list":
		summaries, err := s.tutor.ListConversations()
		if err != nil {
			s.fail("Failed to list conversations", err)
			return true
		}
		fmt.Print(renderConversationList(summaries, s.conversationID, time.Now()))

	case "/switch":
		if arg == "" {
			fmt.Printf("%sUsage: /switch <id>%s\n", colorYellow, colorReset)
			return true
		}
		if _, err := s.tutor.GetConversation(arg); err != nil {
			s.fail("Failed to switch conversation", err)
			return true
		}
		s.conversationID = arg
		fmt.Printf("%sSwitched to %s%s\n", colorGreen, arg, colorReset)

	case "/clear":
		if err := s.tutor.ClearConversation(s.conversationID); err != nil {
			s.fail("Failed to clear conversation", err)
			return true
		}
		fmt.Printf("%sConversation cleared%s\n", colorGreen, colorReset)

	case "/rename":
		if arg == "" {
			fmt.Printf("%sUsage: /rename <title>%s\n", colorYellow, colorReset)
			return true
		}
		if err := s.tutor.RenameConversation(s.conversationID, arg); err != nil {
			s.fail("Failed to rename conversation", err)
			return true
		}
		fmt.Printf("%sRenamed to %q%s\n", colorGreen, arg, colorReset)

	case "/delete":
		if arg == "" {
			fmt.Printf("%sUsage: /delete <id>%s\n", colorYellow, colorReset)
			return true
		}
		if err := s.tutor.DeleteConversation(arg); err != nil {
			s.fail("Failed to delete conversation", err)
			return true
		}
		fmt.Printf("%sDeleted %s%s\n", colorGreen, arg, colorReset)
		if arg == s.conversationID {
			id, err := resumeOrCreate(s.tutor)
			if err != nil {
				s.fail("Failed to open a conversation", err)
				return true
			}
			s.conversationID = id
		}

	case "/progress":
		userID := s.tutor.Profile().UserID
		stats, err := s.progress.Stats(userID)
		if err != nil {
			s.fail("Failed to load progress", err)
			return true
		}
		recent, err := s.progress.RecentTranslations(userID, s.memoryWindow)
		if err != nil {
			s.fail("Failed to load translation history", err)
			return true
		}
		fmt.Print(renderProgress(stats))
		fmt.Print(renderRecentTranslations(recent))

	case "/config":
		cfg, err := config.Load()
		if err != nil {
			s.fail("Failed to load config", err)
			return true
		}
		fmt.Println(cfg.String())

	default:
		fmt.Printf("%sUnknown command: %s%s\n", colorYellow, name, colorReset)
		fmt.Println("Type /help for available commands")
	}
	return true
}

// splitCommand separates the command name from its argument, keeping
// spaces inside the argument (titles can contain them).
func splitCommand(input string) (string, string) {
	name, arg, found := strings.Cut(input, " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if !found {
		return name, ""
	}
	return name, strings.TrimSpace(arg)
}

// renderConversationList formats summaries banded by recency, marking
// the active conversation.
func renderConversationList(summaries []conversation.Summary, current string, now time.Time) string {
	if len(summaries) == 0 {
		return "No conversations yet. Say something to start one!\n"
	}

	var b strings.Builder
	for _, group := range tutor.GroupSummaries(summaries, now) {
		fmt.Fprintf(&b, "%s:\n", group.Label)
		for _, s := range group.Summaries {
			marker := " "
			if s.ID == current {
				marker = "*"
			}
			fmt.Fprintf(&b, " %s %s  %s (%d messages)\n", marker, s.ID, s.Title, s.MessageCount)
		}
	}
	return b.String()
}

func (s *session) fail(msg string, err error) {
	fmt.Printf("%s%s: %v%s\n", colorRed, msg, err, colorReset)
}

// renderProgress formats per-language activity stats.
func renderProgress(stats []progress.LanguageStats) string {
	if len(stats) == 0 {
		return "No activity recorded yet. Try asking for a translation or an exercise!\n"
	}

	var b strings.Builder
	b.WriteString("Learning progress:\n")
	for _, stat := range stats {
		fmt.Fprintf(&b, "  %s: %d translations, %d exercises (last active %s)\n",
			stat.Language, stat.Translations, stat.Exercises,
			stat.LastActivity.Format("2006-01-02"))
	}
	return b.String()
}

// renderRecentTranslations formats the newest-first translation
// history shown under the per-language stats.
func renderRecentTranslations(events []progress.TranslationEvent) string {
	if len(events) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Recent translations:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "  %s -> %s (%s)\n",
			ev.Text, ev.TargetLanguage, ev.CreatedAt.Format("2006-01-02"))
	}
	return b.String()
}

func printHelp() {
	fmt.Printf(`
%sLanguage Tutor Help%s

%sCommands:%s
  /help            - Show this help message
  /new             - Start a new conversation
  /list            - List conversations
  /switch <id>     - Switch to another conversation
  /clear           - Clear the current conversation
  /rename <title>  - Rename the current conversation
  /delete <id>     - Delete a conversation
  /progress        - Show learning progress
  /config          - Show current configuration
  /exit            - Quit

%sExamples:%s
  "translate good morning to French"
  "teach me how to order coffee in Spanish"
  "give me a beginner French exercise"

`, colorCyan, colorReset, colorYellow, colorReset, colorYellow, colorReset)
}
