package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/akshsgaur/translator-agent/internal/assembler"
	"github.com/akshsgaur/translator-agent/internal/conversation"
	"github.com/akshsgaur/translator-agent/internal/llm"
	"github.com/akshsgaur/translator-agent/internal/router"
)

type fakeChatClient struct {
	reply     string
	err       error
	lastModel llm.Model
	lastMsgs  []llm.Message
}

func (f *fakeChatClient) Chat(ctx context.Context, model llm.Model, messages []llm.Message, tools []llm.Tool) (*llm.ChatResponse, error) {
	f.lastModel = model
	f.lastMsgs = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.reply}, nil
}

var (
	reasoningModel   = llm.Model{Name: "ministral-3:3b", Temperature: 0.6}
	translationModel = llm.Model{Name: "translategemma:4b", Temperature: 0.1}
)

func newTestExecutor(client ChatClient) *Executor {
	return New(client, reasoningModel, translationModel, zerolog.Nop())
}

func testProfile() Profile {
	return Profile{
		UserID:         "maria",
		DisplayName:    "Maria",
		TargetLanguage: "French",
		CreatedAt:      time.Now(),
	}
}

func TestExecuteTranslate(t *testing.T) {
	client := &fakeChatClient{reply: "bonjour"}
	exec := newTestExecutor(client)

	decision := router.Decision{
		Action: router.ActionTranslate,
		Args:   map[string]any{"text": "hello", "target_language": "French"},
	}
	reply, err := exec.Execute(context.Background(), decision, "translate hello to French", nil, testProfile())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	want := "Here's the translation to French:\n\n**bonjour**\n\nWould you like me to break down any part of this?"
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if client.lastModel.Name != translationModel.Name {
		t.Errorf("used model %q, want %q", client.lastModel.Name, translationModel.Name)
	}
	if len(client.lastMsgs) != 1 || client.lastMsgs[0].Content != "Translate to French: hello" {
		t.Errorf("unexpected prompt messages: %+v", client.lastMsgs)
	}
}

func TestExecuteTranslateDefaultsFromProfileAndMessage(t *testing.T) {
	client := &fakeChatClient{reply: "salut"}
	exec := newTestExecutor(client)

	decision := router.Decision{Action: router.ActionTranslate, Args: map[string]any{}}
	_, err := exec.Execute(context.Background(), decision, "hey there", nil, testProfile())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if got := client.lastMsgs[0].Content; got != "Translate to French: hey there" {
		t.Errorf("prompt = %q", got)
	}
}

func TestExecuteTranslateFailureReturnsApology(t *testing.T) {
	client := &fakeChatClient{err: errors.New("model unavailable")}
	exec := newTestExecutor(client)

	decision := router.Decision{Action: router.ActionTranslate, Args: map[string]any{"text": "hello"}}
	reply, err := exec.Execute(context.Background(), decision, "hello", nil, testProfile())
	if err == nil {
		t.Fatal("expected underlying error to be reported")
	}
	if !strings.HasPrefix(reply, "Sorry, I had trouble translating that:") {
		t.Errorf("reply = %q, want translation apology", reply)
	}
	if !strings.Contains(reply, "model unavailable") {
		t.Errorf("apology should embed error detail, got %q", reply)
	}
}

func TestExecuteTeachPrompt(t *testing.T) {
	client := &fakeChatClient{reply: "lesson"}
	exec := newTestExecutor(client)

	decision := router.Decision{
		Action: router.ActionTeach,
		Args:   map[string]any{"topic": "greetings"},
	}
	actx := &assembler.Context{Memories: []string{"prefers short examples"}}
	reply, err := exec.Execute(context.Background(), decision, "teach me greetings", actx, testProfile())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if reply != "lesson" {
		t.Errorf("reply = %q", reply)
	}
	if client.lastModel.Name != reasoningModel.Name {
		t.Errorf("used model %q, want %q", client.lastModel.Name, reasoningModel.Name)
	}

	system := client.lastMsgs[0]
	if system.Role != "system" {
		t.Fatalf("first message role = %q, want system", system.Role)
	}
	if !strings.Contains(system.Content, "helping Maria learn French") {
		t.Errorf("system prompt missing profile: %q", system.Content)
	}
	if !strings.Contains(system.Content, "- prefers short examples") {
		t.Errorf("system prompt missing memory snippet: %q", system.Content)
	}

	task := client.lastMsgs[1].Content
	if !strings.Contains(task, "Teach about: greetings in French") {
		t.Errorf("task prompt = %q", task)
	}
}

func TestExecuteExercisePromptDefaults(t *testing.T) {
	client := &fakeChatClient{reply: "quiz"}
	exec := newTestExecutor(client)

	decision := router.Decision{Action: router.ActionExercise, Args: map[string]any{}}
	_, err := exec.Execute(context.Background(), decision, "quiz me", nil, testProfile())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	task := client.lastMsgs[1].Content
	if !strings.Contains(task, "Create a quick beginner French exercise.") {
		t.Errorf("task prompt = %q", task)
	}
}

func TestExecuteChatIncludesTranscript(t *testing.T) {
	client := &fakeChatClient{reply: "hi!"}
	exec := newTestExecutor(client)

	actx := &assembler.Context{
		RecentHistory: []conversation.Message{
			{Role: conversation.RoleUser, Content: "hola"},
			{Role: conversation.RoleAssistant, Content: strings.Repeat("x", 300)},
		},
	}
	decision := router.Decision{Action: router.ActionChat, Args: map[string]any{}}
	_, err := exec.Execute(context.Background(), decision, "how are you?", actx, testProfile())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	task := client.lastMsgs[1].Content
	if !strings.Contains(task, `Student says: "how are you?"`) {
		t.Errorf("task prompt missing student message: %q", task)
	}
	if !strings.Contains(task, "user: hola") {
		t.Errorf("task prompt missing transcript line: %q", task)
	}
	if strings.Contains(task, strings.Repeat("x", 201)) {
		t.Error("transcript lines should be truncated to 200 chars")
	}
}

func TestExecuteChatTranscriptTruncationKeepsValidUTF8(t *testing.T) {
	client := &fakeChatClient{reply: "ok"}
	exec := newTestExecutor(client)

	actx := &assembler.Context{
		RecentHistory: []conversation.Message{
			{Role: conversation.RoleUser, Content: strings.Repeat("é", 250)},
		},
	}
	decision := router.Decision{Action: router.ActionChat, Args: map[string]any{}}
	_, err := exec.Execute(context.Background(), decision, "hola", actx, testProfile())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	task := client.lastMsgs[1].Content
	if !utf8.ValidString(task) {
		t.Error("transcript truncation produced invalid UTF-8")
	}
	if !strings.Contains(task, "user: "+strings.Repeat("é", 200)) {
		t.Errorf("transcript should keep 200 runes: %q", task)
	}
	if strings.Contains(task, strings.Repeat("é", 201)) {
		t.Error("transcript lines should be truncated to 200 runes")
	}
}

func TestExecuteFailureReturnsGenericApology(t *testing.T) {
	client := &fakeChatClient{err: errors.New("connection refused")}
	exec := newTestExecutor(client)

	decision := router.Decision{Action: router.ActionChat, Args: map[string]any{}}
	reply, err := exec.Execute(context.Background(), decision, "hello", nil, testProfile())
	if err == nil {
		t.Fatal("expected underlying error to be reported")
	}
	if !strings.HasPrefix(reply, "Sorry, I encountered an error:") {
		t.Errorf("reply = %q, want generic apology", reply)
	}
	if !strings.Contains(reply, "connection refused") {
		t.Errorf("apology should embed error detail, got %q", reply)
	}
}

func TestSystemPromptOmitsMemoryBlockWhenEmpty(t *testing.T) {
	got := systemPrompt(&assembler.Context{}, testProfile())
	if strings.Contains(got, "Relevant memories") {
		t.Errorf("memory block should be omitted when empty: %q", got)
	}
}

func TestSystemPromptDefaults(t *testing.T) {
	got := systemPrompt(nil, Profile{})
	if !strings.Contains(got, "helping Student learn Spanish") {
		t.Errorf("system prompt defaults wrong: %q", got)
	}
}

func TestCategory(t *testing.T) {
	cases := map[router.Action]string{
		router.ActionTranslate: CategoryTranslation,
		router.ActionTeach:     CategoryTeaching,
		router.ActionExercise:  CategoryExerciseCompletion,
		router.ActionChat:      CategoryGeneral,
	}
	for action, want := range cases {
		if got := Category(action); got != want {
			t.Errorf("Category(%s) = %q, want %q", action, got, want)
		}
	}
}
