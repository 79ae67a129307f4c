package conversation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultTitle = "New Chat"

// Store owns the conversations directory. All mutations are
// read-modify-write on the whole record, serialized per conversation id
// and written via temp-file-then-rename so a crash never leaves a
// half-written record.
type Store struct {
	dir string
	log zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates (or opens) the store rooted at dataDir/conversations.
func NewStore(dataDir string, log zerolog.Logger) (*Store, error) {
	dir := filepath.Join(dataDir, "conversations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newStoreError("NewStore", dir, err)
	}
	return &Store{
		dir:   dir,
		log:   log.With().Str("component", "conversation-store").Logger(),
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// lockFor returns the mutex serializing writers of one conversation.
func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, "conv_"+id+".json")
}

// Create allocates a new empty conversation and returns its id.
func (s *Store) Create() (string, error) {
	id := uuid.New().String()[:8]
	now := time.Now()
	conv := &Conversation{
		ID:        id,
		Title:     defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := s.write("Create", conv); err != nil {
		return "", err
	}
	s.log.Debug().Str("conversation", id).Msg("created conversation")
	return id, nil
}

// AppendMessage appends a message and returns its id. Fails with
// ErrNotFound if the conversation id is unknown.
func (s *Store) AppendMessage(id, role, content string) (string, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.read("AppendMessage", id)
	if err != nil {
		return "", err
	}

	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.Timestamp

	if err := s.write("AppendMessage", conv); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// Get returns the full conversation record.
func (s *Store) Get(id string) (*Conversation, error) {
	return s.read("Get", id)
}

// Load returns the ordered message sequence. An existing conversation
// with no messages yields an empty (non-nil) slice.
func (s *Store) Load(id string) ([]Message, error) {
	conv, err := s.read("Load", id)
	if err != nil {
		return nil, err
	}
	if conv.Messages == nil {
		return []Message{}, nil
	}
	return conv.Messages, nil
}

// ListAll returns summaries of every conversation, most recently
// updated first. Unreadable files are skipped with a warning.
func (s *Store) ListAll() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, newStoreError("ListAll", s.dir, err)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "conv_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, "conv_"), ".json")
		conv, err := s.read("ListAll", id)
		if err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("skipping unreadable conversation file")
			continue
		}
		summaries = append(summaries, Summary{
			ID:           conv.ID,
			Title:        conv.Title,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// DeleteMessage removes exactly one message by id. Returns false (not
// an error) when the message id is absent.
func (s *Store) DeleteMessage(id, messageID string) (bool, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.read("DeleteMessage", id)
	if err != nil {
		return false, err
	}

	kept := conv.Messages[:0]
	removed := false
	for _, msg := range conv.Messages {
		if msg.ID == messageID && !removed {
			removed = true
			continue
		}
		kept = append(kept, msg)
	}
	if !removed {
		return false, nil
	}

	conv.Messages = kept
	conv.UpdatedAt = time.Now()
	if err := s.write("DeleteMessage", conv); err != nil {
		return false, err
	}
	return true, nil
}

// Clear empties the message sequence, preserving the conversation's
// identity and title.
func (s *Store) Clear(id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.read("Clear", id)
	if err != nil {
		return err
	}
	conv.Messages = []Message{}
	conv.UpdatedAt = time.Now()
	return s.write("Clear", conv)
}

// Delete removes the conversation entirely.
func (s *Store) Delete(id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	path := s.path(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return newStoreError("Delete", path, ErrNotFound)
		}
		return newStoreError("Delete", path, err)
	}

	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	s.log.Debug().Str("conversation", id).Msg("deleted conversation")
	return nil
}

// Rename updates the conversation title.
func (s *Store) Rename(id, title string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.read("Rename", id)
	if err != nil {
		return err
	}
	conv.Title = title
	conv.UpdatedAt = time.Now()
	return s.write("Rename", conv)
}

// read loads one conversation record. Callers that mutate must hold the
// per-conversation lock.
func (s *Store) read(op, id string) (*Conversation, error) {
	path := s.path(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newStoreError(op, path, ErrNotFound)
		}
		return nil, newStoreError(op, path, err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, newStoreError(op, path, err)
	}
	return &conv, nil
}

// write replaces the record atomically: serialize to a temp file in the
// same directory, then rename over the target.
func (s *Store) write(op string, conv *Conversation) error {
	path := s.path(conv.ID)
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return newStoreError(op, path, err)
	}

	tmp, err := os.CreateTemp(s.dir, "conv_*.tmp")
	if err != nil {
		return newStoreError(op, path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return newStoreError(op, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return newStoreError(op, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return newStoreError(op, path, err)
	}
	return nil
}
