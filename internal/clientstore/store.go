package clientstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/saathichat/saathi-backend/internal/logger"
)

const (
	greetingText = "Hi! Main yahan hoon, baat karte hain? &&&Kuch bhi pooch lo, jo mann mein aaye."
	errorBubble  = "Arre yaar, kuch problem ho gayi. Thodi der baad try karna?"
)

// Bubble is a single rendered chat bubble on the client.
type Bubble struct {
	ID        string
	Role      string
	Text      string
	CreatedAt time.Time
	// Local marks bubbles created on-device that the server has not
	// confirmed yet (optimistic sends, greeting, error notices).
	Local bool
}

// Chat is the client-side view of one persona conversation.
type Chat struct {
	PersonaID string
	ThreadID  string
	Bubbles   []Bubble

	total           int64
	firstLoadedPage int
	loaded          bool
}

// Config tunes the reconciliation behavior.
type Config struct {
	// Tolerance is the clock skew allowed when matching a local bubble
	// against its server-persisted copy.
	Tolerance time.Duration
	// RetainAge keeps unmatched local bubbles younger than this across a
	// server reload, since their writes may still be in flight.
	RetainAge time.Duration
	// PrefixLen is how many characters of normalized text feed the match key.
	PrefixLen int
	PageSize  int
}

func DefaultConfig() Config {
	return Config{
		Tolerance: 10 * time.Second,
		RetainAge: 2 * time.Minute,
		PrefixLen: 200,
		PageSize:  100,
	}
}

// Store owns all client-side chats and reconciles them against the server.
type Store struct {
	mu    sync.Mutex
	log   *logger.Logger
	api   API
	cfg   Config
	chats map[string]*Chat

	now     func() time.Time
	localID int
}

func NewStore(log *logger.Logger, api API, cfg Config) *Store {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultConfig().Tolerance
	}
	if cfg.RetainAge <= 0 {
		cfg.RetainAge = DefaultConfig().RetainAge
	}
	if cfg.PrefixLen <= 0 {
		cfg.PrefixLen = DefaultConfig().PrefixLen
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	return &Store{
		log:   log.With("store", "ClientStore"),
		api:   api,
		cfg:   cfg,
		chats: make(map[string]*Chat),
		now:   time.Now,
	}
}

// StartChat returns the chat for a persona, seeding a greeting bubble when the
// chat is brand new on this device.
func (s *Store) StartChat(personaID string) *Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat := s.chat(personaID)
	if len(chat.Bubbles) == 0 {
		for _, part := range strings.Split(greetingText, "&&&") {
			chat.Bubbles = append(chat.Bubbles, Bubble{
				ID:        s.nextLocalID(),
				Role:      "bot",
				Text:      strings.TrimSpace(part),
				CreatedAt: s.now(),
				Local:     true,
			})
		}
	}
	return s.snapshot(chat)
}

// Chat returns a copy of the current chat state, or nil if never started.
func (s *Store) Chat(personaID string) *Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[personaID]
	if !ok {
		return nil
	}
	return s.snapshot(chat)
}

// SendUserMessage appends the user's bubble immediately, then calls the
// backend. Bot replies land as confirmed bubbles; a failure appends an error
// notice instead. The optimistic user bubble is never rolled back.
func (s *Store) SendUserMessage(ctx context.Context, personaID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("message text is empty")
	}

	s.mu.Lock()
	chat := s.chat(personaID)
	chat.Bubbles = append(chat.Bubbles, Bubble{
		ID:        s.nextLocalID(),
		Role:      "user",
		Text:      text,
		CreatedAt: s.now(),
		Local:     true,
	})
	s.mu.Unlock()

	resp, err := s.api.SendTurn(ctx, personaID, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	chat = s.chat(personaID)
	if err != nil {
		s.log.Warn("Send failed, surfacing error bubble", "personaId", personaID, "error", err)
		chat.Bubbles = append(chat.Bubbles, Bubble{
			ID:        s.nextLocalID(),
			Role:      "bot",
			Text:      errorBubble,
			CreatedAt: s.now(),
			Local:     true,
		})
		return err
	}

	chat.ThreadID = resp.ThreadID
	if len(resp.Messages) > 0 {
		for _, m := range resp.Messages {
			chat.Bubbles = append(chat.Bubbles, fromRecord(m))
		}
	} else {
		// Degraded persistence: the server replied but could not store the
		// bubbles, so only reply texts are available.
		for _, reply := range resp.Replies {
			chat.Bubbles = append(chat.Bubbles, Bubble{
				ID:        s.nextLocalID(),
				Role:      "bot",
				Text:      reply,
				CreatedAt: s.now(),
				Local:     true,
			})
		}
	}
	return nil
}

// LoadFromServer fetches the newest page of history and merges it with local
// state. Server bubbles win; unmatched local bubbles survive only while young
// enough that their write may still be in flight.
func (s *Store) LoadFromServer(ctx context.Context, personaID string) error {
	probe, err := s.api.GetMessages(ctx, personaID, 0, s.cfg.PageSize)
	if err != nil {
		return err
	}

	lastPage := 0
	if probe.Total > 0 {
		lastPage = int((probe.Total - 1) / int64(s.cfg.PageSize))
	}
	page := probe
	if lastPage > 0 {
		if page, err = s.api.GetMessages(ctx, personaID, lastPage, s.cfg.PageSize); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	chat := s.chat(personaID)
	if page.Thread != nil {
		chat.ThreadID = page.Thread.ID
	}
	chat.total = page.Total
	chat.firstLoadedPage = lastPage
	chat.loaded = true
	chat.Bubbles = s.merge(chat.Bubbles, page.Messages)
	return nil
}

// LoadOlder fetches the page before the oldest one loaded and prepends it,
// leaving every already-loaded bubble in place so the scroll anchor holds.
// Returns the number of bubbles added; zero means history is exhausted.
func (s *Store) LoadOlder(ctx context.Context, personaID string) (int, error) {
	s.mu.Lock()
	chat := s.chat(personaID)
	if !chat.loaded || chat.firstLoadedPage == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	page := chat.firstLoadedPage - 1
	s.mu.Unlock()

	resp, err := s.api.GetMessages(ctx, personaID, page, s.cfg.PageSize)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	chat = s.chat(personaID)
	older := make([]Bubble, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		older = append(older, fromRecord(m))
	}
	chat.Bubbles = append(older, chat.Bubbles...)
	chat.firstLoadedPage = page
	chat.total = resp.Total
	return len(older), nil
}

func (s *Store) chat(personaID string) *Chat {
	chat, ok := s.chats[personaID]
	if !ok {
		chat = &Chat{PersonaID: personaID}
		s.chats[personaID] = chat
	}
	return chat
}

func (s *Store) snapshot(chat *Chat) *Chat {
	out := *chat
	out.Bubbles = append([]Bubble(nil), chat.Bubbles...)
	return &out
}

func (s *Store) nextLocalID() string {
	s.localID++
	return fmt.Sprintf("local-%d", s.localID)
}

// merge folds server messages and local bubbles into one timeline. A local
// bubble matching a server message by role, text prefix, and nearby timestamp
// is considered synced and drops in favor of the server copy.
func (s *Store) merge(local []Bubble, server []MessageRecord) []Bubble {
	merged := make([]Bubble, 0, len(server)+len(local))
	for _, m := range server {
		merged = append(merged, fromRecord(m))
	}

	now := s.now()
	for _, b := range local {
		if !b.Local {
			continue
		}
		if s.matchesAny(b, server) {
			continue
		}
		if now.Sub(b.CreatedAt) > s.cfg.RetainAge {
			continue
		}
		merged = append(merged, b)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged
}

func (s *Store) matchesAny(b Bubble, server []MessageRecord) bool {
	key := contentKey(b.Text, s.cfg.PrefixLen)
	for _, m := range server {
		if m.Role != b.Role {
			continue
		}
		if contentKey(m.Text, s.cfg.PrefixLen) != key {
			continue
		}
		diff := b.CreatedAt.Sub(m.CreatedAt)
		if diff < 0 {
			diff = -diff
		}
		if diff <= s.cfg.Tolerance {
			return true
		}
	}
	return false
}

func contentKey(text string, prefixLen int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	runes := []rune(normalized)
	if len(runes) > prefixLen {
		runes = runes[:prefixLen]
	}
	return string(runes)
}

func fromRecord(m MessageRecord) Bubble {
	return Bubble{
		ID:        m.ID,
		Role:      m.Role,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
