package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/apperr"
	"github.com/saathichat/saathi-backend/internal/bubble"
	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/repos"
	"github.com/saathichat/saathi-backend/internal/types"
)

// safetyWarning is the single bubble shown when the provider blocks a turn on
// content-policy grounds. Not an error path: a defined product behavior.
const safetyWarning = "⚠️ This message was blocked for safety reasons."

// emptyFallback covers candidates that produced no text for any reason other
// than a token-limit cutoff.
const emptyFallback = "⚠️ I couldn't come up with a reply for that one. Try again?"

// truncationFallbacks is the pool drawn from when the reply was cut off at the
// token limit. Picked pseudo-randomly so repeated truncations don't read like a
// stuck bot.
var truncationFallbacks = []string{
	"Arre yaar, maine itna bol diya ki system ne cut kar diya! 😅 Baat adhuri reh gayi, phir se try karo?",
	"Oops! Main itna excited ho gaya ki response limit cross ho gaya 😂 Dobara bolo, abhi short mein reply dunga!",
	"Haha, maine itna bolna chaha ki token limit hit ho gayi! 🎉 Chalo, ek aur try?",
	"System ne kaha: Bhai, itna mat bol! 😂 Token limit hit ho gayi. Dobara try?",
	"Main itna bol gaya ki response ka size limit cross ho gaya! 🚀 Chalo, phir se shuru karte hain?",
}

type ChatConfig struct {
	HistoryWindow   int
	CandidateCount  int
	Temperature     float32
	MaxOutputTokens int
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		HistoryWindow:   10,
		CandidateCount:  2,
		Temperature:     0.9,
		MaxOutputTokens: 2048,
	}
}

type TurnResult struct {
	ThreadID uuid.UUID        `json:"threadId"`
	Replies  []string         `json:"replies"`
	Messages []*types.Message `json:"messages"`
}

type HistoryResult struct {
	Thread   *types.Thread    `json:"thread"`
	Messages []*types.Message `json:"messages"`
	Total    int64            `json:"total"`
}

type ChatService interface {
	SendTurn(ctx context.Context, phone, personaID, text string) (*TurnResult, error)
	History(ctx context.Context, phone, personaID string, page, pageSize int) (*HistoryResult, error)
}

type chatService struct {
	db             *gorm.DB
	log            *logger.Logger
	threadRepo     repos.ThreadRepo
	messageRepo    repos.MessageRepo
	personaRepo    repos.PersonaRepo
	personaService PersonaService
	completion     CompletionClient
	cfg            ChatConfig
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	threadRepo repos.ThreadRepo,
	messageRepo repos.MessageRepo,
	personaRepo repos.PersonaRepo,
	personaService PersonaService,
	completion CompletionClient,
	cfg ChatConfig,
) ChatService {
	serviceLog := log.With("service", "ChatService")
	return &chatService{
		db:             db,
		log:            serviceLog,
		threadRepo:     threadRepo,
		messageRepo:    messageRepo,
		personaRepo:    personaRepo,
		personaService: personaService,
		completion:     completion,
		cfg:            cfg,
	}
}

// SendTurn runs one conversation turn: resolve thread and persona in parallel,
// fetch recent history and build the persona instruction in parallel, persist
// the inbound message without blocking, call the completion service, interpret
// the outcome, and persist the reply bubbles concurrently.
func (cs *chatService) SendTurn(ctx context.Context, phone, personaID, text string) (*TurnResult, error) {
	var (
		thread  *types.Thread
		created bool
		persona *types.Persona
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, c, err := cs.threadRepo.GetOrCreate(gctx, nil, phone, personaID)
		if err != nil {
			return fmt.Errorf("failed to resolve thread: %w", err)
		}
		thread, created = t, c
		return nil
	})
	g.Go(func() error {
		p, err := cs.personaRepo.GetByID(gctx, nil, personaID)
		if err != nil {
			return fmt.Errorf("failed to load persona: %w", err)
		}
		if p == nil {
			return fmt.Errorf("%w: persona %s", apperr.ErrNotFound, personaID)
		}
		persona = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A freshly created thread is by definition a first contact; the context
	// build can run against that assumption while history loads.
	isFirst := created

	var (
		history      []*types.Message
		systemPrompt string
	)
	g2, g2ctx := errgroup.WithContext(ctx)
	g2.Go(func() error {
		h, err := cs.messageRepo.ListRecent(g2ctx, nil, thread.ID, cs.cfg.HistoryWindow)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		history = h
		return nil
	})
	g2.Go(func() error {
		systemPrompt = cs.personaService.BuildContext(persona, phone, isFirst)
		return nil
	})
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	// An old thread with no surviving messages is still a first contact.
	// Rebuilding the instruction is a pure string operation, so the late
	// correction costs nothing.
	if !isFirst && len(history) == 0 {
		isFirst = true
		systemPrompt = cs.personaService.BuildContext(persona, phone, true)
	}

	// Keyed on summary absence, not first contact: a failed earlier attempt or
	// an edited profile document that cleared the summary heals on any turn. The
	// guard inside makes this a no-op when a summary already exists.
	cs.summarizeInBackground(ctx, persona)

	// The response never waits on persisting the inbound message. A crash in
	// this window loses one user message; accepted for a chat product.
	cs.appendInBackground(ctx, thread.ID, types.RoleUser, text)

	turns := make([]CompletionTurn, 0, len(history)+1)
	for _, m := range history {
		turns = append(turns, CompletionTurn{Role: m.Role, Text: m.Text})
	}
	turns = append(turns, CompletionTurn{Role: types.RoleUser, Text: text})

	result, err := cs.completion.Complete(ctx, CompletionRequest{
		System:         systemPrompt,
		Turns:          turns,
		CandidateCount: cs.cfg.CandidateCount,
		Temperature:    cs.cfg.Temperature,
		MaxTokens:      cs.cfg.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	if result.SafetyBlocked {
		return cs.respondFallback(ctx, thread.ID, safetyWarning)
	}

	// Deterministic by index: the first candidate with text wins. No content
	// scoring.
	chosen := ""
	for _, c := range result.Candidates {
		if c.Text != "" {
			chosen = c.Text
			break
		}
	}

	if chosen == "" {
		if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == FinishLength {
			pick := truncationFallbacks[rand.Intn(len(truncationFallbacks))]
			return cs.respondFallback(ctx, thread.ID, pick)
		}
		return cs.respondFallback(ctx, thread.ID, emptyFallback)
	}

	bubbles := bubble.Segment(chosen)
	if len(bubbles) == 0 {
		// Delimiter-only completions carry no renderable text.
		return cs.respondFallback(ctx, thread.ID, emptyFallback)
	}
	messages := cs.persistBubbles(ctx, thread.ID, bubbles)
	cs.touchInBackground(ctx, thread.ID)

	return &TurnResult{ThreadID: thread.ID, Replies: bubbles, Messages: messages}, nil
}

func (cs *chatService) History(ctx context.Context, phone, personaID string, page, pageSize int) (*HistoryResult, error) {
	thread, err := cs.threadRepo.Get(ctx, nil, phone, personaID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread: %w", err)
	}
	if thread == nil {
		// No contact yet between this user and persona. Not an error.
		return &HistoryResult{Thread: nil, Messages: []*types.Message{}, Total: 0}, nil
	}
	messages, total, err := cs.messageRepo.ListPage(ctx, nil, thread.ID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return &HistoryResult{Thread: thread, Messages: messages, Total: total}, nil
}

// respondFallback persists a single fixed bubble and returns it as the whole
// reply. Used for the safety-block, truncation, and empty-candidate outcomes.
func (cs *chatService) respondFallback(ctx context.Context, threadID uuid.UUID, text string) (*TurnResult, error) {
	messages := cs.persistBubbles(ctx, threadID, []string{text})
	cs.touchInBackground(ctx, threadID)
	return &TurnResult{ThreadID: threadID, Replies: []string{text}, Messages: messages}, nil
}

// persistBubbles inserts all bubbles concurrently. Order among the inserts is
// irrelevant: reads re-sort by created_at. A failed insert is degraded
// persistence, not a failed turn — the reply text is already computed.
func (cs *chatService) persistBubbles(ctx context.Context, threadID uuid.UUID, bubbles []string) []*types.Message {
	inserted := make([]*types.Message, len(bubbles))
	var g errgroup.Group
	for i, text := range bubbles {
		i, text := i, text
		g.Go(func() error {
			msg, err := cs.messageRepo.Append(ctx, nil, threadID, types.RoleBot, text)
			if err != nil {
				cs.log.Warn("Failed to persist bot bubble", "thread_id", threadID, "error", err)
				return nil
			}
			inserted[i] = msg
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*types.Message, 0, len(inserted))
	for _, m := range inserted {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (cs *chatService) appendInBackground(ctx context.Context, threadID uuid.UUID, role, text string) {
	bg := context.WithoutCancel(ctx)
	go func() {
		bgCtx, cancel := context.WithTimeout(bg, 10*time.Second)
		defer cancel()
		if _, err := cs.messageRepo.Append(bgCtx, nil, threadID, role, text); err != nil {
			cs.log.Warn("Failed to persist inbound message", "thread_id", threadID, "error", err)
		}
	}()
}

func (cs *chatService) touchInBackground(ctx context.Context, threadID uuid.UUID) {
	bg := context.WithoutCancel(ctx)
	go func() {
		bgCtx, cancel := context.WithTimeout(bg, 10*time.Second)
		defer cancel()
		if err := cs.threadRepo.TouchUpdatedAt(bgCtx, nil, threadID); err != nil {
			cs.log.Warn("Failed to bump thread updated_at", "thread_id", threadID, "error", err)
		}
	}()
}

func (cs *chatService) summarizeInBackground(ctx context.Context, persona *types.Persona) {
	if persona.LongDoc == "" || persona.ShortSummary != "" {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		bgCtx, cancel := context.WithTimeout(bg, 60*time.Second)
		defer cancel()
		if _, _, err := cs.personaService.SummarizeIfNeeded(bgCtx, persona); err != nil {
			cs.log.Warn("Background persona summarization failed", "persona_id", persona.ID, "error", err)
		}
	}()
}
