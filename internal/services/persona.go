package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/repos"
	"github.com/saathichat/saathi-backend/internal/types"
)

// defaultStyle is the fallback chat style for personas without a stored
// style_prompt override. It teaches the model the bubble delimiter protocol.
const defaultStyle = `You should:
- Speak in Hinglish by default, casual and desi.
- Address user with respectful "aap" (not "tu") unless they insist on informal tone.
- Reply like WhatsApp chat — mostly 1–2 short bubbles split with '&&&'.
- Sometimes use a longer para so chat feels human, not scripted.
- Use emojis like tadka 🌶️ — natural, not spammy.
- Avoid asterisks (*) or markdown formatting.
- Avoid repetition and fixed templates.
- End often with a playful hook or light question so user replies back.`

const summarizePromptTemplate = `Tumhara kaam hai neeche diye gaye persona document ka ek short Hinglish summary likhna —
jaise ek dost kisi aur dost ko us insaan ke baare mein batata hai.
Keep it casual, fun aur thoda natural vibe mein. Bullet points nahi chahiye —
3-4 lines max, chat bio jaisa likho.

Persona document:
%s`

type PersonaService interface {
	// BuildContext assembles the system instruction for one turn. Pure.
	BuildContext(persona *types.Persona, phone string, isFirst bool) string
	// SummarizeIfNeeded generates and persists a condensed profile summary the
	// first time a persona with a long profile document needs one. Returns
	// (summary, true) when a summary was generated, ("", false) when skipped.
	SummarizeIfNeeded(ctx context.Context, persona *types.Persona) (string, bool, error)
	Get(ctx context.Context, id string) (*types.Persona, error)
	List(ctx context.Context, id string) ([]*types.Persona, error)
}

type personaService struct {
	db          *gorm.DB
	log         *logger.Logger
	personaRepo repos.PersonaRepo
	completion  CompletionClient
}

func NewPersonaService(db *gorm.DB, log *logger.Logger, personaRepo repos.PersonaRepo, completion CompletionClient) PersonaService {
	serviceLog := log.With("service", "PersonaService")
	return &personaService{
		db:          db,
		log:         serviceLog,
		personaRepo: personaRepo,
		completion:  completion,
	}
}

func (ps *personaService) BuildContext(persona *types.Persona, phone string, isFirst bool) string {
	base := persona.SystemPrompt
	if base == "" {
		base = "You are a helpful companion."
	}

	style := persona.StylePrompt
	if style == "" {
		style = defaultStyle
	}

	var personaDoc string
	if isFirst {
		personaDoc = "Here is your full character profile:\n" + persona.LongDoc
	} else {
		reminder := persona.ShortSummary
		if reminder == "" {
			reminder = persona.SystemPrompt
		}
		personaDoc = "Reminder of your persona:\n" + reminder
	}

	return fmt.Sprintf("%s\n\n%s\n\nYou're roleplaying for this %s as %s.\n\n%s", base, style, phone, persona.Name, personaDoc)
}

func (ps *personaService) SummarizeIfNeeded(ctx context.Context, persona *types.Persona) (string, bool, error) {
	if persona.LongDoc == "" || persona.ShortSummary != "" {
		return "", false, nil
	}

	summary, err := ps.completion.Summarize(ctx, fmt.Sprintf(summarizePromptTemplate, persona.LongDoc))
	if err != nil {
		return "", false, fmt.Errorf("failed to summarize persona doc: %w", err)
	}
	if summary == "" {
		return "", false, nil
	}

	if err := ps.personaRepo.UpdateShortSummary(ctx, nil, persona.ID, summary); err != nil {
		// The summary is still usable for this turn even if the write failed;
		// the next turn will simply regenerate it.
		ps.log.Warn("Could not persist persona short summary", "persona_id", persona.ID, "error", err)
	}
	persona.ShortSummary = summary
	return summary, true, nil
}

func (ps *personaService) Get(ctx context.Context, id string) (*types.Persona, error) {
	return ps.personaRepo.GetByID(ctx, nil, id)
}

func (ps *personaService) List(ctx context.Context, id string) ([]*types.Persona, error) {
	if id != "" {
		persona, err := ps.personaRepo.GetByID(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		if persona == nil {
			return []*types.Persona{}, nil
		}
		return []*types.Persona{persona}, nil
	}
	return ps.personaRepo.List(ctx, nil)
}
