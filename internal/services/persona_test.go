package services

import (
	"context"
	"strings"
	"testing"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/repos"
	"github.com/saathichat/saathi-backend/internal/types"
)

func testPersona() *types.Persona {
	return &types.Persona{
		ID:           "riya",
		Name:         "Riya",
		SystemPrompt: "You are Riya, a college student from Jaipur.",
		LongDoc:      "Riya grew up in Jaipur. She loves chai, street food and old Bollywood songs.",
	}
}

func TestBuildContextFirstContact(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	ps := NewPersonaService(db, log, repos.NewPersonaRepo(db, log), &fakeCompletion{})

	persona := testPersona()
	got := ps.BuildContext(persona, "+911234567890", true)

	if !strings.Contains(got, persona.SystemPrompt) {
		t.Fatal("context missing system prompt")
	}
	if !strings.Contains(got, persona.LongDoc) {
		t.Fatal("first contact must include the full profile document")
	}
	if !strings.Contains(got, "Riya") {
		t.Fatal("context missing persona name")
	}
	if !strings.Contains(got, "&&&") {
		t.Fatal("default style must teach the bubble delimiter")
	}
}

func TestBuildContextSubsequentPrefersSummary(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	ps := NewPersonaService(db, log, repos.NewPersonaRepo(db, log), &fakeCompletion{})

	persona := testPersona()
	persona.ShortSummary = "Riya: Jaipur girl, chai lover, filmy."

	got := ps.BuildContext(persona, "+911234567890", false)
	if strings.Contains(got, persona.LongDoc) {
		t.Fatal("subsequent turns must not carry the full profile document")
	}
	if !strings.Contains(got, persona.ShortSummary) {
		t.Fatal("subsequent turns should use the short summary")
	}

	// Without a summary, fall back to the system prompt as the reminder.
	persona.ShortSummary = ""
	got = ps.BuildContext(persona, "+911234567890", false)
	if !strings.Contains(got, "Reminder of your persona") {
		t.Fatal("expected reminder framing")
	}
	if strings.Contains(got, persona.LongDoc) {
		t.Fatal("missing summary must not reintroduce the full document")
	}
}

func TestBuildContextCustomStyleOverridesDefault(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	ps := NewPersonaService(db, log, repos.NewPersonaRepo(db, log), &fakeCompletion{})

	persona := testPersona()
	persona.StylePrompt = "Always reply in formal English."
	got := ps.BuildContext(persona, "+911234567890", true)
	if !strings.Contains(got, persona.StylePrompt) {
		t.Fatal("custom style prompt not applied")
	}
	if strings.Contains(got, "Speak in Hinglish") {
		t.Fatal("default style must not leak when an override exists")
	}
}

func TestSummarizeIfNeededGeneratesAndPersists(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	personaRepo := repos.NewPersonaRepo(db, log)
	ctx := context.Background()

	persona := testPersona()
	if err := db.Create(persona).Error; err != nil {
		t.Fatalf("failed to seed persona: %v", err)
	}

	completion := &fakeCompletion{summary: "Jaipur wali Riya, full filmy vibes."}
	ps := NewPersonaService(db, log, personaRepo, completion)

	summary, generated, err := ps.SummarizeIfNeeded(ctx, persona)
	if err != nil {
		t.Fatalf("SummarizeIfNeeded failed: %v", err)
	}
	if !generated || summary != completion.summary {
		t.Fatalf("expected generated summary, got (%q, %v)", summary, generated)
	}
	if persona.ShortSummary != completion.summary {
		t.Fatal("summary not applied to the in-memory persona")
	}

	stored, err := personaRepo.GetByID(ctx, nil, "riya")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.ShortSummary != completion.summary {
		t.Fatalf("summary not persisted: %q", stored.ShortSummary)
	}
}

func TestSummarizeIfNeededSkips(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	completion := &fakeCompletion{summary: "should not be called"}
	ps := NewPersonaService(db, log, repos.NewPersonaRepo(db, log), completion)
	ctx := context.Background()

	t.Run("already summarized", func(t *testing.T) {
		persona := testPersona()
		persona.ShortSummary = "done"
		if _, generated, err := ps.SummarizeIfNeeded(ctx, persona); err != nil || generated {
			t.Fatalf("expected skip, got generated=%v err=%v", generated, err)
		}
	})

	t.Run("no long document", func(t *testing.T) {
		persona := testPersona()
		persona.LongDoc = ""
		if _, generated, err := ps.SummarizeIfNeeded(ctx, persona); err != nil || generated {
			t.Fatalf("expected skip, got generated=%v err=%v", generated, err)
		}
	})

	if completion.summarizeCalls != 0 {
		t.Fatalf("Summarize called %d times on skip paths", completion.summarizeCalls)
	}
}
