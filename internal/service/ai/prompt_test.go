package ai

import (
	"strings"
	"testing"

	"github.com/lumichat/lumichat/internal/model/persona"
)

func TestSynthesizeDeterministic(t *testing.T) {
	p := persona.Fallback()
	first := Synthesize(&p)
	second := Synthesize(&p)
	if first != second {
		t.Fatal("Synthesize is not deterministic for identical input")
	}
	if first == "" {
		t.Fatal("Synthesize returned an empty prompt")
	}
}

func TestSynthesizeNilPersona(t *testing.T) {
	got := Synthesize(nil)
	if got != defaultPrompt {
		t.Fatalf("nil persona prompt = %q, want built-in default", got)
	}
}

func TestSynthesizeUnknownDimensionsFallBack(t *testing.T) {
	p := persona.Persona{
		ID:        "weird",
		Name:      "Weird",
		Formality: "interpretive-dance",
		Empathy:   "",
		Humor:     "slapstick",
	}

	got := Synthesize(&p)
	if !strings.Contains(got, formalityDefault) {
		t.Error("unknown formality did not fall back to default clause")
	}
	if !strings.Contains(got, empathyDefault) {
		t.Error("missing empathy did not fall back to default clause")
	}
	if !strings.Contains(got, humorDefault) {
		t.Error("unknown humor did not fall back to default clause")
	}
}

func TestSynthesizeIncludesConfiguredPieces(t *testing.T) {
	p := persona.Persona{
		ID:                 "t",
		Name:               "Tess",
		WelcomeMessage:     "Welcome aboard!",
		Formality:          "formal",
		KnowledgeDomain:    "maritime law",
		MaxLength:          300,
		UseEmojis:          true,
		IncludeGreeting:    true,
		AskFollowUp:        false,
		SystemPrompt:       "Always cite the relevant convention.",
		CustomInstructions: "Never discuss inland waterways.",
	}

	got := Synthesize(&p)
	for _, want := range []string{
		"You are Tess",
		formalityClauses["formal"],
		"maritime law",
		`"Welcome aboard!"`,
		"Use emojis",
		"300 characters",
		"Always cite the relevant convention.",
		"Never discuss inland waterways.",
		"Do not append follow-up questions.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSynthesizeOmitsEmptyFreeText(t *testing.T) {
	p := persona.Persona{ID: "t", Name: "Tess"}
	got := Synthesize(&p)
	if strings.Contains(got, "welcome message") {
		t.Error("empty welcome message should not produce a clause")
	}
}
