package ai

import (
	"fmt"
	"strings"

	"github.com/lumichat/lumichat/internal/model/persona"
)

// Synthesize compiles a persona configuration into the system prompt sent to
// the model. It is pure and deterministic: identical input always yields
// byte-identical output, which the prompt tests rely on.
//
// Enumerated dimensions are mapped through fixed clause tables; an unknown
// or empty value falls back to that dimension's default clause, never an
// error. A nil persona yields the built-in default prompt.
func Synthesize(p *persona.Persona) string {
	if p == nil {
		return defaultPrompt
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a conversational assistant.\n\n", p.Name)

	b.WriteString("Style:\n")
	b.WriteString("- " + clause(formalityClauses, p.Formality, formalityDefault) + "\n")
	b.WriteString("- " + clause(empathyClauses, p.Empathy, empathyDefault) + "\n")
	b.WriteString("- " + clause(enthusiasmClauses, p.Enthusiasm, enthusiasmDefault) + "\n")
	b.WriteString("- " + clause(humorClauses, p.Humor, humorDefault) + "\n")
	b.WriteString("- " + clause(verbosityClauses, p.Verbosity, verbosityDefault) + "\n")

	b.WriteString("\nDomain:\n")
	b.WriteString("- " + domainClause(p.KnowledgeDomain) + "\n")
	b.WriteString("- " + clause(languageStyleClauses, p.LanguageStyle, languageStyleDefault) + "\n")
	b.WriteString("- " + clause(culturalContextClauses, p.CulturalContext, culturalContextDefault) + "\n")
	b.WriteString("- " + clause(expertiseClauses, p.Expertise, expertiseDefault) + "\n")
	b.WriteString("- " + clause(personalityClauses, p.Personality, personalityDefault) + "\n")

	if p.WelcomeMessage != "" {
		fmt.Fprintf(&b, "\nYour standard welcome message is: %q\n", p.WelcomeMessage)
	}

	b.WriteString("\nBehavior:\n")
	if p.UseEmojis {
		b.WriteString("- Use emojis where they feel natural.\n")
	} else {
		b.WriteString("- Do not use emojis.\n")
	}
	if p.IncludeGreeting {
		b.WriteString("- Open your first reply in a conversation with a brief greeting.\n")
	} else {
		b.WriteString("- Skip greetings and get straight to the answer.\n")
	}
	if p.AskFollowUp {
		b.WriteString("- End your reply with one relevant follow-up question when it helps the conversation.\n")
	} else {
		b.WriteString("- Do not append follow-up questions.\n")
	}

	if p.MaxLength > 0 {
		fmt.Fprintf(&b, "- Keep replies under roughly %d characters.\n", p.MaxLength)
	}

	if p.SystemPrompt != "" {
		b.WriteString("\n" + p.SystemPrompt + "\n")
	}
	if p.CustomInstructions != "" {
		b.WriteString("\n" + p.CustomInstructions + "\n")
	}

	b.WriteString("\nStay in character and help the user with their questions in your domain.")
	return b.String()
}

// clause resolves one dimension value against its table, falling back to the
// dimension default for unknown or empty values.
func clause(table map[string]string, value, fallback string) string {
	if c, ok := table[value]; ok {
		return c
	}
	return fallback
}

// domainClause is the one dimension whose value is interpolated rather than
// table-mapped: any non-empty domain is meaningful.
func domainClause(domain string) string {
	if domain == "" {
		return "You can discuss a broad range of general topics."
	}
	return fmt.Sprintf("Your primary field is %s.", domain)
}

const defaultPrompt = "You are a helpful conversational assistant. " +
	"Answer clearly and concisely, stay friendly, and ask for clarification when a request is ambiguous."

const (
	formalityDefault       = "Keep a naturally balanced register, neither stiff nor sloppy."
	empathyDefault         = "Acknowledge the user's situation before answering."
	enthusiasmDefault      = "Keep an even, engaged energy."
	humorDefault           = "Use humor sparingly, only when clearly welcome."
	verbosityDefault       = "Match the length of your answer to the weight of the question."
	languageStyleDefault   = "Use plain, accessible language."
	culturalContextDefault = "Assume an international audience; avoid region-specific idioms."
	expertiseDefault       = "Answer at a generally knowledgeable level."
	personalityDefault     = "Be dependable and constructive."
)

var formalityClauses = map[string]string{
	"formal":  "Maintain a polished, professional register at all times.",
	"casual":  "Write the way a friendly colleague talks, relaxed and direct.",
	"neutral": "Keep a plain, even register without slang or ceremony.",
}

var empathyClauses = map[string]string{
	"high": "Lead with empathy; name the user's feelings before solving the problem.",
	"warm": "Be warm and considerate without dwelling on emotions.",
	"low":  "Stay matter-of-fact; focus on the content, not the sentiment.",
}

var enthusiasmClauses = map[string]string{
	"high":     "Bring visible energy and encouragement to every reply.",
	"moderate": "Sound engaged but composed.",
	"low":      "Keep a calm, understated tone.",
}

var humorClauses = map[string]string{
	"playful": "Weave in light wordplay and playful asides.",
	"light":   "An occasional touch of dry humor is welcome.",
	"none":    "Avoid jokes entirely; keep the tone straight.",
}

var verbosityClauses = map[string]string{
	"concise":  "Answer in as few sentences as the question allows.",
	"balanced": "Give complete answers without padding.",
	"detailed": "Explain thoroughly, with examples where they help.",
}

var languageStyleClauses = map[string]string{
	"professional":   "Use precise business language.",
	"conversational": "Use everyday spoken language.",
	"technical":      "Use exact technical terminology and do not oversimplify.",
	"simple":         "Use short words and short sentences; avoid jargon.",
}

var culturalContextClauses = map[string]string{
	"international": "Write for an international audience; avoid local idioms and references.",
	"western":       "You may use Western cultural references where they clarify.",
	"eastern":       "You may use East Asian cultural references where they clarify.",
}

var expertiseClauses = map[string]string{
	"expert":     "Answer with the depth and confidence of a senior practitioner.",
	"specialist": "Go deep within your specialty and defer outside it.",
	"generalist": "Cover breadth first; offer depth only when asked.",
}

var personalityClauses = map[string]string{
	"helpful":     "Prioritize being genuinely useful over sounding impressive.",
	"attentive":   "Track details the user mentions and refer back to them.",
	"encouraging": "Reinforce progress and frame setbacks constructively.",
	"precise":     "Be exact; quantify where possible and flag uncertainty.",
}
