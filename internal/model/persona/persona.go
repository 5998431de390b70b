package persona

import "fmt"

// Persona bundles every knob that shapes how the assistant speaks: style and
// domain dimensions, length and pacing bounds, behavioral toggles, and
// free-text instructions appended verbatim to the synthesized prompt.
type Persona struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	WelcomeMessage string `json:"welcomeMessage"`

	// Style dimensions. Values are matched against the synthesizer's clause
	// tables; unknown values fall back to a per-dimension default clause.
	Formality  string `json:"formality"`
	Empathy    string `json:"empathy"`
	Enthusiasm string `json:"enthusiasm"`
	Humor      string `json:"humor"`
	Verbosity  string `json:"verbosity"`

	// Domain dimensions.
	KnowledgeDomain string `json:"knowledgeDomain"`
	LanguageStyle   string `json:"languageStyle"`
	CulturalContext string `json:"culturalContext"`
	Expertise       string `json:"expertise"`
	Personality     string `json:"personality"`

	MaxLength int `json:"maxLength"`

	// Response pacing bounds in seconds, consumed by the latency simulator.
	MinResponseTime float64 `json:"minResponseTime"`
	MaxResponseTime float64 `json:"maxResponseTime"`

	UseEmojis       bool `json:"useEmojis"`
	IncludeGreeting bool `json:"includeGreeting"`
	AskFollowUp     bool `json:"askFollowUp"`

	SystemPrompt       string `json:"systemPrompt,omitempty"`
	CustomInstructions string `json:"customInstructions,omitempty"`

	IsActive bool `json:"isActive"`
}

// maxResponseCeiling caps the configurable response delay. Anything above
// this is a configuration mistake, not a pacing choice.
const maxResponseCeiling = 60.0

// Validate rejects configurations the latency simulator or prompt
// synthesizer cannot honor. Called at store admission so bad values never
// reach the request path.
func (p Persona) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("persona: id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("persona %s: name is required", p.ID)
	}
	if p.MinResponseTime < 0 || p.MaxResponseTime < 0 {
		return fmt.Errorf("persona %s: response time bounds must be non-negative", p.ID)
	}
	if p.MinResponseTime > p.MaxResponseTime {
		return fmt.Errorf("persona %s: minResponseTime %.1f exceeds maxResponseTime %.1f",
			p.ID, p.MinResponseTime, p.MaxResponseTime)
	}
	if p.MaxResponseTime > maxResponseCeiling {
		return fmt.Errorf("persona %s: maxResponseTime %.1f exceeds ceiling %.0f",
			p.ID, p.MaxResponseTime, maxResponseCeiling)
	}
	if p.MaxLength < 0 {
		return fmt.Errorf("persona %s: maxLength must be non-negative", p.ID)
	}
	return nil
}

// Profile is the short descriptor surfaced next to the persona name in chat
// responses.
func (p Persona) Profile() string {
	domain := p.KnowledgeDomain
	if domain == "" {
		domain = "general"
	}
	style := p.LanguageStyle
	if style == "" {
		style = "conversational"
	}
	return domain + " · " + style
}

// Fallback is the built-in persona used whenever no configuration is active
// or the resolver fails. It must always validate.
func Fallback() Persona {
	return Persona{
		ID:              "default",
		Name:            "Lumi",
		WelcomeMessage:  "Hi! How can I help you today?",
		Formality:       "neutral",
		Empathy:         "warm",
		Enthusiasm:      "moderate",
		Humor:           "light",
		Verbosity:       "balanced",
		KnowledgeDomain: "general",
		LanguageStyle:   "conversational",
		CulturalContext: "international",
		Expertise:       "generalist",
		Personality:     "helpful",
		MaxLength:       500,
		MinResponseTime: 1.0,
		MaxResponseTime: 5.0,
		UseEmojis:       false,
		IncludeGreeting: true,
		AskFollowUp:     true,
	}
}

// Seed provides the default persona catalog loaded into a fresh store.
func Seed() []Persona {
	return []Persona{
		{
			ID:              "concierge",
			Name:            "The Concierge",
			WelcomeMessage:  "Welcome! I'm here to help with whatever you need.",
			Formality:       "formal",
			Empathy:         "warm",
			Enthusiasm:      "moderate",
			Humor:           "none",
			Verbosity:       "concise",
			KnowledgeDomain: "customer service",
			LanguageStyle:   "professional",
			CulturalContext: "international",
			Expertise:       "specialist",
			Personality:     "attentive",
			MaxLength:       400,
			MinResponseTime: 1.0,
			MaxResponseTime: 3.0,
			UseEmojis:       false,
			IncludeGreeting: true,
			AskFollowUp:     true,
			IsActive:        true,
		},
		{
			ID:              "mentor",
			Name:            "The Mentor",
			WelcomeMessage:  "Good to see you. What are we working through today?",
			Formality:       "casual",
			Empathy:         "high",
			Enthusiasm:      "high",
			Humor:           "light",
			Verbosity:       "detailed",
			KnowledgeDomain: "education",
			LanguageStyle:   "conversational",
			CulturalContext: "international",
			Expertise:       "expert",
			Personality:     "encouraging",
			MaxLength:       800,
			MinResponseTime: 2.0,
			MaxResponseTime: 6.0,
			UseEmojis:       true,
			IncludeGreeting: true,
			AskFollowUp:     true,
		},
		{
			ID:              "analyst",
			Name:            "The Analyst",
			WelcomeMessage:  "Ready when you are. Bring me the details.",
			Formality:       "formal",
			Empathy:         "low",
			Enthusiasm:      "low",
			Humor:           "none",
			Verbosity:       "detailed",
			KnowledgeDomain: "business",
			LanguageStyle:   "technical",
			CulturalContext: "western",
			Expertise:       "expert",
			Personality:     "precise",
			MaxLength:       1000,
			MinResponseTime: 1.5,
			MaxResponseTime: 4.0,
			UseEmojis:       false,
			IncludeGreeting: false,
			AskFollowUp:     false,
		},
	}
}
