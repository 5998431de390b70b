// Package chat holds the response orchestrator: the per-message coordinator
// that resolves the active persona, synthesizes its prompt, invokes the
// configured inference backend, paces the reply, and detaches the dual
// write-back to the ephemeral cache and durable store.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumichat/lumichat/internal/history"
	"github.com/lumichat/lumichat/internal/model/chat"
	"github.com/lumichat/lumichat/internal/model/persona"
	"github.com/lumichat/lumichat/internal/observe"
	"github.com/lumichat/lumichat/internal/service/ai"
)

// persistTimeout bounds the detached write-back so a wedged store cannot
// leak goroutines indefinitely.
const persistTimeout = 10 * time.Second

// ErrNotConfigured is returned for every request while no inference backend
// is configured. The service keeps serving so history and persona endpoints
// stay available; only chat turns fail, identically, until fixed.
var ErrNotConfigured = errors.New("no inference backend configured")

// Request carries one inbound message with its resolved session identity.
type Request struct {
	SessionID       string
	Message         string
	UserID          string
	OriginAddress   string
	ClientSignature string
}

// Result is the caller-visible outcome of a successful turn.
type Result struct {
	Response       string
	PersonaName    string
	PersonaProfile string
	SessionID      string
	ProcessingTime time.Duration
}

// Orchestrator sequences one unit of work per inbound message. Concurrent
// requests share no state beyond the two stores.
type Orchestrator struct {
	personas persona.Store
	ai       *ai.Service
	history  *history.Reconciler
	metrics  *observe.Metrics

	persistWG sync.WaitGroup
}

func NewOrchestrator(personas persona.Store, aiSvc *ai.Service, reconciler *history.Reconciler, metrics *observe.Metrics) *Orchestrator {
	return &Orchestrator{
		personas: personas,
		ai:       aiSvc,
		history:  reconciler,
		metrics:  metrics,
	}
}

// Respond handles one message end to end. On provider failure it returns the
// error together with a zero Result; the handler owns the apology wording.
// Persistence runs detached and never affects the returned value.
func (o *Orchestrator) Respond(ctx context.Context, req Request) (Result, error) {
	if o.ai == nil {
		return Result{}, ErrNotConfigured
	}
	start := time.Now()

	active := o.resolvePersona()
	systemPrompt := ai.Synthesize(&active)
	transcript := o.history.History(ctx, req.SessionID)

	output, err := o.ai.Generate(ctx, systemPrompt, transcript, req.Message, active.MaxLength)
	o.metrics.RecordProviderRequest(ctx, err)
	if err != nil {
		slog.Error("chat: provider call failed",
			"session_id", req.SessionID,
			"persona", active.ID,
			"error", err)
		return Result{}, err
	}

	exchange := chat.Exchange{
		ID:              uuid.NewString(),
		SessionID:       req.SessionID,
		InputText:       req.Message,
		OutputText:      output,
		PersonaID:       active.ID,
		UserID:          req.UserID,
		OriginAddress:   req.OriginAddress,
		ClientSignature: req.ClientSignature,
		Timestamp:       time.Now().UTC(),
	}
	o.persistAsync(ctx, exchange)

	delay(ctx, active.MinResponseTime, active.MaxResponseTime)

	return Result{
		Response:       output,
		PersonaName:    active.Name,
		PersonaProfile: active.Profile(),
		SessionID:      req.SessionID,
		ProcessingTime: time.Since(start),
	}, nil
}

// History exposes the reconciled transcript for the history endpoint.
func (o *Orchestrator) History(ctx context.Context, sessionID string) []chat.HistoryEntry {
	return o.history.History(ctx, sessionID)
}

// ClearHistory wipes the session's transcript from both persistence tiers.
func (o *Orchestrator) ClearHistory(ctx context.Context, sessionID string) error {
	return o.history.Clear(ctx, sessionID)
}

// resolvePersona returns the active persona, or the built-in fallback when
// none is active. Resolution problems are never surfaced to the caller.
func (o *Orchestrator) resolvePersona() persona.Persona {
	if active, ok := o.personas.GetActive(); ok {
		return active
	}
	return persona.Fallback()
}

// persistAsync spawns the dual write-back. The goroutine outlives the
// request context: the user already has (or is about to get) their answer,
// and a persistence failure only ever reaches the logs.
func (o *Orchestrator) persistAsync(ctx context.Context, exchange chat.Exchange) {
	o.persistWG.Add(1)
	go func() {
		defer o.persistWG.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := o.history.Persist(pctx, exchange); err != nil {
			slog.Error("chat: write-back failed",
				"session_id", exchange.SessionID,
				"exchange_id", exchange.ID,
				"error", err)
		}
	}()
}

// WaitForPersistence blocks until every detached write-back has finished.
// Called on shutdown so in-flight exchanges reach the durable store.
func (o *Orchestrator) WaitForPersistence() {
	o.persistWG.Wait()
}
