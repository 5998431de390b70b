package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/lumichat/lumichat/internal/cache"
	"github.com/lumichat/lumichat/internal/history"
	"github.com/lumichat/lumichat/internal/identity"
	"github.com/lumichat/lumichat/internal/model/persona"
	"github.com/lumichat/lumichat/internal/provider"
	"github.com/lumichat/lumichat/internal/service/ai"
	chatService "github.com/lumichat/lumichat/internal/service/chat"
	"github.com/lumichat/lumichat/internal/store"
)

// echoModel replies deterministically from the user's message so each turn
// produces distinct transcript content.
type echoModel struct {
	err error
}

func (m *echoModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	query := ""
	if len(in) > 0 {
		query = in[len(in)-1].Content
	}
	return schema.AssistantMessage("echo: "+query, nil), nil
}

func (m *echoModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type testApp struct {
	server       *httptest.Server
	orchestrator *chatService.Orchestrator
	cache        *cache.FileCache
	store        *store.MemoryStore
}

func newTestApp(t *testing.T, chatModel model.BaseChatModel) *testApp {
	t.Helper()

	fileCache, err := cache.NewFileCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFileCache err: %v", err)
	}
	exchanges := store.NewMemoryStore()
	reconciler := history.NewReconciler(fileCache, exchanges)

	fast := persona.Fallback()
	fast.ID = "fast"
	fast.MinResponseTime = 0.01
	fast.MaxResponseTime = 0.01
	fast.IsActive = true
	personas, err := persona.NewMemoryStore([]persona.Persona{fast})
	if err != nil {
		t.Fatalf("persona store err: %v", err)
	}

	var aiSvc *ai.Service
	if chatModel != nil {
		aiSvc, err = ai.NewService(context.Background(), chatModel)
		if err != nil {
			t.Fatalf("NewService err: %v", err)
		}
	}

	orchestrator := chatService.NewOrchestrator(personas, aiSvc, reconciler, nil)
	h := New(orchestrator)

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testApp{
		server:       srv,
		orchestrator: orchestrator,
		cache:        fileCache,
		store:        exchanges,
	}
}

func (a *testApp) post(t *testing.T, message, sessionCookie string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"message": message})
	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest err: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: identity.CookieName, Value: sessionCookie})
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	return out
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == identity.CookieName {
			return c.Value
		}
	}
	return ""
}

func TestFirstMessageSetsCookieAndRecordsHistory(t *testing.T) {
	app := newTestApp(t, &echoModel{})

	resp := app.post(t, "Hello", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	cookie := sessionCookie(resp)
	if cookie == "" {
		t.Fatal("expected a session cookie on first contact")
	}

	msg := decode[messageResponse](t, resp)
	if msg.Response != "echo: Hello" {
		t.Fatalf("response = %q", msg.Response)
	}
	if msg.SessionID == "" {
		t.Fatal("missing sessionId")
	}
	if msg.Persona.Name == "" || msg.Persona.Profile == "" {
		t.Fatalf("incomplete persona info %+v", msg.Persona)
	}

	app.orchestrator.WaitForPersistence()

	histReq, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/chat/history", nil)
	histReq.AddCookie(&http.Cookie{Name: identity.CookieName, Value: cookie})
	histResp, err := http.DefaultClient.Do(histReq)
	if err != nil {
		t.Fatalf("history request err: %v", err)
	}
	hist := decode[struct {
		SessionID string `json:"sessionId"`
		History   []struct {
			InputText  string `json:"inputText"`
			OutputText string `json:"outputText"`
		} `json:"history"`
	}](t, histResp)

	if hist.SessionID != cookie {
		t.Fatalf("history session %q, want %q", hist.SessionID, cookie)
	}
	if len(hist.History) != 1 {
		t.Fatalf("history has %d entries, want 1", len(hist.History))
	}
	if hist.History[0].InputText != "Hello" {
		t.Fatalf("history entry %+v", hist.History[0])
	}
}

func TestProviderFailureReturnsApologyWithSession(t *testing.T) {
	app := newTestApp(t, &echoModel{err: fmt.Errorf("%w: upstream returned 500", provider.ErrProvider)})

	resp := app.post(t, "Hello", "known-session")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}

	body := decode[errorResponse](t, resp)
	if body.Response != apology {
		t.Fatalf("response = %q, want the apology", body.Response)
	}
	if body.SessionID != "known-session" {
		t.Fatalf("sessionId = %q, want the caller's session preserved", body.SessionID)
	}
}

func TestMissingMessageRejected(t *testing.T) {
	app := newTestApp(t, &echoModel{})

	resp := app.post(t, "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decode[errorResponse](t, resp)
	if body.SessionID == "" {
		t.Fatal("even a rejected request carries a session key")
	}
}

func TestUnconfiguredBackendReturns503(t *testing.T) {
	app := newTestApp(t, nil)

	resp := app.post(t, "Hello", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	body := decode[errorResponse](t, resp)
	if !strings.Contains(body.Error, "not configured") {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestLongConversationTrimsCacheKeepsDurable(t *testing.T) {
	app := newTestApp(t, &echoModel{})
	const session = "long-session"
	const turns = cache.MaxExchanges + 1

	for i := 1; i <= turns; i++ {
		resp := app.post(t, fmt.Sprintf("msg-%d", i), session)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("turn %d: status = %d", i, resp.StatusCode)
		}
		resp.Body.Close()
		app.orchestrator.WaitForPersistence()
	}

	n, err := app.store.Count(context.Background(), session)
	if err != nil {
		t.Fatalf("Count err: %v", err)
	}
	if n != turns {
		t.Fatalf("durable count = %d, want %d", n, turns)
	}

	record, err := app.cache.Read(session)
	if err != nil {
		t.Fatalf("cache Read err: %v", err)
	}
	if len(record.Exchanges) != cache.MaxExchanges {
		t.Fatalf("cache holds %d, want %d", len(record.Exchanges), cache.MaxExchanges)
	}
	if got := record.Exchanges[0].InputText; got != "msg-2" {
		t.Fatalf("oldest cached exchange = %q, want msg-2", got)
	}
	if got := record.Exchanges[len(record.Exchanges)-1].InputText; got != fmt.Sprintf("msg-%d", turns) {
		t.Fatalf("newest cached exchange = %q", got)
	}
}

func TestClearHistory(t *testing.T) {
	app := newTestApp(t, &echoModel{})
	const session = "clear-me"

	resp := app.post(t, "Hello", session)
	resp.Body.Close()
	app.orchestrator.WaitForPersistence()

	req, _ := http.NewRequest(http.MethodDelete, app.server.URL+"/api/chat/history", nil)
	req.AddCookie(&http.Cookie{Name: identity.CookieName, Value: session})
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete err: %v", err)
	}
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", delResp.StatusCode)
	}
	delResp.Body.Close()

	if n, _ := app.store.Count(context.Background(), session); n != 0 {
		t.Fatalf("durable count = %d after clear, want 0", n)
	}

	// The merged read path must come back empty too; a lingering cache
	// record would resurface the transcript the clear just confirmed gone.
	histReq, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/chat/history", nil)
	histReq.AddCookie(&http.Cookie{Name: identity.CookieName, Value: session})
	histResp, err := http.DefaultClient.Do(histReq)
	if err != nil {
		t.Fatalf("history err: %v", err)
	}
	hist := decode[struct {
		History []struct {
			InputText string `json:"inputText"`
		} `json:"history"`
	}](t, histResp)
	if len(hist.History) != 0 {
		t.Fatalf("history has %d entries after clear, want 0", len(hist.History))
	}
	if _, err := app.cache.Read(session); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("cache read = %v after clear, want ErrNotFound", err)
	}
}
