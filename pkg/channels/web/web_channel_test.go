package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"concierge/pkg/api"
)

// stubGateway replays canned events and records the requests it saw.
type stubGateway struct {
	events    []api.OutputEvent
	healthErr error
	requests  []api.ChatRequest
}

func (g *stubGateway) Chat(ctx context.Context, req api.ChatRequest) (<-chan api.OutputEvent, error) {
	g.requests = append(g.requests, req)
	out := make(chan api.OutputEvent, len(g.events))
	for _, ev := range g.events {
		out <- ev
	}
	close(out)
	return out, nil
}

func (g *stubGateway) ChatSync(ctx context.Context, req api.ChatRequest) (string, error) {
	g.requests = append(g.requests, req)
	var b strings.Builder
	for _, ev := range g.events {
		switch ev.Type {
		case api.EventContent:
			b.WriteString(ev.Chunk)
		case api.EventError:
			return "", fmt.Errorf("%s", ev.Error)
		}
	}
	return b.String(), nil
}

func (g *stubGateway) Info() api.GatewayInfo {
	return api.GatewayInfo{AgentKinds: []string{"customer_service"}, StorageType: "memory"}
}

func (g *stubGateway) Health(ctx context.Context) error { return g.healthErr }

func newTestChannel(gw api.Gateway) *WebChannel {
	c := NewWebChannel(WebConfig{})
	c.gw = gw
	return c
}

func TestHandleChatStreamsSSE(t *testing.T) {
	gw := &stubGateway{events: []api.OutputEvent{
		api.NewContentEvent("Hel"),
		api.NewContentEvent("lo"),
		api.NewDoneEvent(),
	}}
	c := newTestChannel(gw)

	req := httptest.NewRequest(http.MethodPost, "/agents/chat",
		strings.NewReader(`{"message":"hi","conversation_id":"conv1"}`))
	rec := httptest.NewRecorder()
	c.handleChat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rec.Header().Get("X-Conversation-ID"); got != "conv1" {
		t.Errorf("X-Conversation-ID = %q, want conv1", got)
	}

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("got %d SSE frames, want 3:\n%s", len(frames), body)
	}
	for _, frame := range frames {
		if !strings.HasPrefix(frame, "data: {") {
			t.Errorf("malformed SSE frame: %q", frame)
		}
	}
	if !strings.Contains(frames[0], `"content"`) || !strings.Contains(frames[0], `"Hel"`) {
		t.Errorf("first frame = %q", frames[0])
	}
	if !strings.Contains(frames[2], `"done"`) {
		t.Errorf("last frame = %q", frames[2])
	}
}

func TestHandleChatGeneratesConversationID(t *testing.T) {
	gw := &stubGateway{events: []api.OutputEvent{api.NewDoneEvent()}}
	c := newTestChannel(gw)

	req := httptest.NewRequest(http.MethodPost, "/agents/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	c.handleChat(rec, req)

	id := rec.Header().Get("X-Conversation-ID")
	if id == "" {
		t.Fatal("no conversation id assigned")
	}
	if len(gw.requests) != 1 || gw.requests[0].ConversationID != id {
		t.Error("gateway request must carry the generated conversation id")
	}
}

func TestHandleChatRejectsBadRequests(t *testing.T) {
	c := newTestChannel(&stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/agents/chat", nil)
	rec := httptest.NewRecorder()
	c.handleChat(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/agents/chat", strings.NewReader("{broken"))
	rec = httptest.NewRecorder()
	c.handleChat(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

func TestHandleChatSync(t *testing.T) {
	gw := &stubGateway{events: []api.OutputEvent{
		api.NewContentEvent("full reply"),
		api.NewDoneEvent(),
	}}
	c := newTestChannel(gw)

	req := httptest.NewRequest(http.MethodPost, "/agents/chat/sync",
		strings.NewReader(`{"message":"hi","conversation_id":"conv1"}`))
	rec := httptest.NewRecorder()
	c.handleChatSync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp["reply"] != "full reply" || resp["conversation_id"] != "conv1" {
		t.Errorf("response = %v", resp)
	}
}

func TestHandleHealth(t *testing.T) {
	c := newTestChannel(&stubGateway{})
	rec := httptest.NewRecorder()
	c.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d, want 200", rec.Code)
	}

	c = newTestChannel(&stubGateway{healthErr: fmt.Errorf("redis down")})
	rec = httptest.NewRecorder()
	c.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d, want 503", rec.Code)
	}
}

func TestHandleInfo(t *testing.T) {
	c := newTestChannel(&stubGateway{})
	rec := httptest.NewRecorder()
	c.handleInfo(rec, httptest.NewRequest(http.MethodGet, "/agents/info", nil))

	var info api.GatewayInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(info.AgentKinds) != 1 || info.AgentKinds[0] != "customer_service" {
		t.Errorf("info = %+v", info)
	}
}
