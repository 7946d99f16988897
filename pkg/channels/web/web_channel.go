package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"concierge/pkg/api"
	"concierge/pkg/utils"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for decoupled UI
	},
}

type WebConfig struct {
	Port int `json:"port"` // Default: 8000
}

// SafeConn serializes concurrent writes to one websocket connection.
type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteJSON(v any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteJSON(v)
}

// WebChannel exposes the agent API over HTTP: an SSE chat endpoint, a
// buffered sync variant, introspection, health, a websocket endpoint and a
// static test page.
type WebChannel struct {
	config WebConfig
	server *http.Server
	gw     api.Gateway
}

func NewWebChannel(cfg WebConfig) *WebChannel {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	return &WebChannel{config: cfg}
}

func (c *WebChannel) ID() string {
	return "web"
}

func (c *WebChannel) Start(gw api.Gateway) error {
	c.gw = gw

	mux := http.NewServeMux()
	mux.HandleFunc("/", c.handleIndex)
	mux.HandleFunc("/agents/chat", c.handleChat)
	mux.HandleFunc("/agents/chat/sync", c.handleChatSync)
	mux.HandleFunc("/agents/info", c.handleInfo)
	mux.HandleFunc("/healthz", c.handleHealth)
	mux.HandleFunc("/ws", c.handleWebSocket)

	addr := fmt.Sprintf(":%d", c.config.Port)
	c.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("Web API listening", "port", c.config.Port)

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Web API server error", "error", err)
		}
	}()

	return nil
}

func (c *WebChannel) Stop() error {
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		return
	}
	w.Write(data)
}

// decodeChatRequest parses the request body and fills in a conversation id
// when the client did not supply one.
func decodeChatRequest(r *http.Request) (api.ChatRequest, error) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if req.ConversationID == "" {
		req.ConversationID = utils.GenerateID()
	}
	return req, nil
}

// handleChat streams the reply as Server-Sent Events: one data line per
// OutputEvent, ending with the done or error event.
func (c *WebChannel) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}

	req, err := decodeChatRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	events, err := c.gw.Chat(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Conversation-ID", req.ConversationID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			slog.Error("Failed to encode event", "error", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}

// handleChatSync returns the whole reply in one JSON payload.
func (c *WebChannel) handleChatSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}

	req, err := decodeChatRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	reply, err := c.gw.ChatSync(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"reply":           reply,
		"conversation_id": req.ConversationID,
	})
}

func (c *WebChannel) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.gw.Info())
}

func (c *WebChannel) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.gw.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebSocket runs a chat session over one socket: each inbound JSON
// message is a ChatRequest, each outbound message an OutputEvent. The
// conversation id sticks to the connection once assigned.
func (c *WebChannel) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS upgrade failed", "error", err)
		return
	}
	conn := &SafeConn{Conn: rawConn}
	defer conn.Close()

	conversationID := utils.GenerateID()

	for {
		var req api.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			break
		}
		if req.ConversationID == "" {
			req.ConversationID = conversationID
		}

		events, err := c.gw.Chat(r.Context(), req)
		if err != nil {
			conn.WriteJSON(api.NewErrorEvent(err.Error()))
			continue
		}
		for ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func (c *WebChannel) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}
