package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"concierge/pkg/api"
	"concierge/pkg/config"
	"concierge/pkg/history"
	"concierge/pkg/llm"
	"concierge/pkg/tools"
	"concierge/pkg/utils"
)

// budgetExhaustedReply is committed and streamed when the model keeps
// requesting tools past the iteration budget.
const budgetExhaustedReply = "I reached the maximum number of tool iterations while working on this request. Here is what I have so far; please try rephrasing or narrowing the question."

// Engine drives one conversation turn: it assembles bounded context from
// the store, calls the model, dispatches requested tools, and repeats until
// the model answers in plain text or the iteration budget runs out.
//
// The engine never runs two turns of the same conversation concurrently;
// the gateway serializes them.
type Engine struct {
	client   llm.CompletionClient
	store    history.Store
	registry api.ToolRegistry
	sysCfg   *config.SystemConfig
	persona  string
}

// NewEngine wires an engine from its collaborators. A nil registry means
// the agent runs without tools.
func NewEngine(client llm.CompletionClient, store history.Store, registry api.ToolRegistry, sysCfg *config.SystemConfig, persona string) *Engine {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	return &Engine{
		client:   client,
		store:    store,
		registry: registry,
		sysCfg:   sysCfg,
		persona:  persona,
	}
}

// Registry exposes the engine's tool registry for introspection.
func (e *Engine) Registry() api.ToolRegistry {
	return e.registry
}

// RunTurn processes one user message and streams the reply into out.
// It always emits exactly one terminal done or error event; the caller owns
// and closes the channel.
//
// Persistence outlives the caller: once the model starts answering, message
// commits use a detached context so a client disconnect mid-stream cannot
// leave a half-written turn behind.
func (e *Engine) RunTurn(ctx context.Context, conversationID, content string, out chan<- api.OutputEvent) error {
	turnID := utils.GenerateID()
	persistCtx := context.WithoutCancel(ctx)

	// The user message is durable input: commit before the first model call
	userMsg := llm.NewUserMessage(content)
	userMsg.MessageID = utils.GenerateID()
	userMsg.TurnID = turnID
	if err := e.store.AppendMessage(ctx, conversationID, userMsg); err != nil {
		err = fmt.Errorf("failed to persist user message: %w", err)
		e.emit(ctx, out, api.NewErrorEvent(err.Error()))
		return err
	}

	budget := e.sysCfg.MaxToolIterations
	if budget <= 0 {
		budget = 1
	}

	for iteration := 1; iteration <= budget; iteration++ {
		assistantMsg, streamErr := e.modelCall(ctx, conversationID, turnID, out)
		if streamErr != nil {
			// Nothing from this call is persisted; the turn dies here
			e.emit(ctx, out, api.NewErrorEvent(fmt.Sprintf("model call failed: %v", streamErr)))
			return fmt.Errorf("model call failed: %w", streamErr)
		}

		if len(assistantMsg.ToolCalls) == 0 {
			// Final answer
			if err := e.store.AppendMessage(persistCtx, conversationID, assistantMsg); err != nil {
				e.emit(ctx, out, api.NewErrorEvent(fmt.Sprintf("failed to persist reply: %v", err)))
				return fmt.Errorf("failed to persist assistant message: %w", err)
			}
			e.emit(ctx, out, api.NewDoneEvent())
			return nil
		}

		slog.InfoContext(ctx, "Tool iteration",
			"conversation", conversationID,
			"iteration", fmt.Sprintf("%d/%d", iteration, budget),
			"tool_calls", len(assistantMsg.ToolCalls))

		// The tool-call message and every result must land in the log
		// before the next model call sees the context
		if err := e.store.AppendMessage(persistCtx, conversationID, assistantMsg); err != nil {
			e.emit(ctx, out, api.NewErrorEvent(fmt.Sprintf("failed to persist reply: %v", err)))
			return fmt.Errorf("failed to persist assistant message: %w", err)
		}

		for _, tc := range assistantMsg.ToolCalls {
			if err := e.dispatchAndCommit(persistCtx, conversationID, turnID, tc); err != nil {
				e.emit(ctx, out, api.NewErrorEvent(fmt.Sprintf("failed to persist tool result: %v", err)))
				return err
			}
		}
	}

	// Budget exhausted with the model still asking for tools
	slog.WarnContext(ctx, "Tool iteration budget exhausted", "conversation", conversationID, "budget", budget)
	fallback := llm.NewTextMessage(llm.RoleAssistant, budgetExhaustedReply)
	fallback.MessageID = utils.GenerateID()
	fallback.TurnID = turnID
	if err := e.store.AppendMessage(persistCtx, conversationID, fallback); err != nil {
		e.emit(ctx, out, api.NewErrorEvent(fmt.Sprintf("failed to persist reply: %v", err)))
		return fmt.Errorf("failed to persist assistant message: %w", err)
	}
	e.emit(ctx, out, api.NewContentEvent(budgetExhaustedReply))
	e.emit(ctx, out, api.NewDoneEvent())
	return nil
}

// modelCall performs one streaming completion over the current bounded
// context and collects the full assistant message. Text deltas are forwarded
// to out as they arrive.
func (e *Engine) modelCall(ctx context.Context, conversationID, turnID string, out chan<- api.OutputEvent) (llm.Message, error) {
	msgs, err := e.buildContext(ctx, conversationID)
	if err != nil {
		return llm.Message{}, err
	}

	var specs []llm.ToolSpec
	if e.sysCfg.EnableTools {
		specs = e.registry.DescribeAll()
	}

	timeout := time.Duration(e.sysCfg.LLMTimeoutMs) * time.Millisecond
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chunkCh, err := e.client.StreamChat(callCtx, msgs, specs)
	if err != nil {
		return llm.Message{}, err
	}

	assistantMsg := llm.Message{
		MessageID: utils.GenerateID(),
		TurnID:    turnID,
		Role:      llm.RoleAssistant,
		Timestamp: time.Now().Unix(),
	}

	var text strings.Builder
	var streamErr error

	for chunk := range chunkCh {
		if chunk.Err != nil {
			streamErr = chunk.Err
			break
		}
		if chunk.ErrText != "" && chunk.Err == nil {
			// Advisory provider notice (e.g. truncation); surface but continue
			slog.WarnContext(ctx, "Provider notice", "conversation", conversationID, "notice", chunk.ErrText)
		}

		if chunk.Text != "" {
			text.WriteString(chunk.Text)
			e.emit(ctx, out, api.NewContentEvent(chunk.Text))
		}
		if chunk.Thinking != "" && e.sysCfg.ShowThinking {
			e.emit(ctx, out, api.NewThinkingEvent(chunk.Thinking))
		}
		if len(chunk.ToolCalls) > 0 {
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, chunk.ToolCalls...)
		}
		if chunk.IsFinal && chunk.Usage != nil {
			slog.DebugContext(ctx, "Model call finished",
				"conversation", conversationID,
				"stop_reason", chunk.FinishReason,
				"total_tokens", chunk.Usage.TotalTokens)
		}
	}

	if streamErr != nil {
		// Drain so the provider goroutine can exit
		for range chunkCh {
		}
		return llm.Message{}, streamErr
	}

	assistantMsg.Content = text.String()
	return assistantMsg, nil
}

// buildContext assembles the model input: persona first, then the repaired,
// turn-bounded tail of the conversation.
func (e *Engine) buildContext(ctx context.Context, conversationID string) ([]llm.Message, error) {
	recent, err := e.store.GetContext(ctx, conversationID, e.sysCfg.MaxContextTurns)
	if err != nil {
		return nil, fmt.Errorf("failed to load context: %w", err)
	}

	msgs := make([]llm.Message, 0, len(recent)+1)
	if e.persona != "" {
		msgs = append(msgs, llm.NewSystemMessage(e.persona))
	}
	return append(msgs, recent...), nil
}

// dispatchAndCommit executes one tool call under the dispatch timeout and
// commits both the audit record and the tool message. Tool failures become
// error payloads the model sees on the next call, never turn failures.
func (e *Engine) dispatchAndCommit(ctx context.Context, conversationID, turnID string, tc llm.ToolCall) error {
	timeout := time.Duration(e.sysCfg.ToolTimeoutMs) * time.Millisecond
	dispatchCtx, cancel := context.WithTimeout(ctx, timeout)
	rec := e.registry.Dispatch(dispatchCtx, tc)
	cancel()

	rec.TurnID = turnID

	if err := e.store.AppendToolRecord(ctx, conversationID, rec); err != nil {
		return fmt.Errorf("failed to persist tool record: %w", err)
	}

	content := rec.Output
	if rec.Error != "" {
		content = fmt.Sprintf("Error: %s", rec.Error)
	}

	toolMsg := llm.Message{
		MessageID:  utils.GenerateID(),
		TurnID:     turnID,
		Role:       llm.RoleTool,
		Content:    content,
		ToolCallID: tc.ID,
		ToolName:   tc.Name,
		Timestamp:  time.Now().Unix(),
	}
	if err := e.store.AppendMessage(ctx, conversationID, toolMsg); err != nil {
		return fmt.Errorf("failed to persist tool message: %w", err)
	}
	return nil
}

// emit forwards an event unless the caller has gone away. A disconnected
// client stops the streaming but never the turn.
func (e *Engine) emit(ctx context.Context, out chan<- api.OutputEvent, ev api.OutputEvent) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}
