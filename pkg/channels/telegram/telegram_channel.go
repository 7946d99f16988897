package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"concierge/pkg/api"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig holds the credentials for the Telegram Bot API.
type TelegramConfig struct {
	Token string `json:"token"` // The secret BOT API string provided by @BotFather
}

// TelegramChannel is the Telegram transport: a long-polling update loop
// feeding the gateway, with replies buffered into chunked messages since
// Telegram has no mid-message streaming.
type TelegramChannel struct {
	config       TelegramConfig
	bot          *tgbotapi.BotAPI
	gw           api.Gateway
	messageLimit int
	stopCtx      context.Context
	stopCancel   context.CancelFunc
}

func NewTelegramChannel(cfg TelegramConfig, msgLimit int) (*TelegramChannel, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Dedicated HTTP client tied to stopCtx so active long-polling requests
	// are aborted on Stop(), preventing 409 Conflict on restart.
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	botHTTPClient := &http.Client{
		Timeout: 70 * time.Second,
		Transport: &http.Transport{
			DialContext: func(dialCtx context.Context, network, addr string) (net.Conn, error) {
				mergedCtx, mergedCancel := context.WithCancel(dialCtx)
				go func() {
					select {
					case <-ctx.Done():
						mergedCancel()
					case <-mergedCtx.Done():
					}
				}()
				return dialer.DialContext(mergedCtx, network, addr)
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, botHTTPClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	return &TelegramChannel{
		config:       cfg,
		bot:          bot,
		messageLimit: msgLimit,
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

// ID returns the unique platform identifier "telegram".
func (t *TelegramChannel) ID() string {
	return "telegram"
}

// Start runs the long-polling update loop in a background goroutine.
// Each text message becomes a ChatRequest keyed to the Telegram chat.
func (t *TelegramChannel) Start(gw api.Gateway) error {
	t.gw = gw
	offset := 0

	go func() {
		for {
			select {
			case <-t.stopCtx.Done():
				return
			default:
			}

			reqConfig := tgbotapi.NewUpdate(offset)
			reqConfig.Timeout = 60

			updates, err := t.bot.GetUpdates(reqConfig)
			if err != nil {
				select {
				case <-t.stopCtx.Done():
					return
				default:
					slog.Debug("Failed to get telegram updates", "error", err)
					time.Sleep(3 * time.Second)
					continue
				}
			}

			for _, update := range updates {
				if update.UpdateID < offset {
					continue
				}
				offset = update.UpdateID + 1

				if update.Message == nil || update.Message.Text == "" {
					continue
				}

				chatID := update.Message.Chat.ID
				req := api.ChatRequest{
					ConversationID: "tg_" + strconv.FormatInt(chatID, 10),
					UserID:         strconv.FormatInt(update.Message.From.ID, 10),
					Content:        update.Message.Text,
				}

				go t.handleTurn(chatID, req)
			}
		}
	}()

	return nil
}

// handleTurn runs one turn and flushes the buffered reply back to the chat.
func (t *TelegramChannel) handleTurn(chatID int64, req api.ChatRequest) {
	t.sendTyping(chatID)

	events, err := t.gw.Chat(t.stopCtx, req)
	if err != nil {
		t.send(chatID, "❌ "+err.Error())
		return
	}

	var thinkingBuf strings.Builder
	var textBuf strings.Builder
	for ev := range events {
		switch ev.Type {
		case api.EventThinking:
			thinkingBuf.WriteString(ev.Chunk)
		case api.EventContent:
			textBuf.WriteString(ev.Chunk)
		case api.EventError:
			textBuf.WriteString("\n❌ " + ev.Error)
		}
	}

	if thinkingBuf.Len() > 0 {
		if err := t.send(chatID, "💭 Reasoning process:\n\n"+thinkingBuf.String()); err != nil {
			slog.Error("Failed to send thinking", "error", err)
		}
	}

	if textBuf.Len() > 0 {
		if err := t.send(chatID, textBuf.String()); err != nil {
			slog.Error("Failed to send reply", "error", err)
		}
	}
}

func (t *TelegramChannel) sendTyping(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := t.bot.Request(action); err != nil {
		slog.Debug("Failed to send typing action", "error", err)
	}
}

// send splits long replies into limit-sized message bubbles.
func (t *TelegramChannel) send(chatID int64, message string) error {
	msgRunes := []rune(message)
	totalLen := len(msgRunes)

	if totalLen <= t.messageLimit {
		msg := tgbotapi.NewMessage(chatID, message)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send failed: %w", err)
		}
		return nil
	}

	for i := 0; i < totalLen; i += t.messageLimit {
		end := i + t.messageLimit
		if end > totalLen {
			end = totalLen
		}
		chunk := string(msgRunes[i:end])
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send chunk failed at index %d: %w", i, err)
		}
	}

	return nil
}

func (t *TelegramChannel) Stop() error {
	t.stopCancel()

	// Clear the connection pool; active long-polls die via the dialer ctx
	if httpClient, ok := t.bot.Client.(*http.Client); ok && httpClient != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}

	return nil
}
