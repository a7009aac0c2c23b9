// Package telegram is the outbound adapter for the chat backend. The retrying
// verification path goes through the telebot client; the application path and
// the startup/health probes use the plain bot HTTP API directly.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "formrelay/pkg/logx"
)

const defaultAPIBase = "https://api.telegram.org"

// ErrNotConfigured is returned when a send is attempted without a bot token
// or destination chat. Startup validation normally catches this first; the
// request path still maps it to a configuration error response.
var ErrNotConfigured = errors.New("telegram bot is not configured")

type Config struct {
	Token string
	// ChatID is the destination chat for relayed submissions.
	ChatID int64
	// OperatorChatID receives best-effort failure notifications
	// (falls back to ChatID when zero).
	OperatorChatID int64
	// Timeout bounds each outbound API call.
	Timeout time.Duration
	// APIBase overrides the bot API host (tests, self-hosted bot API).
	APIBase string
}

type Adapter struct {
	cfg Config
	log logx.Logger

	bot  *tele.Bot
	http *http.Client
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrNotConfigured
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	// Offline keeps construction from hitting the network; the app probes
	// reachability separately so a flaky API at boot doesn't kill the service.
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIBase,
		Client:  client,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log, bot: b, http: client}, nil
}

// DestinationChat returns the configured submission chat id.
func (a *Adapter) DestinationChat() int64 { return a.cfg.ChatID }

// OperatorChat returns the failure-notification chat id.
func (a *Adapter) OperatorChat() int64 {
	if a.cfg.OperatorChatID != 0 {
		return a.cfg.OperatorChatID
	}
	return a.cfg.ChatID
}

func (a *Adapter) SendText(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return ErrNotConfigured
	}
	_, err := a.bot.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}

func (a *Adapter) SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string) error {
	if chatID == 0 {
		return ErrNotConfigured
	}
	p := &tele.Photo{File: tele.FromReader(bytes.NewReader(photo)), Caption: caption}
	_, err := a.bot.Send(&tele.Chat{ID: chatID}, p)
	return err
}

// PostText sends a text message through the bot HTTP API without going
// through telebot. This is the non-retrying direct path; the error reflects
// the API's acknowledgment flag.
func (a *Adapter) PostText(ctx context.Context, chatID int64, text string) error {
	if strings.TrimSpace(a.cfg.Token) == "" || chatID == 0 {
		return ErrNotConfigured
	}

	payload := struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}{ChatID: chatID, Text: text}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := a.apiBase() + "/bot" + strings.TrimSpace(a.cfg.Token) + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeAPIStatus("sendMessage", resp)
}

// Ping probes the bot API base host with a single un-retried request.
// Any HTTP response counts as reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase(), http.NoBody)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// Check calls getMe to verify the token against the bot API.
func (a *Adapter) Check(ctx context.Context) error {
	url := a.apiBase() + "/bot" + strings.TrimSpace(a.cfg.Token) + "/getMe"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeAPIStatus("getMe", resp)
}

func (a *Adapter) apiBase() string {
	if b := strings.TrimSpace(a.cfg.APIBase); b != "" {
		return strings.TrimSuffix(b, "/")
	}
	return defaultAPIBase
}

func decodeAPIStatus(method string, resp *http.Response) error {
	var out struct {
		OK          bool   `json:"ok"`
		ErrorCode   int    `json:"error_code"`
		Description string `json:"description"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode/100 != 2 || !out.OK {
		if out.Description != "" {
			return fmt.Errorf("telegram %s failed: %s (code=%d http=%d)", method, out.Description, out.ErrorCode, resp.StatusCode)
		}
		return fmt.Errorf("telegram %s failed: http=%d", method, resp.StatusCode)
	}
	return nil
}

// ChatSender binds the adapter to one chat so callers that only ever address
// a fixed destination (the relay, the handlers) don't carry chat ids around.
type ChatSender struct {
	a      *Adapter
	chatID int64
}

func (a *Adapter) To(chatID int64) *ChatSender {
	return &ChatSender{a: a, chatID: chatID}
}

func (s *ChatSender) SendText(ctx context.Context, text string) error {
	return s.a.SendText(ctx, s.chatID, text)
}

func (s *ChatSender) SendPhoto(ctx context.Context, photo []byte, caption string) error {
	return s.a.SendPhoto(ctx, s.chatID, photo, caption)
}

func (s *ChatSender) PostText(ctx context.Context, text string) error {
	return s.a.PostText(ctx, s.chatID, text)
}
