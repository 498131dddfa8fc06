package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	BotToken  string `yaml:"bot_token" json:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChannelID string `yaml:"channel_id" json:"channel_id" env:"TELEGRAM_CHANNEL_ID"`
}

// Enabled reports whether both token and channel are set.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

// TelegramNotifier sends messages via Telegram Bot API.
type TelegramNotifier struct {
	config  TelegramConfig
	baseURL string
	http    *http.Client
}

// NewTelegramNotifier creates a new Telegram notifier.
func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		config:  cfg,
		baseURL: telegramAPIBase,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Channel() Channel { return ChannelTelegram }

// Send sends a message via Telegram. The body is sent as a preformatted
// block so report tables keep their alignment.
func (t *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	text := "```\n" + escapeCode(msg.Body) + "\n```"
	if msg.Title != "" {
		text = fmt.Sprintf("*%s*\n\n%s", escapeMarkdown(msg.Title), text)
	}
	if msg.URL != "" {
		text += fmt.Sprintf("\n\n[details](%s)", msg.URL)
	}

	payload := map[string]interface{}{
		"chat_id":    t.config.ChannelID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return nil
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

var codeEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`")

// escapeMarkdown escapes special characters for Telegram MarkdownV2.
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// escapeCode escapes the characters MarkdownV2 reserves inside code blocks.
func escapeCode(text string) string {
	return codeEscaper.Replace(text)
}
