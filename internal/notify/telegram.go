package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/zalando/go-keyring"
)

// TelegramNotifier sends reminders to a chat via the Telegram Bot API.
type TelegramNotifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

type telegramSendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegramNotifier builds the sink from settings. When no bot token is configured
// it is read from the OS keyring, stored under the chat id.
func NewTelegramNotifier(s config.TelegramSettings) (*TelegramNotifier, error) {
	if s.ChatID == "" {
		return nil, errors.New(config.ErrTelegramConfig)
	}

	token := s.BotToken
	if token == "" {
		secret, err := keyring.Get(config.KeyringService, s.ChatID)
		if err != nil {
			slog.Debug(config.MsgKeyringMiss,
				config.LogKeyComponent, config.CompNotifier,
				config.LogKeyChat, s.ChatID,
				config.LogKeyError, err)
			return nil, fmt.Errorf("%s: %w", config.ErrKeyringLookup, err)
		}
		token = secret
	}

	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		base = config.TelegramAPIBase
	}

	return &TelegramNotifier{
		token:   token,
		chatID:  s.ChatID,
		baseURL: base,
		client:  &http.Client{Timeout: config.HTTPTimeout},
	}, nil
}

// StoreTelegramToken saves the bot token in the OS keyring for chatID.
func StoreTelegramToken(chatID, token string) error {
	if err := keyring.Set(config.KeyringService, chatID, token); err != nil {
		return fmt.Errorf("%s: %w", config.ErrKeyringLookup, err)
	}
	return nil
}

func (t *TelegramNotifier) Permission() string { return config.PermissionGranted }

func (t *TelegramNotifier) RequestPermission(context.Context) (string, error) {
	return config.PermissionGranted, nil
}

// Show posts the notification as an HTML message.
func (t *TelegramNotifier) Show(ctx context.Context, n Notification) error {
	text := fmt.Sprintf(config.FormatTelegramText,
		n.Icon, html.EscapeString(n.Title), html.EscapeString(n.Body))

	body, err := json.Marshal(telegramSendRequest{
		ChatID:    t.chatID,
		Text:      strings.TrimSpace(text),
		ParseMode: config.TelegramParseMode,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrTelegramAPI, err)
	}

	url := fmt.Sprintf(config.FormatTelegramURL, t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrTelegramAPI, err)
	}
	req.Header.Set(config.HeaderContentType, config.MimeJSON)
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrTelegramAPI, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxHTTPResponseSize))
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrTelegramAPI, err)
	}

	var tgResp telegramResponse
	if err := json.Unmarshal(raw, &tgResp); err != nil {
		return fmt.Errorf("%s: status %d: %w", config.ErrTelegramAPI, resp.StatusCode, err)
	}
	if !tgResp.OK {
		return fmt.Errorf("%s: %s", config.ErrTelegramAPI, tgResp.Description)
	}
	return nil
}
