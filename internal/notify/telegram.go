package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// TelegramMaxRunes is the Bot API limit for one message.
const TelegramMaxRunes = 4096

const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram sends reports through the Bot API sendMessage method.
type Telegram struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

func NewTelegram(token, baseURL string) *Telegram {
	if token == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultTelegramAPI
	}
	return &Telegram{
		Token:   token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramPayload struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Deliver sends text to the chat, split into several messages when it
// exceeds the Bot API limit. It stops at the first failed part.
func (t *Telegram) Deliver(ctx context.Context, chatID, text string) Outcome {
	if t == nil || t.Token == "" {
		return failure("no telegram token configured")
	}
	if chatID == "" {
		return failure("no chat id")
	}
	parts := SplitMessage(text, TelegramMaxRunes)
	for i, part := range parts {
		if err := t.send(ctx, chatID, part); err != nil {
			if len(parts) > 1 {
				return failure(fmt.Sprintf("part %d/%d: %v", i+1, len(parts), err))
			}
			return fromErr(err)
		}
	}
	return success()
}

func (t *Telegram) send(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(telegramPayload{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}
	url := t.BaseURL + "/bot" + t.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return redact(err, t.Token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return redact(err, t.Token)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode/100 != 2 {
		var tr telegramResponse
		if json.Unmarshal(raw, &tr) == nil && tr.Description != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, tr.Description)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// redact keeps the bot token out of error strings (url.Error embeds the URL).
func redact(err error, token string) error {
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}

// SplitMessage breaks text into parts of at most max runes, preferring line
// boundaries. A single line longer than max is hard-split.
func SplitMessage(text string, max int) []string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}
	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > max {
			flush()
		}
		for n > max {
			r := []rune(line)
			parts = append(parts, string(r[:max]))
			line = string(r[max:])
			n -= max
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return parts
}
