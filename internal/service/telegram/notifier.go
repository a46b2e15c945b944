package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	drepo "TrendPulse/internal/domain/repository"
	xhttp "TrendPulse/pkg/http"
)

const defaultAPIURL = "https://api.telegram.org"

// Notifier implements the Notifier collaborator over the Telegram Bot API.
// Delivery is fire-and-forget from the caller's perspective; errors are
// returned for logging only.
type Notifier struct {
	apiURL string
	token  string
	chatID string
	client *xhttp.Client
}

// New creates a Telegram notifier.
func New(apiURL, token, chatID string) drepo.Notifier {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Notifier{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		chatID: chatID,
		client: xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
	}
}

type sendMessageReq struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResp struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers one formatted text report.
func (n *Notifier) Send(ctx context.Context, text string) error {
	var resp sendMessageResp
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.token),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: sendMessageReq{ChatID: n.chatID, Text: text, ParseMode: "Markdown"},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram send: %s", resp.Description)
	}
	return nil
}
