package telegram

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsDesk/internal/config"
	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// Notifier announces breaking news in a Telegram chat via the Bot API.
type Notifier struct {
	botToken string
	chatID   string
	endpoint string
	siteURL  string
	client   *http.Client

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. The bot session is
// opened on first use.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	endpoint := cfg.APIURL
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &Notifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		endpoint: endpoint,
		siteURL:  strings.TrimSuffix(cfg.SiteURL, "/"),
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishBreaking posts the headline and link as an HTML message.
func (n *Notifier) PublishBreaking(ctx context.Context, news domain.BreakingNews) error {
	if n.botToken == "" || n.chatID == "" {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	api, err := n.bot()
	if err != nil {
		return err
	}

	msg := n.message(FormatBreaking(news, n.siteURL))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := api.Send(msg); err != nil {
		return fmt.Errorf("send breaking news: %w", err)
	}
	return nil
}

func (n *Notifier) bot() (*tgbotapi.BotAPI, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.api != nil {
		return n.api, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(n.botToken, n.endpoint, n.client)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	n.api = api
	return api, nil
}

func (n *Notifier) message(text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(n.chatID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(n.chatID, text)
}

// FormatBreaking renders the breaking-news message.
func FormatBreaking(news domain.BreakingNews, siteURL string) string {
	link := news.Link
	if strings.HasPrefix(link, "/") && siteURL != "" {
		link = siteURL + link
	}

	var b strings.Builder
	b.WriteString("🚨 <b>Breaking:</b> ")
	b.WriteString(html.EscapeString(news.Headline))
	if link != "" {
		b.WriteString("\n")
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(link))
		b.WriteString(`">Read more</a>`)
	}
	return b.String()
}
