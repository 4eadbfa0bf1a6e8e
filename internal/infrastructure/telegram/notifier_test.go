package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDesk/internal/config"
	"NewsDesk/internal/domain"
)

func TestFormatBreaking(t *testing.T) {
	msg := FormatBreaking(domain.BreakingNews{Headline: "Fed <cuts> rates", Link: "/news/fed-cuts"}, "https://desk.example.com")
	assert.Equal(t, "🚨 <b>Breaking:</b> Fed &lt;cuts&gt; rates\n<a href=\"https://desk.example.com/news/fed-cuts\">Read more</a>", msg)

	msg = FormatBreaking(domain.BreakingNews{Headline: "No link"}, "")
	assert.Equal(t, "🚨 <b>Breaking:</b> No link", msg)
}

func TestPublishBreaking(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		sent  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		calls = append(calls, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			sent = r.Form.Get("text")
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"desk","username":"desk_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"channel"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	n := NewNotifier(config.TelegramConfig{
		BotToken: "token",
		ChatID:   "42",
		APIURL:   srv.URL + "/bot%s/%s",
	})

	news := domain.BreakingNews{Headline: "Markets rally", Link: "/news/markets-rally"}
	require.NoError(t, n.PublishBreaking(context.Background(), news))
	require.NoError(t, n.PublishBreaking(context.Background(), news))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/bottoken/getMe", "/bottoken/sendMessage", "/bottoken/sendMessage"}, calls)
	assert.Contains(t, sent, "Markets rally")
}

func TestPublishBreakingMisconfigured(t *testing.T) {
	n := NewNotifier(config.TelegramConfig{})
	assert.Error(t, n.PublishBreaking(context.Background(), domain.BreakingNews{Headline: "x"}))
}
