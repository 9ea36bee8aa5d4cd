package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorul/tradingbot/internal/config"
)

func TestRenderMarkdownFullMessage(t *testing.T) {
	m := StructuredMessage{
		Icon:  "💰",
		Title: "盈亏汇报",
		Sections: []MessageSection{
			{Title: "账户", Lines: []string{"余额: 1000.50", "净值: 1004.00"}},
			{Title: "持仓", Lines: []string{"EURUSD buy 0.01"}},
		},
		Footer:    "magic=77",
		Timestamp: time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC),
	}

	want := strings.Join([]string{
		"💰 盈亏汇报",
		"",
		"```",
		"账户",
		"- 余额: 1000.50",
		"- 净值: 1004.00",
		"",
		"持仓",
		"- EURUSD buy 0.01",
		"```",
		"",
		"magic=77",
		"时间：2024-01-02 10:30:00 UTC",
	}, "\n")
	assert.Equal(t, want, m.RenderMarkdown())
}

func TestRenderMarkdownSkipsEmptySections(t *testing.T) {
	m := StructuredMessage{
		Title:    "提示",
		Sections: []MessageSection{{Title: "空", Lines: []string{"  ", ""}}},
	}
	got := m.RenderMarkdown()
	assert.Equal(t, "提示", got)
	assert.NotContains(t, got, "```")
}

func TestRenderMarkdownTitleOnly(t *testing.T) {
	m := StructuredMessage{Title: "标题"}
	assert.Equal(t, "标题", m.RenderMarkdown())
}

func TestRenderMarkdownSanitizesFences(t *testing.T) {
	m := StructuredMessage{
		Sections: []MessageSection{{Lines: []string{"code ``` fence"}}},
		Footer:   "tail ``` text",
	}
	got := m.RenderMarkdown()
	assert.Contains(t, got, "- code ''' fence")
	assert.Contains(t, got, "tail ''' text")
}

func TestRenderMarkdownTruncatesLongBody(t *testing.T) {
	m := StructuredMessage{Title: strings.Repeat("a", maxStructuredMessageLen+500)}
	got := m.RenderMarkdown()
	assert.Len(t, got, maxStructuredMessageLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestFromConfig(t *testing.T) {
	var cfg config.NotifyConfig
	n := FromConfig(cfg)
	_, ok := n.(Nop)
	assert.True(t, ok)
	assert.NoError(t, n.SendText("dropped"))

	cfg.Telegram.Enabled = true
	cfg.Telegram.BotToken = "tok"
	cfg.Telegram.ChatID = "42"
	tg, ok := FromConfig(cfg).(*Telegram)
	require.True(t, ok)
	assert.Equal(t, "tok", tg.BotToken)
	assert.Equal(t, "42", tg.ChatID)
}

type capturedRequest struct {
	url  string
	body []byte
}

type stubTransport struct {
	status   int
	captured []capturedRequest
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	s.captured = append(s.captured, capturedRequest{url: req.URL.String(), body: body})
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     make(http.Header),
	}, nil
}

func TestTelegramSendText(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK}
	tg := NewTelegram("tok123", "-100")
	tg.Client = &http.Client{Transport: transport}

	require.NoError(t, tg.SendText("hello *world*"))
	require.Len(t, transport.captured, 1)

	req := transport.captured[0]
	assert.Equal(t, "https://api.telegram.org/bottok123/sendMessage", req.url)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(req.body, &payload))
	assert.Equal(t, "-100", payload["chat_id"])
	assert.Equal(t, "hello *world*", payload["text"])
	assert.Equal(t, "Markdown", payload["parse_mode"])
}

func TestTelegramSendTextRequiresConfig(t *testing.T) {
	tg := NewTelegram("", "")
	assert.Error(t, tg.SendText("hello"))
}
