package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewTelegramNotifier_RequiresCredentials(t *testing.T) {
	_, err := NewTelegramNotifier("", "", "42")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewTelegramNotifier("", "token", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTelegramNotifier_SendsEscapedHTML(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botsecret/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(srv.URL, "secret", "1001")
	require.NoError(t, err)
	require.NoError(t, n.Notify(context.Background(), "BTC <score> & ETH > 3"))

	assert.Equal(t, "1001", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "BTC &lt;score&gt; &amp; ETH &gt; 3", got["text"])
}

func TestTelegramNotifier_ReportsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(srv.URL, "secret", "1001")
	require.NoError(t, err)
	err = n.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	text := "aaaa\nbbbb\ncccc"
	chunks := splitMessage(text, 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc"}, chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))

	chunks = splitMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), "📉 SHORT: No open positions."))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "📉 SHORT: No open positions.", logs.All()[0].ContextMap()["text"])
}
