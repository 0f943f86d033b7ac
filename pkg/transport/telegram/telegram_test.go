package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "123:abc"

func newServer(t *testing.T, handler func(w http.ResponseWriter, params map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bot"+token+"/sendMessage", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		params := map[string]any{}
		require.NoError(t, json.Unmarshal(raw, &params))
		w.Header().Set("Content-Type", "application/json")
		handler(w, params)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendReturnsMessageAck(t *testing.T) {
	var got map[string]any
	srv := newServer(t, func(w http.ResponseWriter, params map[string]any) {
		got = params
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":77,"date":0,"chat":{"id":-1001,"type":"channel"},"text":"x"}}`)
	})

	tr, err := New(Config{Token: token, APIURL: srv.URL, Timeout: time.Second, RatePerSec: 100})
	require.NoError(t, err)

	payload := []byte(`{"body":"release notes","channel":"@news","context":null,"tags":["ios","beta build"],"timestamp":42}`)
	ack, err := tr.Send(context.Background(), "chat:@news", payload)
	require.NoError(t, err)
	assert.Equal(t, "telegram-@news-77", ack)

	assert.Equal(t, "@news", got["chat_id"])
	assert.Equal(t, "release notes\n\n#ios #beta_build", got["text"])
}

func TestSendMapsAPIError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	tr, err := New(Config{Token: token, APIURL: srv.URL, Timeout: time.Second, RatePerSec: 100})
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), "chat:C1", []byte(`{"body":"b","channel":"C1","context":null,"tags":[],"timestamp":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendRejectsBadPayload(t *testing.T) {
	tr, err := New(Config{Token: token, APIURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), "chat:C1", []byte(`not json`))
	assert.Error(t, err)

	_, err = tr.Send(context.Background(), "chat:", []byte(`{"body":"b","channel":"","tags":[],"timestamp":1}`))
	assert.Error(t, err)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(Config{Token: "  "})
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	assert.Equal(t, "hello", Text("hello", nil))
	assert.Equal(t, "hello", Text("hello", []string{" "}))
	assert.Equal(t, "hello\n\n#a #b", Text("hello", []string{"a", "b"}))
}
