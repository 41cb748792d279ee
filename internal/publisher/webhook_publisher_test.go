package publisher

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reddragonlabs/dragon-signal/internal/model"
)

func TestWebhookPublish_PayloadShape(t *testing.T) {
	var got WebhookPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, newTestFormatter())

	alert := newTestAlert()
	alert.Media = model.MediaAsset{Kind: model.MediaVideo, Path: "/assets/videos/a.mp4"}

	require.NoError(t, p.Publish(alert))

	assert.Equal(t, "1500", got.Tokens)
	assert.Equal(t, "3.00", got.AmountUSD)
	assert.Equal(t, "0x3333abcdef000000000000000000000000009999", got.Buyer)
	assert.Equal(t, "https://sonicscan.io/address/0x3333abcdef000000000000000000000000009999", got.BuyerURL)
	assert.Equal(t, "https://sonicscan.io/tx/0xdeadbeef", got.TxURL)
	assert.Equal(t, "/assets/videos/a.mp4", got.MediaPath)
	assert.Contains(t, got.MessageText, "DRAGON 买入告警")
}

// 下游返回非2xx视为投递失败，由调用方记录，不中断管道
func TestWebhookPublish_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, newTestFormatter())

	assert.Error(t, p.Publish(newTestAlert()))
}
