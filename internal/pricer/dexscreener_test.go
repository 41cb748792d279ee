package pricer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPair = "0x2222222222222222222222222222222222222222"

func newQuoteServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/pairs/sonic/"+testPair, r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestQuote_Success(t *testing.T) {
	srv := newQuoteServer(t, http.StatusOK, `{"pair":{"priceUsd":"2.50"}}`)
	defer srv.Close()

	client := NewClient(srv.URL, "sonic")

	price, ok := client.Quote(context.Background(), testPair)
	require.True(t, ok)
	assert.Equal(t, "2.5", price.String())
}

func TestQuote_FailuresReturnUnknown(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"接口返回500", http.StatusInternalServerError, ""},
		{"交易对不存在", http.StatusOK, `{"pair":null}`},
		{"报价为空字符串", http.StatusOK, `{"pair":{"priceUsd":""}}`},
		{"报价为0", http.StatusOK, `{"pair":{"priceUsd":"0"}}`},
		{"报价不是数字", http.StatusOK, `{"pair":{"priceUsd":"abc"}}`},
		{"返回体不是JSON", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newQuoteServer(t, tt.status, tt.body)
			defer srv.Close()

			client := NewClient(srv.URL, "sonic")

			price, ok := client.Quote(context.Background(), testPair)
			assert.False(t, ok)
			assert.True(t, price.IsZero())
		})
	}
}

// 网络不可达时降级为价格未知，不panic不报错
func TestQuote_NetworkError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "sonic")

	_, ok := client.Quote(context.Background(), testPair)
	assert.False(t, ok)
}

func TestNewClient_DefaultAPIURL(t *testing.T) {
	client := NewClient("", "sonic")
	assert.Equal(t, defaultAPIURL, client.apiURL)
}
