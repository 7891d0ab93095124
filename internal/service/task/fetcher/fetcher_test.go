package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Run("정상_GET_요청", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		resp, err := Get(context.Background(), NewHTTPFetcher(), server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("잘못된_URL", func(t *testing.T) {
		_, err := Get(context.Background(), NewHTTPFetcher(), "://invalid-url")
		require.Error(t, err)
	})

	t.Run("컨텍스트_취소", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Get(ctx, NewHTTPFetcher(), server.URL)
		require.Error(t, err)
	})
}

func TestHTTPFetcher_Do_DefaultUserAgent(t *testing.T) {
	var receivedUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Run("User-Agent_미설정_시_기본값_적용", func(t *testing.T) {
		resp, err := Get(context.Background(), NewHTTPFetcher(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, defaultUserAgent, receivedUA)
	})

	t.Run("User-Agent_설정_시_유지", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "custom-agent")

		resp, err := NewHTTPFetcher().Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "custom-agent", receivedUA)
	})
}
