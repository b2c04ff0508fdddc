package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"hello":"world"}`, string(body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(0)
	resp, err := client.PostJSON(context.Background(), server.URL, []byte(`{"hello":"world"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestClient_PostJSON_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(time.Second).PostJSON(ctx, server.URL, []byte(`{}`))
	assert.Error(t, err)
}

func TestNewClient_Timeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), NewClient(0).httpClient.Timeout)
	assert.Equal(t, 3*time.Second, NewClient(3*time.Second).httpClient.Timeout)
}
