package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gtdkeeper/internal/common"
	"github.com/dmitrijs2005/gtdkeeper/internal/wire"
)

func pinSource(pin string) PinFunc {
	return func(ctx context.Context) string { return pin }
}

func TestPost_AttachesPinHeader(t *testing.T) {
	var gotPin string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPin = r.Header.Get(common.PinHeaderName)
		json.NewEncoder(w).Encode(wire.Envelope{Success: true})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, pinSource("1234"))
	res := c.Post(context.Background(), "/sync", wire.SyncRequest{})

	assert.True(t, res.Success)
	assert.Equal(t, "1234", gotPin)
}

func TestPost_NoPinOmitsHeader(t *testing.T) {
	var hasHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasHeader = r.Header[common.PinHeaderName]
		json.NewEncoder(w).Encode(wire.Envelope{Success: true})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, pinSource(""))
	c.Get(context.Background(), "/health")

	assert.False(t, hasHeader)
}

func TestPost_NetworkErrorReturnsFailure(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", 200*time.Millisecond, pinSource("1234"))
	res := c.Post(context.Background(), "/sync", wire.SyncRequest{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "network error")
}

func TestPost_MalformedBodyReturnsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, pinSource("1234"))
	res := c.Post(context.Background(), "/sync", wire.SyncRequest{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "decode response")
}

func TestSync_DecodesServerChanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req wire.SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2025-01-01T00:00:00Z", req.LastSyncAt)

		data, _ := json.Marshal(wire.SyncData{
			ServerChanges: []wire.ChangeRecord{
				{EntityType: wire.EntityTask, Action: wire.ActionUpdate, Data: json.RawMessage(`{"id":"t1"}`)},
			},
			SyncAt: "2025-01-02T00:00:00Z",
		})
		json.NewEncoder(w).Encode(wire.Envelope{Success: true, Data: data})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, pinSource("1234"))
	data, err := c.Sync(context.Background(), wire.SyncRequest{LastSyncAt: "2025-01-01T00:00:00Z"})

	require.NoError(t, err)
	assert.Equal(t, "2025-01-02T00:00:00Z", data.SyncAt)
	require.Len(t, data.ServerChanges, 1)
	assert.Equal(t, wire.EntityTask, data.ServerChanges[0].EntityType)
}

func TestSync_NoPinDoesNotSendRequest(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, pinSource(""))
	_, err := c.Sync(context.Background(), wire.SyncRequest{})

	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.False(t, called)
}

func TestSync_ServerFailureWrapsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wire.Envelope{Success: false, Message: "invalid PIN"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, pinSource("9999"))
	_, err := c.Sync(context.Background(), wire.SyncRequest{})

	require.ErrorIs(t, err, common.ErrSyncFailed)
	assert.Contains(t, err.Error(), "invalid PIN")
}

func TestRegisterPin_ReturnsUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		data, _ := json.Marshal(wire.RegisterData{UserID: 42})
		json.NewEncoder(w).Encode(wire.Envelope{Success: true, Data: data})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, pinSource(""))
	data, err := c.RegisterPin(context.Background(), "1234")

	require.NoError(t, err)
	assert.Equal(t, int64(42), data.UserID)
}

func TestVerifyPin_ReportsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := json.Marshal(wire.VerifyData{Valid: false})
		json.NewEncoder(w).Encode(wire.Envelope{Success: true, Data: data})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, pinSource(""))
	data, err := c.VerifyPin(context.Background(), "0000")

	require.NoError(t, err)
	assert.False(t, data.Valid)
}

func TestHealth_OkAndFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wire.Envelope{Success: true})
	}))
	c := NewHTTPClient(srv.URL, time.Second, pinSource(""))
	assert.NoError(t, c.Health(context.Background()))
	srv.Close()

	assert.Error(t, c.Health(context.Background()))
}
