package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplier-chat/internal/models"
	"supplier-chat/internal/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api", session.NewStatic("tok"), nil)
	require.NoError(t, err)
	return c
}

func TestThreadMessages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/threads/3", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"thread_id":3,"content":"hi","sender_id":7,"receiver_id":1,"status":"read","created_at":"2026-01-02T03:04:05Z"},
			{"id":2,"thread_id":3,"content":"yes","sender_id":1,"receiver_id":7,"status":"sent"}]`))
	})

	msgs, err := c.ThreadMessages(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(1), msgs[0].ID)
	assert.Equal(t, models.StatusRead, msgs[0].Status)
	require.NotNil(t, msgs[0].CreatedAt)
	assert.Equal(t, 2026, msgs[0].CreatedAt.Year())
	assert.Nil(t, msgs[1].CreatedAt)
}

func TestThreads(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/threads", r.URL.Path)
		_, _ = w.Write([]byte(`[{"thread_id":3,"listing_id":"L-1","listing_title":"Bricks","correspondent_id":7,"correspondent_name":"Acme"}]`))
	})

	threads, err := c.Threads(context.Background())
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, int64(7), threads[0].CorrespondentID)
	assert.Equal(t, "Acme", threads[0].CorrespondentName)
}

func TestNon2xxCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"not a participant"}`))
	})

	_, err := c.ThreadMessages(context.Background(), 3)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, "not a participant", statusErr.Message)
}

func TestMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	})

	_, err := c.Threads(context.Background())
	assert.Error(t, err)
}

func TestTokenFailureSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, session.NewStatic(""), nil)
	require.NoError(t, err)

	_, err = c.Threads(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.False(t, called)
}
