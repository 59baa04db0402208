package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-corner/config"
)

func TestHTTPNotifier_Success(t *testing.T) {
	var (
		gotAuth string
		gotBody MatchNotification
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(&config.NotifierConfig{FunctionURL: srv.URL, APIKey: "secret", Timeout: time.Second})
	defer n.CloseIdleConnections()
	require.NoError(t, n.NotifyMatch(context.Background(), "23L-0632", "23L-0001"))

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, MatchNotification{Roll1: "23L-0632", Roll2: "23L-0001"}, gotBody)
}

func TestHTTPNotifier_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(&config.NotifierConfig{FunctionURL: srv.URL, Timeout: time.Second})
	defer n.CloseIdleConnections()
	err := n.NotifyMatch(context.Background(), "23L-0632", "23L-0001")
	assert.True(t, errors.Is(err, ErrNotificationFailed), "期望 ErrNotificationFailed，实际: %v", err)
}

func TestHTTPNotifier_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := NewHTTPNotifier(&config.NotifierConfig{FunctionURL: url, Timeout: time.Second})
	err := n.NotifyMatch(context.Background(), "23L-0632", "23L-0001")
	assert.True(t, errors.Is(err, ErrNotificationFailed))
}
