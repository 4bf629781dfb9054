package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/apparel-storefront/pkg/apiclient"
)

func TestSend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	msg := Message{
		From:    "shop@example.com",
		To:      []string{"support@example.com"},
		ReplyTo: "ada@example.com",
		Subject: "Return request for order 1042",
		HTML:    "<p>hi</p>",
	}
	id, err := NewClient(srv.URL, "re_key").Send(context.Background(), msg)

	require.NoError(t, err)
	assert.Equal(t, "email_123", id)
	assert.Equal(t, msg, got)
}

func TestSend_NoRecipients(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", "re_key").Send(context.Background(), Message{From: "shop@example.com"})

	assert.ErrorContains(t, err, "no recipients")
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "re_key").Send(context.Background(), Message{To: []string{"a@example.com"}})

	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "resend", statusErr.Service)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.Status)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("", "k").baseURL)
}
