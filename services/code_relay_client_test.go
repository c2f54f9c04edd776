package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tote-sponsor-system/models"
)

func TestCodeRelayClientSendsCode(t *testing.T) {
	var got relayRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/codes", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewCodeRelayClient(srv.URL, "relay-token")
	require.NoError(t, client.SendCode(context.Background(), models.IdentifierPhone, "9876543210", "123456"))

	assert.Equal(t, "Bearer relay-token", auth)
	assert.Equal(t, relayRequest{Channel: models.IdentifierPhone, To: "9876543210", Code: "123456"}, got)
}

func TestCodeRelayClientFailureSurfacesAsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusBadGateway)
	}))
	defer srv.Close()

	svc, _, _, user := newVerificationFixture(t)
	svc.sender = NewCodeRelayClient(srv.URL, "")

	_, _, err := svc.RequestChallenge(context.Background(), user.ID, models.IdentifierPhone, "9876543210")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream_error")
}
