package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestProvider(t *testing.T, userInfo string, status int) *GoogleProvider {
	return newTestProviderWithDelay(t, userInfo, status, 0)
}

func newTestProviderWithDelay(t *testing.T, userInfo string, status int, delay time.Duration) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"ya29.token","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			if delay > 0 {
				select {
				case <-r.Context().Done():
					return
				case <-time.After(delay):
				}
			}
			assert.Equal(t, "Bearer ya29.token", r.Header.Get("Authorization"))
			w.WriteHeader(status)
			w.Write([]byte(userInfo))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	p := NewGoogleProvider("client", "secret", "http://localhost/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	p.userInfoURL = srv.URL + "/userinfo"
	return p
}

func TestAuthCodeURL_CarriesStateAndScopes(t *testing.T) {
	p := NewGoogleProvider("client", "secret", "http://localhost/callback")

	u, err := url.Parse(p.AuthCodeURL("state-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), GmailSendScope)
}

func TestExchange_Success(t *testing.T) {
	p := newTestProvider(t, `{"email":"alice@example.com","email_verified":true,"name":"Alice"}`, http.StatusOK)

	token, u, err := p.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", token.AccessToken)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
}

func TestExchange_UserInfoError(t *testing.T) {
	p := newTestProvider(t, `{"error":"nope"}`, http.StatusForbidden)

	_, _, err := p.Exchange(context.Background(), "code-1")
	assert.ErrorContains(t, err, "status=403")
}

func TestExchange_NoEmail(t *testing.T) {
	p := newTestProvider(t, `{"name":"Alice"}`, http.StatusOK)

	_, _, err := p.Exchange(context.Background(), "code-1")
	assert.Error(t, err)
}

func TestExchange_UserInfoHonoursContext(t *testing.T) {
	p := newTestProviderWithDelay(t, `{"email":"alice@example.com"}`, http.StatusOK, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := p.Exchange(ctx, "code-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
