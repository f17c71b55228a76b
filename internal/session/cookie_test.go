package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieManager_MintsAndKeepsSessionID(t *testing.T) {
	manager := NewCookieManager("test-secret", false)

	// First contact mints a session ID and sets the cookie.
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	first, err := manager.SessionID(recorder, request)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == cookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	// Replaying the cookie returns the same ID without re-setting it.
	replay := httptest.NewRequest(http.MethodPost, "/", nil)
	replay.AddCookie(sessionCookie)
	replayRecorder := httptest.NewRecorder()

	second, err := manager.SessionID(replayRecorder, replay)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCookieManager_DistinctClientsGetDistinctIDs(t *testing.T) {
	manager := NewCookieManager("test-secret", false)

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		sid, err := manager.SessionID(recorder, request)
		require.NoError(t, err)
		ids[sid] = true
	}

	assert.Len(t, ids, 3)
}

func TestCookieManager_TamperedCookieGetsFreshSession(t *testing.T) {
	manager := NewCookieManager("test-secret", false)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: cookieName, Value: "not-a-valid-signed-value"})
	recorder := httptest.NewRecorder()

	sid, err := manager.SessionID(recorder, request)
	require.NoError(t, err)
	assert.NotEmpty(t, sid)
}

func TestCookieManager_SignatureBoundToSecret(t *testing.T) {
	// A cookie signed under one secret must not validate under another.
	signer := NewCookieManager("secret-one", false)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	original, err := signer.SessionID(recorder, request)
	require.NoError(t, err)

	var sessionCookie *http.Cookie
	for _, c := range recorder.Result().Cookies() {
		if c.Name == cookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)

	verifier := NewCookieManager("secret-two", false)
	replay := httptest.NewRequest(http.MethodGet, "/", nil)
	replay.AddCookie(sessionCookie)

	sid, err := verifier.SessionID(httptest.NewRecorder(), replay)
	require.NoError(t, err)
	assert.NotEqual(t, original, sid)
}
