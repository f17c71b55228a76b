package session

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/dzivkovi/serverless-app-gemini/internal/logger"
)

const (
	cookieName = "gw_session"
	sidKey     = "sid"

	cookieMaxAge = 7 * 24 * 60 * 60
)

// CookieManager hands out stable per-client session IDs through a signed
// cookie. The cookie carries only the random ID; state stays server-side in
// a Store.
type CookieManager struct {
	store *sessions.CookieStore
}

// NewCookieManager builds the signed-cookie layer. secure marks the cookie
// HTTPS-only and should be set in production.
func NewCookieManager(secret string, secure bool) *CookieManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieManager{store: store}
}

// SessionID returns the client's session ID, minting one on first contact
// and writing the cookie to the response. A cookie that fails signature
// validation decodes into a fresh session rather than an error.
func (m *CookieManager) SessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := m.store.Get(r, cookieName)
	if err != nil {
		logger.Debug("Session cookie rejected, minting a new one", logger.Fields{"error": err.Error()})
	}

	if sid, ok := sess.Values[sidKey].(string); ok && sid != "" {
		return sid, nil
	}

	sid := uuid.NewString()
	sess.Values[sidKey] = sid
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return sid, nil
}
