package auth

import (
	"net/http"
	"strings"
	"time"
)

// SessionCookieName is the cookie holding the session token
const SessionCookieName = "vault_session"

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain   string // empty: current host only
	Secure   bool
	SameSite string // strict, lax or none
}

// newSessionCookie builds the session cookie. It is always httpOnly and
// scoped to the whole site so the calculator page and the API share it.
func newSessionCookie(value string, maxAge int, config CookieConfig) *http.Cookie {
	sameSite := parseSameSite(config.SameSite)
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		// Browsers drop SameSite=None cookies that are not Secure
		Secure:   config.Secure || sameSite == http.SameSiteNoneMode,
		SameSite: sameSite,
	}
}

// SetSessionCookie stores the session token for maxAge seconds
func SetSessionCookie(w http.ResponseWriter, token string, maxAge int, config CookieConfig) {
	c := newSessionCookie(token, maxAge, config)
	c.Expires = time.Now().Add(time.Duration(maxAge) * time.Second)
	http.SetCookie(w, c)
}

// ClearSessionCookie tells the browser to drop the session cookie
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, newSessionCookie("", -1, config))
}

// GetSessionCookie returns the session token sent with r
func GetSessionCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// parseSameSite defaults to Strict: the vault is never embedded cross-site
func parseSameSite(sameSite string) http.SameSite {
	switch strings.ToLower(sameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
