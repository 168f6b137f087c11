package auth

import (
	"net/http"
	"time"
)

const (
	RefreshCookieName = "refreshToken"
	RefreshCookiePath = "/api/v1/auth"
)

// CookiePolicy is applied identically when the refresh cookie is set and
// when it is cleared, so browsers always match the two.
type CookiePolicy struct {
	Secure bool
	Domain string
	Path   string
}

func (p CookiePolicy) base() *http.Cookie {
	path := p.Path
	if path == "" {
		path = RefreshCookiePath
	}
	return &http.Cookie{
		Name:     RefreshCookieName,
		Path:     path,
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Set writes the refresh cookie. maxAge is the refresh token lifetime;
// Expires carries the token's own exp for clients that ignore Max-Age.
func (p CookiePolicy) Set(w http.ResponseWriter, token string, expiresAt time.Time, maxAge time.Duration) {
	cookie := p.base()
	cookie.Value = token
	cookie.Expires = expiresAt.UTC()
	cookie.MaxAge = int(maxAge / time.Second)
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}

func (p CookiePolicy) Clear(w http.ResponseWriter) {
	cookie := p.base()
	cookie.Value = ""
	cookie.Expires = time.Unix(0, 0).UTC()
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func refreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
