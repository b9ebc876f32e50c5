package handlers

import (
	"net/http"

	"github.com/edutrack/edutrack/api/internal/config"
	"github.com/edutrack/edutrack/api/internal/models"
)

// cookieJar writes the token cookies with the configured attributes.
type cookieJar struct {
	cfg config.CookieConfig
}

func (j cookieJar) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   j.cfg.Domain,
		MaxAge:   maxAge,
		Secure:   j.cfg.IsSecure(),
		HttpOnly: true,
		SameSite: j.cfg.SameSiteMode(),
	})
}

func (j cookieJar) setTokens(w http.ResponseWriter, pair *models.TokenPair) {
	j.set(w, j.cfg.AccessName, pair.AccessToken, pair.AccessMaxAge)
	j.set(w, j.cfg.RefreshName, pair.RefreshToken, pair.RefreshMaxAge)
}

func (j cookieJar) setAccess(w http.ResponseWriter, token string, maxAge int) {
	j.set(w, j.cfg.AccessName, token, maxAge)
}

// clear deletes both cookies. Attributes must match the ones they were set
// with or browsers keep the originals.
func (j cookieJar) clear(w http.ResponseWriter) {
	j.set(w, j.cfg.AccessName, "", -1)
	j.set(w, j.cfg.RefreshName, "", -1)
}

func (j cookieJar) read(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
