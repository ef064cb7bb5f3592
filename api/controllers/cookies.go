package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/boardsync/internal/auth"
)

const (
	shopifyStateCookie = "bs_shopify_state"
	trelloStateCookie  = "bs_trello_state"
)

// setStateCookie scopes an OAuth state to the callback path. The board
// service flow starts inside the admin iframe, so the cookie is cross-site.
func setStateCookie(w http.ResponseWriter, name, path, value string, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(auth.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func clearStateCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func secureCookies(baseURL string) bool {
	return strings.HasPrefix(strings.ToLower(baseURL), "https://")
}
