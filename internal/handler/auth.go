package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/forgo/guildhall/api/internal/middleware"
	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/internal/service"
)

const (
	stateCookie    = "oauth_state"
	redirectCookie = "oauth_redirect"
	loginCookieTTL = 10 * time.Minute
)

// AuthCookie describes the cookie that carries the API token
type AuthCookie struct {
	Name   string
	Domain string
	MaxAge time.Duration
	Secure bool
}

// AuthHandlerConfig holds configuration for the auth handler
type AuthHandlerConfig struct {
	Registry *service.RegistryService
	// OAuth runs the login flow. Nil leaves GET /v1/auth unregistered.
	OAuth  *service.OAuthService
	Cookie AuthCookie
	// AllowedOrigins are the absolute redirect targets accepted after
	// login and logout. Relative paths are always accepted.
	AllowedOrigins []string
}

// AuthHandler handles login, logout and token introspection
type AuthHandler struct {
	svc            *service.RegistryService
	oauth          *service.OAuthService
	cookie         AuthCookie
	allowedOrigins []string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		svc:            cfg.Registry,
		oauth:          cfg.OAuth,
		cookie:         cfg.Cookie,
		allowedOrigins: cfg.AllowedOrigins,
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, g Guards) {
	if h.oauth != nil {
		mux.HandleFunc("GET /v1/auth", h.Login)
	}
	mux.HandleFunc("GET /v1/auth/logout", h.Logout)
	mux.Handle("GET /v1/auth/token", g.authed(h.Token))
	mux.Handle("GET /v1/auth/user", g.authed(h.User))
}

// Login handles GET /v1/auth. Without a code it sends the browser to the
// provider; with one it finishes the exchange and sets the token cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		h.startLogin(w, r, q.Get("redirect"))
		return
	}

	expected := ""
	if c, err := r.Cookie(stateCookie); err == nil {
		expected = c.Value
	}
	redirect := "/"
	if c, err := r.Cookie(redirectCookie); err == nil {
		redirect = c.Value
	}
	h.clearLoginCookies(w)

	state := q.Get("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		WriteError(w, model.NewUnauthorizedError("invalid state"))
		return
	}

	login, err := h.oauth.Authenticate(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAuthCode):
			WriteError(w, model.NewUnauthorizedError("invalid code"))
		case errors.Is(err, service.ErrProviderError):
			WriteError(w, model.NewUnauthorizedError("could not fetch user"))
		default:
			slog.Error("oauth login failed", slog.String("error", err.Error()))
			WriteError(w, model.NewInternalError(""))
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    login.Token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  time.Now().Add(h.cookie.MaxAge),
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.safeRedirect(redirect), http.StatusFound)
}

func (h *AuthHandler) startLogin(w http.ResponseWriter, r *http.Request, redirect string) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		WriteError(w, model.NewInternalError(""))
		return
	}
	state := hex.EncodeToString(buf)

	h.setLoginCookie(w, stateCookie, state, int(loginCookieTTL.Seconds()))
	h.setLoginCookie(w, redirectCookie, h.safeRedirect(redirect), int(loginCookieTTL.Seconds()))
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

func (h *AuthHandler) clearLoginCookies(w http.ResponseWriter) {
	h.setLoginCookie(w, stateCookie, "", -1)
	h.setLoginCookie(w, redirectCookie, "", -1)
}

func (h *AuthHandler) setLoginCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/v1/auth",
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Logout handles GET /v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.safeRedirect(r.URL.Query().Get("redirect")), http.StatusFound)
}

// Token handles GET /v1/auth/token and hands the caller's token back, so a
// browser holding only the cookie can use it elsewhere
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	WriteData(w, http.StatusOK, struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}{ID: claims.ID, Token: middleware.GetToken(r.Context())})
}

// User handles GET /v1/auth/user. Callers without a registry record get
// back just the id from their token.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.svc.GetUser(userID)
	if err != nil {
		WriteData(w, http.StatusOK, struct {
			ID string `json:"id"`
		}{ID: userID})
		return
	}
	WriteData(w, http.StatusOK, user)
}

// safeRedirect keeps redirects on this site or on an allowed origin
func (h *AuthHandler) safeRedirect(target string) string {
	if target == "" {
		return "/"
	}
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\") {
		return target
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "/"
	}
	if slices.Contains(h.allowedOrigins, u.Scheme+"://"+u.Host) {
		return target
	}
	return "/"
}
