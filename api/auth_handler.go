package api

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/services"
)

const maxLoginBodySize = 64 << 10

type authHandler struct {
	responder    Responder
	logger       zerolog.Logger
	auth         *services.AuthService
	cookieSecure bool
}

func newAuthHandler(auth *services.AuthService, cookieSecure bool) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		auth:         auth,
		cookieSecure: cookieSecure,
	}
}

// login checks admin credentials and sets the session cookie
// @Summary Admin login
// @Tags Auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "Missing username or password"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 429 {object} ErrorResponse "Too many attempts"
// @Router /admin/api/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeLoginRequest(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		token, session, err := h.auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			MaxAge:   int(services.SessionLifetime.Seconds()),
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

// logout ends the current session, if any
// @Summary Admin logout
// @Tags Auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /admin/api/logout [post]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.auth.Logout(sessionToken(r))

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		h.responder.WriteJSON(w, SuccessResponse{Success: true})
	}
}

// me reports whether the caller holds a live session
// @Summary Session status
// @Tags Auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/api/me [get]
func (h authHandler) me() sessionHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, session services.Session) {
		h.responder.WriteJSON(w, MeResponse{Authenticated: true, Username: session.Username})
	}
}

// decodeLoginRequest accepts a JSON body or a urlencoded form.
func decodeLoginRequest(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return LoginRequest{}, errs.NewMalformedPayloadError("JSON", err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return LoginRequest{}, errs.NewMalformedPayloadError("form", err)
	}
	return LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, nil
}
