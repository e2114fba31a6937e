package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arnavp/treasurer/internal/auth"
	"github.com/arnavp/treasurer/internal/middleware"
)

// AuthHandler exposes account registration and login over plain JSON.
type AuthHandler struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthHandler wires an authenticator implementation (password-based by
// default) to JWT issuance.
func NewAuthHandler(authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, jwtManager: jwtManager}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.authenticator.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		writeError(w, statusForAuthError(err), err)
		return
	}

	token, err := h.jwtManager.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, statusForAuthError(err), err)
		return
	}

	token, err := h.jwtManager.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func statusForAuthError(err error) int {
	switch {
	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// CommandHandler executes one line of the command surface (spec §6) on
// behalf of the authenticated caller.
type CommandHandler struct {
	engine *Engine
}

func NewCommandHandler(engine *Engine) *CommandHandler {
	return &CommandHandler{engine: engine}
}

type commandRequest struct {
	Line string `json:"line"`
}

type commandResponse struct {
	Result string `json:"result"`
}

func (h *CommandHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	handle := middleware.GetHandle(r.Context())
	result, err := h.engine.Execute(r.Context(), handle, req.Line)
	if err != nil {
		slog.Error("command execution failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Result: result})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// RegisterRoutes wires every HTTP endpoint onto mux: unauthenticated health
// and auth endpoints, the Prometheus scrape endpoint, and the
// bearer-token-protected command surface. The wrapping order (logging
// outside auth) matches the teacher's interceptor chain
// (logging runs first to capture pre-auth rejections too).
func RegisterRoutes(mux *http.ServeMux, engine *Engine, authHandler *AuthHandler, jwtManager *auth.JWTManager) {
	logging := middleware.Logging()
	requireAuth := middleware.RequireAuth(jwtManager)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/auth/register", logging(http.HandlerFunc(authHandler.Register)))
	mux.Handle("/auth/login", logging(http.HandlerFunc(authHandler.Login)))

	commandHandler := NewCommandHandler(engine)
	mux.Handle("/commands", logging(requireAuth(http.HandlerFunc(commandHandler.Execute))))
}
