package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync/internal/service"
	"github.com/BuzzLyutic/task-sync/pkg/respond"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

type ctxKey struct{}

// UserID returns the user id stored by RequireSession, or 0.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKey{}).(int64)
	return id
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthHandler struct {
	auth         *service.AuthService
	logger       *zap.Logger
	secureCookie bool
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// RequireSession rejects requests without a valid session cookie.
func (h *AuthHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			respond.Error(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		userID, err := h.auth.Authenticate(c.Value)
		if err != nil {
			respond.Error(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	_, err := h.auth.Register(r.Context(), in.Username, in.Password)
	switch {
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, "Username & password required")
	case errors.Is(err, service.ErrUserExists):
		respond.Error(w, r, http.StatusBadRequest, "Username already exists")
	case err != nil:
		h.logger.Error("register failed", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	default:
		h.logger.Info("user registered", zap.String("username", in.Username))
		respond.Message(w, r, http.StatusCreated, "User registered successfully")
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	token, user, err := h.auth.Login(r.Context(), in.Username, in.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		respond.Error(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.auth.TTL()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respond.JSON(w, r, http.StatusOK, map[string]interface{}{"message": "Login successful", "user_id": user.ID})
}

// Logout always succeeds: it only expires the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respond.Message(w, r, http.StatusOK, "Logged out")
}
