package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avetisk/fullstack-auth/internal/middleware"
	"github.com/avetisk/fullstack-auth/internal/service"
)

// dbTimeout bounds store work per request; a slow store surfaces as a 503
// rather than a hung connection.
const dbTimeout = 5 * time.Second

// AuthHandler is the HTTP boundary for the session endpoints.  It binds
// requests, delegates to the session service, applies the returned cookie
// directives, and maps service errors onto status codes without leaking
// internal detail.
type AuthHandler struct {
	Sessions *service.SessionService
}

func NewAuthHandler(s *service.SessionService) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup: create the user and open a session in one step.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Sessions.Signup(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "Email already registered"})
		}
		return serviceUnavailable(c)
	}
	c.SetCookie(sess.AccessCookie)
	c.SetCookie(sess.RefreshCookie)
	return c.JSON(http.StatusOK, sess.Response)
}

// Login: verify credentials and open a session.  Unknown email and wrong
// password produce the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
		}
		return serviceUnavailable(c)
	}
	c.SetCookie(sess.AccessCookie)
	c.SetCookie(sess.RefreshCookie)
	return c.JSON(http.StatusOK, sess.Response)
}

// Logout: revoke all of the caller's refresh tokens and clear both cookies.
// Requires a resolved identity; the route is behind RequireAuth.
func (h *AuthHandler) Logout(c echo.Context) error {
	user, ok := middleware.Identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cleared, err := h.Sessions.Logout(ctx, user)
	if err != nil {
		return serviceUnavailable(c)
	}
	for _, cookie := range cleared {
		c.SetCookie(cookie)
	}
	return c.JSON(http.StatusOK, service.AuthResponse{
		Message: "Logged out successfully",
		Email:   user.Email,
	})
}

// Refresh: rotate the refresh token from the cookie into a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(service.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, service.AuthResponse{Message: "No refresh token provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Sessions.Refresh(ctx, cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownRefreshToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid refresh token"})
		case errors.Is(err, service.ErrExpiredRefreshToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Refresh token expired"})
		case errors.Is(err, service.ErrUnknownUser):
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid refresh token"})
		}
		return serviceUnavailable(c)
	}
	c.SetCookie(sess.AccessCookie)
	c.SetCookie(sess.RefreshCookie)
	return c.JSON(http.StatusOK, sess.Response)
}

// Me: protected probe returning the resolved identity.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.Identity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
	}
	return c.JSON(http.StatusOK, service.AuthResponse{
		Message: "Authenticated",
		Email:   user.Email,
	})
}

// serviceUnavailable maps store/connectivity failures; detail stays in the
// server logs, never in the response.
func serviceUnavailable(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "Service temporarily unavailable"})
}
