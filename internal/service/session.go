// Package service orchestrates the session-token lifecycle: signup, login,
// logout, and refresh rotation.  It is the only writer of refresh-token
// rows.  Cookie directives are returned as plain values; applying them to a
// response is the HTTP boundary's job.
package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/avetisk/fullstack-auth/internal/crypto"
	"github.com/avetisk/fullstack-auth/internal/model"
	"github.com/avetisk/fullstack-auth/internal/repository"
	"github.com/avetisk/fullstack-auth/internal/token"
)

// Cookie names and scoping paths.  The refresh cookie is only ever sent to
// the refresh endpoint.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
	AccessCookiePath  = "/"
	RefreshCookiePath = "/api/auth/refresh"
)

// UserStore is the credential store consumed by the session flow.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenStore is the durable, unique-indexed refresh token store.
// DeleteByToken must be atomic: under concurrent calls with the same value
// at most one caller observes true.
type RefreshTokenStore interface {
	Store(ctx context.Context, userID uint64, value string, expiresAt time.Time) error
	FindByToken(ctx context.Context, value string) (model.RefreshToken, error)
	DeleteByToken(ctx context.Context, value string) (bool, error)
	DeleteByUserID(ctx context.Context, userID uint64) error
}

// EventPublisher receives fire-and-forget auth lifecycle notifications.
// Implementations must not fail the session flow.
type EventPublisher interface {
	UserSignedUp(ctx context.Context, userID uint64, email string)
	UserLoggedOut(ctx context.Context, userID uint64, email string)
}

// AuthResponse is the user-facing payload returned by every session
// endpoint.
type AuthResponse struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// Session is the atomic result of a successful signup, login, or refresh:
// the response payload plus the two cookie directives.  No partial pairs
// are ever returned.
type Session struct {
	Response      AuthResponse
	AccessCookie  *http.Cookie
	RefreshCookie *http.Cookie
}

// SessionService implements the session lifecycle over the injected stores.
type SessionService struct {
	users      UserStore
	tokens     RefreshTokenStore
	signer     *token.Signer
	events     EventPublisher // optional
	bcryptCost int
	refreshTTL time.Duration
}

// NewSessionService wires the session flow.  events may be nil when no
// broker is configured.
func NewSessionService(users UserStore, tokens RefreshTokenStore, signer *token.Signer, events EventPublisher, bcryptCost int, refreshTTL time.Duration) *SessionService {
	return &SessionService{
		users:      users,
		tokens:     tokens,
		signer:     signer,
		events:     events,
		bcryptCost: bcryptCost,
		refreshTTL: refreshTTL,
	}
}

// Signup registers a new user and opens a session.  A duplicate email fails
// with ErrEmailExists before any token is minted.
func (s *SessionService) Signup(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, ErrEmailExists
	}

	hash, err := crypto.HashPassword(password, s.bcryptCost)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.Create(ctx, email, hash)
	if err != nil {
		// the unique index may still fire under a concurrent signup race
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, ErrEmailExists
		}
		return Session{}, err
	}

	sess, err := s.issueTokens(ctx, u)
	if err != nil {
		return Session{}, err
	}
	if s.events != nil {
		s.events.UserSignedUp(ctx, u.ID, u.Email)
	}
	return sess, nil
}

// Login verifies credentials and opens a session.  An unknown email and a
// wrong password are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, u)
}

// Logout revokes every refresh token owned by the user and returns cleared
// cookie directives for both cookies on their original paths.  Deleting
// zero rows is not an error.
func (s *SessionService) Logout(ctx context.Context, user model.User) ([]*http.Cookie, error) {
	if err := s.tokens.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.UserLoggedOut(ctx, user.ID, user.Email)
	}
	return []*http.Cookie{
		clearedCookie(AccessCookieName, AccessCookiePath),
		clearedCookie(RefreshCookieName, RefreshCookiePath),
	}, nil
}

// Refresh rotates a refresh token: the consumed row is deleted before
// anything new is issued, so a replayed value can win at most once even
// under concurrent attempts.  An expired row is deleted on detection.
func (s *SessionService) Refresh(ctx context.Context, refreshValue string) (Session, error) {
	t, err := s.tokens.FindByToken(ctx, refreshValue)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnknownRefreshToken
		}
		return Session{}, err
	}

	if t.Expired(time.Now().UTC()) {
		// lazy cleanup; losing the delete race changes nothing for the caller
		_, _ = s.tokens.DeleteByToken(ctx, refreshValue)
		return Session{}, ErrExpiredRefreshToken
	}

	// rotation: the atomic delete is the gate.  A concurrent caller that
	// passed the lookup above loses here and sees an unknown token.
	deleted, err := s.tokens.DeleteByToken(ctx, refreshValue)
	if err != nil {
		return Session{}, err
	}
	if !deleted {
		return Session{}, ErrUnknownRefreshToken
	}

	u, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrUnknownUser
		}
		return Session{}, err
	}
	return s.issueTokens(ctx, u)
}

// issueTokens is the token-issuance protocol shared by signup, login, and
// refresh: a fresh stateless access token, a fresh opaque refresh secret
// persisted with its expiry, and the two cookie directives.
func (s *SessionService) issueTokens(ctx context.Context, u model.User) (Session, error) {
	access, _, err := s.signer.IssueAccessToken(u.Email)
	if err != nil {
		return Session{}, err
	}
	refresh, err := token.NewRefreshSecret()
	if err != nil {
		return Session{}, err
	}
	expiresAt := time.Now().UTC().Add(s.refreshTTL)
	if err := s.tokens.Store(ctx, u.ID, refresh, expiresAt); err != nil {
		return Session{}, err
	}

	return Session{
		Response:      AuthResponse{Message: "Success", Email: u.Email},
		AccessCookie:  sessionCookie(AccessCookieName, access, AccessCookiePath, s.signer.AccessTTL()),
		RefreshCookie: sessionCookie(RefreshCookieName, refresh, RefreshCookiePath, s.refreshTTL),
	}, nil
}

func sessionCookie(name, value, path string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
	}
}

// clearedCookie builds an expiring directive: empty value, Max-Age=0 on the
// wire (net/http serializes MaxAge<0 that way).
func clearedCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
