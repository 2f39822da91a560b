package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/rs/zerolog/log"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// Claims defines the JWT claims structure. The registered ID claim (jti)
// holds the server-side session ID.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens.
type TokenManager struct {
	key []byte
}

// NewTokenManager creates a TokenManager using an HMAC secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{key: []byte(secret)}
}

// Issue creates a signed token for a session.
func (m *TokenManager) Issue(session models.Session, user models.User) (string, error) {
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Validate parses and validates a token string.
func (m *TokenManager) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SetCookie writes the session cookie. Remembered sessions get a persistent
// cookie, others a browser-session cookie.
func SetCookie(w http.ResponseWriter, token string, session models.Session, secure bool) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if session.Remember {
		cookie.Expires = session.ExpiresAt
	}
	http.SetCookie(w, cookie)
}

// ClearCookie removes the session cookie from the browser.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// UserResolver loads the user bound to a live session.
type UserResolver interface {
	CurrentUser(ctx context.Context, sessionID string) (*models.User, error)
}

type contextKey string

const (
	userKey    = contextKey("user")
	sessionKey = contextKey("session")
)

// CurrentUser returns the acting user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// SessionID returns the ID of the session that authenticated the request.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// WithUser returns a context carrying the acting user and session.
func WithUser(ctx context.Context, user *models.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionMiddleware resolves the acting user from the session cookie. It
// never rejects a request; RequireUser does that.
func SessionMiddleware(tokens *TokenManager, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(cookie.Value)
			if err != nil {
				log.Debug().Err(err).Msg("Ignoring invalid session token")
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.CurrentUser(r.Context(), claims.ID)
			if err != nil {
				log.Error().Err(err).Str("session_id", claims.ID).Msg("Failed to resolve session")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, claims.ID)))
		})
	}
}

// RequireUser redirects anonymous requests to the login page.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
