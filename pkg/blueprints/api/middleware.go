// Package api exposes the blueprint and user services over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/tendant/blueprint-share/pkg/blueprints"
)

type ctxKey int

const userIDKey ctxKey = 0

// Auth issues and verifies session tokens for the HTTP layer.
type Auth struct {
	tokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration
}

// NewAuth creates an Auth using an HMAC secret
func NewAuth(secret string) *Auth {
	return &Auth{
		tokenAuth: jwtauth.New("HS256", []byte(secret), nil),
		tokenTTL:  30 * 24 * time.Hour,
	}
}

// IssueToken creates a signed session token for a user
func (a *Auth) IssueToken(userID int64) (string, error) {
	claims := map[string]interface{}{"user_id": userID}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, a.tokenTTL)

	_, tokenString, err := a.tokenAuth.Encode(claims)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// Verifier extracts and parses a token from the request without requiring one
func (a *Auth) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(a.tokenAuth)
}

// Authenticator rejects requests without a valid token and stores the
// authenticated user id in the request context.
func (a *Auth) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		userID, ok := claimUserID(claims)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// APIKeyAuthenticator authenticates requests carrying an X-Api-Key header.
// Used for the machine-facing routes instead of session tokens.
func APIKeyAuthenticator(svc blueprints.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Api-Key")
			if key == "" {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			userID, err := svc.FindUserIDByAPIKey(r.Context(), key)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// jwtClaims exposes the verifier output without requiring authentication.
func jwtClaims(r *http.Request) (map[string]interface{}, bool) {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return nil, false
	}
	return claims, true
}

// WithUserID stores an authenticated user id on the context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// claimUserID tolerates the numeric types a decoded JWT claim can carry.
func claimUserID(claims map[string]interface{}) (int64, bool) {
	switch v := claims["user_id"].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

// ErrorResponse is the JSON body for every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// renderError maps service errors onto HTTP status codes.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, blueprints.ErrBlueprintNotFound),
		errors.Is(err, blueprints.ErrVersionNotFound),
		errors.Is(err, blueprints.ErrBlobNotFound),
		errors.Is(err, blueprints.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, blueprints.ErrInvalidBlueprint),
		errors.Is(err, blueprints.ErrInvalidExposure),
		errors.Is(err, blueprints.ErrInvalidExpiration):
		status = http.StatusBadRequest
	case errors.Is(err, blueprints.ErrSoleVersion),
		errors.Is(err, blueprints.ErrUsernameTaken),
		errors.Is(err, blueprints.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, blueprints.ErrResetThrottled):
		status = http.StatusTooManyRequests
	case errors.Is(err, blueprints.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error: err.Error(),
		Code:  blueprints.StepCode(err),
	})
}
