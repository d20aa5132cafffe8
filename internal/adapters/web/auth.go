package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"pos-terminal/internal/core"
)

const authCookie = "auth_token"

type authClaimsKey struct{}

// AuthClaims holds the authenticated operator's identity extracted from the JWT.
type AuthClaims struct {
	OperatorID int
	Username   string
	Role       string
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	OperatorID int    `json:"operator_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// tokenFromRequest reads the auth_token cookie, falling back to an
// "Authorization: Bearer" header for non-browser clients.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(authCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if v := r.Header.Get("Authorization"); strings.HasPrefix(v, "Bearer ") {
		return strings.TrimPrefix(v, "Bearer ")
	}
	return ""
}

// RequireAuth is chi middleware that validates the auth token and injects
// AuthClaims into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsKey{}, &AuthClaims{
			OperatorID: claims.OperatorID,
			Username:   claims.Username,
			Role:       claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects operators whose role differs from role with 403.
// It must run after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := authFromContext(r.Context())
			if claims == nil || claims.Role != role {
				writeError(w, r, "this action requires the "+role+" role", "FORBIDDEN", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// issueToken signs a token for the operator valid for the configured TTL.
func (h *Handler) issueToken(operatorID int, username, role string) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		OperatorID: operatorID,
		Username:   username,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.AuthenticateOperator(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, core.ErrInvalidCredentials) {
			h.log.Error("login failed", zap.Error(err), zap.String("username", req.Username))
		}
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	signed, err := h.issueToken(session.OperatorID, session.Username, session.Role)
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.jwtTTL.Seconds()),
	})

	type loginResponse struct {
		OperatorID int    `json:"operator_id"`
		Username   string `json:"username"`
		Role       string `json:"role"`
		Token      string `json:"token"`
	}
	writeJSON(w, loginResponse{
		OperatorID: session.OperatorID,
		Username:   session.Username,
		Role:       session.Role,
		Token:      signed,
	})
}

// logout handles POST /api/auth/logout and clears the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me and returns the current operator's profile.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	op, err := h.svc.GetOperator(r.Context(), claims.OperatorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, op)
}
