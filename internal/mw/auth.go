package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// CallerCtxKey holds the authenticated account address. Every role-gated
// operation reads its caller identity from here.
const CallerCtxKey contextKey = "caller"

// Caller returns the authenticated account address, or "" when the
// request carried no valid identity.
func Caller(ctx context.Context) string {
	addr, _ := ctx.Value(CallerCtxKey).(string)
	return addr
}

func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid claims", http.StatusInternalServerError)
				return
			}

			address, ok := claims["address"].(string)
			if !ok || address == "" {
				http.Error(w, "address not found in token", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), CallerCtxKey, address)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
