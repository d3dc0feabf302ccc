package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "auth_token"
	tokenTTL   = 12 * time.Hour
)

type ctxKey struct{}

// Claims: содержимое JWT оператора.
type Claims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// SetLoginCookie выписывает JWT для оператора и кладёт его в cookie.
func SetLoginCookie(w http.ResponseWriter, operator, secret string) error {
	now := time.Now()
	claims := Claims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(tokenTTL),
	})
	return nil
}

// WithAuth кладёт имя оператора в контекст, если cookie содержит валидный токен.
// Запросы без токена проходят дальше анонимно.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(CookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims := &Claims{}
			tok, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid || claims.Operator == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims.Operator)))
		})
	}
}

// GetOperatorFromContext returns the operator set by WithAuth.
func GetOperatorFromContext(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(ctxKey{}).(string)
	return op, ok && op != ""
}

// RequireOperator отвечает 401, если оператор не вошёл. При enabled=false пропускает всех.
func RequireOperator(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetOperatorFromContext(r.Context()); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
