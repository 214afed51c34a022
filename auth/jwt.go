package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-jwt/jwt/v5/request"
	"github.com/google/uuid"
)

const (
	ScopeAnonymous = "anonymous"
	ScopeAdmin     = "admin"
)

const (
	anonymousTokenTTL = 30 * 24 * time.Hour
	adminTokenTTL     = 12 * time.Hour
)

type JwtClaims struct {
	UID      string   `json:"uid,omitempty"`
	Username string   `json:"username,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

func (c *JwtClaims) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scopes, scope)
}

type ClaimsKeyType string

var CtxJwtClaimsKey ClaimsKeyType = "jwtClaims"

// GenerateAnonymousJWT issues a session token for a freshly minted uid.
func GenerateAnonymousJWT(jwtKey []byte) (string, *JwtClaims, error) {
	now := time.Now()
	claims := &JwtClaims{
		UID:    uuid.NewString(),
		Scopes: []string{ScopeAnonymous},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(anonymousTokenTTL)),
		},
	}
	token, err := sign(claims, jwtKey)
	return token, claims, err
}

func GenerateAdminJWT(username string, jwtKey []byte) (string, error) {
	now := time.Now()
	claims := &JwtClaims{
		UID:      uuid.NewString(),
		Username: username,
		Scopes:   []string{ScopeAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenTTL)),
		},
	}
	return sign(claims, jwtKey)
}

func sign(claims *JwtClaims, jwtKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func ValidateJWT(tokenStr string, jwtKey []byte) (*JwtClaims, error) {
	claims := &JwtClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, errors.New("invalid token signature")
		}
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GetJwtAuthMiddleware validates the bearer token and adds the claims to the
// request context. Requests without a token pass through with nil claims.
func GetJwtAuthMiddleware(jwtKey []byte) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, err := request.BearerExtractor{}.ExtractToken(r)
			if err != nil {
				if errors.Is(err, request.ErrNoTokenInRequest) {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), nil)))
					return
				}
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := ValidateJWT(token, jwtKey)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		}
		return http.HandlerFunc(hfn)
	}
}

func WithClaims(ctx context.Context, claims *JwtClaims) context.Context {
	return context.WithValue(ctx, CtxJwtClaimsKey, claims)
}

func ClaimsFrom(ctx context.Context) *JwtClaims {
	claims, _ := ctx.Value(CtxJwtClaimsKey).(*JwtClaims)
	return claims
}

// SessionUID returns the uid of the caller's session, anonymous or admin.
func SessionUID(ctx context.Context) (string, bool) {
	claims := ClaimsFrom(ctx)
	if claims == nil || claims.UID == "" {
		return "", false
	}
	return claims.UID, true
}
