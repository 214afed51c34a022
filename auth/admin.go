package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/ikk-contest/backend/httpjson"
	"github.com/ikk-contest/backend/logger"
	"github.com/ikk-contest/backend/srvcerror"
	"golang.org/x/crypto/bcrypt"
)

const ErrCodeInvalidCredentials = "invalid_credentials"

func newErrInvalidCredentials() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidCredentials,
		"kullanıcı adı veya şifre hatalı",
	).SetHttpStatusCode(http.StatusUnauthorized)
}

const ErrCodeForbidden = "forbidden"

func newErrForbidden() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeForbidden,
		"bu sayfa yalnızca yöneticiler içindir",
	).SetHttpStatusCode(http.StatusForbidden)
}

// AdminAuth checks the single configured administrator account.
type AdminAuth struct {
	username   string
	bcryptHash []byte
	jwtKey     []byte
}

func NewAdminAuth(username, bcryptHash string, jwtKey []byte) *AdminAuth {
	return &AdminAuth{
		username:   username,
		bcryptHash: []byte(bcryptHash),
		jwtKey:     jwtKey,
	}
}

// Login returns an admin-scoped token when the credentials match.
func (a *AdminAuth) Login(ctx context.Context, username, password string) (string, error) {
	userOk := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	pwErr := bcrypt.CompareHashAndPassword(a.bcryptHash, []byte(password))
	if !userOk || pwErr != nil {
		logger.FromContext(ctx).Info("admin login rejected", "username", username)
		return "", newErrInvalidCredentials()
	}
	return GenerateAdminJWT(username, a.jwtKey)
}

// RequireAdmin rejects requests whose claims lack the admin scope.
// It expects GetJwtAuthMiddleware to run first.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFrom(r.Context())
		if claims == nil {
			httpjson.HandleError(logger.FromContext(r.Context()), w, srvcerror.ErrUnauthorized())
			return
		}
		if !claims.HasScope(ScopeAdmin) {
			httpjson.HandleError(logger.FromContext(r.Context()), w, newErrForbidden())
			return
		}
		next.ServeHTTP(w, r)
	})
}
