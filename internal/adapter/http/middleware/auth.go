package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/pkg"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const callerKey = "auth.caller"

var (
	errUnauthorized = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing or invalid bearer token", http.StatusUnauthorized)
	errAdminOnly    = pkg.NewDomainErrorSimple("FORBIDDEN", "Admin role required", http.StatusForbidden)

	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
	ErrMissingSubject          = errors.New("token has no subject")
)

// Claims are the bearer token claims: sub is the client id, role is client or admin.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates HS256 bearer tokens issued by the identity provider.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Issue signs a token for clientID. Used by tests and local tooling.
func (a *Authenticator) Issue(clientID string, role entities.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Parse(token string) (entities.Caller, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnexpectedSigningMethod
		}
		return a.secret, nil
	})
	if err != nil {
		return entities.Caller{}, err
	}
	if claims.Subject == "" {
		return entities.Caller{}, ErrMissingSubject
	}
	role := entities.RoleClient
	if entities.Role(claims.Role) == entities.RoleAdmin {
		role = entities.RoleAdmin
	}
	return entities.Caller{ClientID: claims.Subject, Role: role}, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the caller.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(errUnauthorized.HTTPStatus, errUnauthorized.ToHTTPError())
			return
		}
		caller, err := a.Parse(strings.TrimSpace(token))
		if err != nil {
			log.Printf("[auth][middleware] token rejected path=%s err=%v", c.FullPath(), err)
			c.AbortWithStatusJSON(errUnauthorized.HTTPStatus, errUnauthorized.ToHTTPError())
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(errAdminOnly.HTTPStatus, errAdminOnly.ToHTTPError())
			return
		}
		c.Next()
	}
}

func CallerFrom(c *gin.Context) entities.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(entities.Caller); ok {
			return caller
		}
	}
	return entities.Caller{}
}

// WithCaller stores caller on the context. Handler tests use it in place of RequireAuth.
func WithCaller(caller entities.Caller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(callerKey, caller)
		c.Next()
	}
}
