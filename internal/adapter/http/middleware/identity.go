package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
)

const (
	kindGuest = "guest"
	kindUser  = "user"

	ctxIdentity = "identity"
)

type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type claims struct {
	Kind  string `json:"kind"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity resolves the bearer token into a guest device or a signed-in
// account. Account tokens come from the shop's login; guest tokens are issued
// here.
type Identity struct {
	cfg TokenConfig
	now func() time.Time
}

func NewIdentity(cfg TokenConfig) *Identity {
	return &Identity{cfg: cfg, now: time.Now}
}

// Sign issues a token for id valid for ttl.
func (a *Identity) Sign(id entity.Identity, ttl time.Duration) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(ttl)
	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			Audience:  jwt.ClaimStrings{a.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	switch v := id.(type) {
	case entity.Guest:
		cl.Kind, cl.Subject = kindGuest, v.DeviceID
	case entity.Authenticated:
		cl.Kind, cl.Subject, cl.Email = kindUser, v.Email, v.Email
	default:
		return "", time.Time{}, errors.New("unsupported identity")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(a.cfg.Secret))
	return signed, exp, err
}

func (a *Identity) parse(raw string) (entity.Identity, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithAudience(a.cfg.Audience),
		jwt.WithLeeway(30*time.Second), // small clock skew
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	switch {
	case cl.Kind == kindUser && cl.Email != "":
		return entity.NewAuthenticated(cl.Email), nil
	case cl.Kind == kindGuest && cl.Subject != "":
		return entity.Guest{DeviceID: cl.Subject}, nil
	}
	return nil, errors.New("token carries no identity")
}

// Resolve attaches the caller's identity when a bearer token is present. A bad
// token is rejected; a missing one is not.
func (a *Identity) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		raw, hasBearer := strings.CutPrefix(auth, "Bearer ")
		if !hasBearer {
			// EventSource cannot set headers.
			raw = c.Query("access_token")
		}
		if raw == "" {
			c.Next()
			return
		}
		id, err := a.parse(raw)
		if err != nil {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}
		c.Set(ctxIdentity, id)
		c.Next()
	}
}

// Require needs any identity, guest or account.
func (a *Identity) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); !ok {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}
		c.Next()
	}
}

// RequireAccount lets only signed-in users through.
func (a *Identity) RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}
		if !id.Authenticated() {
			forbidden(c, "login_required", "please log in to continue")
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (entity.Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return nil, false
	}
	id, ok := v.(entity.Identity)
	return id, ok
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}
