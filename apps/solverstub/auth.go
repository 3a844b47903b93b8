package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/examplan/core"
	usr "github.com/trezcool/examplan/core/user"
)

const (
	authCookieName   = "auth_token"
	contextClaimsKey = "claims"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

func getUserClaims(conf *core.Config, u *dbUser) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: now.Add(conf.Stub.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: u.Username,
		Role:     u.Role,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func generateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(conf.Stub.SecretKey))
}

func parseToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(conf.Stub.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// tokenFromRequest looks for the token in the Authorization header first and
// falls back to the auth cookie, matching the original service's behavior.
func tokenFromRequest(req *http.Request) string {
	if auth := req.Header.Get(echo.HeaderAuthorization); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if cookie, err := req.Cookie(authCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// authMiddleware rejects requests without a valid token and stores the Claims
// in the request context.
func authMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenStr := tokenFromRequest(ctx.Request())
			if tokenStr == "" {
				return errHTTPUnauthorized
			}
			claims, err := parseToken(conf, tokenStr)
			if err != nil {
				return errHTTPUnauthorized
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errHTTPUnauthorized
			}
			if claims.Role != usr.RoleAdmin {
				return errHTTPForbidden
			}
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return claims, nil
	}
	return nil, errClaimsNotFound
}

func newAuthCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
