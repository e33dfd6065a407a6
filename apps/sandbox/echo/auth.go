package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

const contextTokenKey = "operatorToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Operator returns the console operator the claims were issued to.
func (c Claims) Operator() core.Operator {
	return core.Operator{ID: c.Subject, Username: c.Username, Email: c.Email}
}

type authenticator struct {
	conf   *core.Config
	jwtCfg middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwtCfg: middleware.JWTConfig{
			SigningKey:    []byte(conf.Sandbox.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

func (a *authenticator) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.jwtCfg)
}

// OperatorClaims returns fresh claims for operator, valid for the configured JWT expiration delta.
func OperatorClaims(conf *core.Config, operator core.Operator) *Claims {
	now := time.Now()
	if operator.ID == "" {
		operator.ID = operator.Username
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   operator.ID,
			Audience:  "Masomo Console",
			ExpiresAt: now.Add(conf.Sandbox.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: operator.Username,
		Email:    operator.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the operator Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.Sandbox.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) contextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
