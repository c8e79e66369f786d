package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core/user"
)

var (
	// appJWTConfig is set once by ConfigureAuth before the server starts.
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "accountToken",
		Claims:        new(Claims),
	}
	jwtIssuer          string
	jwtExpirationDelta time.Duration

	contextAccountKey = "account"
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject carries the principal's id; Role decides which collection it
// resolves against.
type Claims struct {
	jwt.StandardClaims
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
	Role  user.Role `json:"role,omitempty"`
}

// Tier returns the privilege tier encoded by the claims' role.
func (c Claims) Tier() int { return user.TierOf(c.Role) }

// ConfigureAuth initializes the JWT middleware from the app secrets and
// returns the auth middleware to mount on protected groups.
func ConfigureAuth(appName string, secretKey []byte, expirationDelta time.Duration) echo.MiddlewareFunc {
	appJWTConfig.SigningKey = secretKey
	appJWTConfig.Claims = new(Claims)
	jwtIssuer = appName
	jwtExpirationDelta = expirationDelta
	return middleware.JWTWithConfig(appJWTConfig)
}

// GetAccountClaims builds the claims for an authenticated account.
func GetAccountClaims(acct user.Account) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    jwtIssuer,
			Subject:   acct.ID,
			ExpiresAt: now.Add(jwtExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  acct.Name,
		Email: acct.Email,
		Role:  acct.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextAccount resolves the live account behind the request claims,
// caching it on the echo.Context for the rest of the request.
func getContextAccount(ctx echo.Context, svc *user.Service) (user.Account, error) {
	if acct, ok := ctx.Get(contextAccountKey).(user.Account); ok {
		return acct, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Account{}, err
	}
	acct, err := svc.Lookup(ctx.Request().Context(), claims.Role, claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.Account{}, errUnauthorized
		}
		return user.Account{}, errors.Wrap(err, "finding account by claims")
	}
	ctx.Set(contextAccountKey, acct)
	return acct, nil
}
