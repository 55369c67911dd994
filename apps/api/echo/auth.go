package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
)

const (
	tokenContextKey   = "userToken"
	sessionContextKey = "session"
	audience          = "Maintenance"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Role         user.Role `json:"role,omitempty"`
	Email        string    `json:"email,omitempty"`
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

// GetProfileClaims returns the claims of a freshly verified profile.
// origIat carries the original issue time across refreshes.
func GetProfileClaims(conf *core.Config, p session.Profile, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   p.PrincipalID,
			Audience:  audience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         p.Role,
		Email:        p.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// resolveSession builds the request's session from the role directory. The token only names the principal:
// its role claim may predate a role change, and a principal without profile is anonymous.
func resolveSession(ctx echo.Context, directory session.RoleDirectory) (session.Session, error) {
	if s, ok := ctx.Get(sessionContextKey).(session.Session); ok {
		return s, nil
	}

	var s session.Session
	claims, err := getContextClaims(ctx)
	if err == nil && claims.Subject != "" {
		profile, err := directory.FindProfileByPrincipalID(ctx.Request().Context(), claims.Subject)
		switch {
		case err == nil:
			s.Principal = &session.Principal{ID: claims.Subject, Role: profile.Role}
		case !errors.Is(err, session.ErrProfileNotFound):
			return session.Session{}, errors.Wrap(err, "resolving session")
		}
	}
	ctx.Set(sessionContextKey, s)
	return s, nil
}

// contextSession is the session resolved for the request, anonymous when none was.
func contextSession(ctx echo.Context) session.Session {
	s, _ := ctx.Get(sessionContextKey).(session.Session)
	return s
}

func (a *authenticator) refresh(ctx echo.Context, directory session.RoleDirectory) (string, session.Profile, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", session.Profile{}, err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", session.Profile{}, errRefreshExpired
	}

	// the role may have changed since the token was issued
	profile, err := directory.FindProfileByPrincipalID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, session.ErrProfileNotFound) {
			return "", session.Profile{}, errProfileNotFound
		}
		return "", session.Profile{}, errors.Wrap(err, "finding profile")
	}

	token, err := GenerateToken(a.conf, GetProfileClaims(a.conf, profile, claims.OrigIssuedAt))
	if err != nil {
		return "", session.Profile{}, err
	}
	return token, profile, nil
}
