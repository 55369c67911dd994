package echoapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/identity"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
	"github.com/trezcool/maintenance/services/metrics"
)

type (
	authApi struct {
		srv *Server
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token       string    `json:"token"`
		PrincipalID string    `json:"principal_id"`
		Role        user.Role `json:"role"`
		Landing     string    `json:"landing"`
	}

	// statelessVerifier adapts the credential verifier to a per-request session.Store.
	// Tokens carry the whole session, so there is no sign-in state to observe or clear.
	statelessVerifier struct {
		*identity.Verifier
	}
)

func (statelessVerifier) SignOut(context.Context) error                { return nil }
func (statelessVerifier) Subscribe(func(string)) (unsubscribe func()) { return func() {} }

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *Server) {
	api := authApi{srv: srv}

	g.POST("/auth/login", api.login)
	g.POST("/auth/token-refresh", api.refreshToken, jwt)
	g.GET("/sections", api.sections)
	g.GET("/profiles/:id", api.profile, jwt)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.srv.deps.Validate); err != nil {
		return err
	}

	store := session.NewStore(&statelessVerifier{api.srv.deps.Verifier}, api.srv.deps.Directory, api.srv.deps.Logger)
	defer store.Close()

	principal, err := store.Login(ctx.Request().Context(), data.Email, data.Password)
	metrics.RecordLogin(loginOutcome(err))
	if err != nil {
		return errors.Wrap(err, "logging in")
	}

	profile := session.Profile{PrincipalID: principal.ID, Role: principal.Role, Email: data.Email}
	token, err := GenerateToken(api.srv.deps.Conf, GetProfileClaims(api.srv.deps.Conf, profile))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		PrincipalID: principal.ID,
		Role:        principal.Role,
		Landing:     session.RouteFor(principal.Role),
	})
}

func loginOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := session.IsAuthenticationError(err); ok {
		return strings.ReplaceAll(kind.String(), " ", "_")
	}
	if errors.Is(err, session.ErrProfileNotFound) {
		return "profile_not_found"
	}
	return "error"
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, profile, err := api.srv.auth.refresh(ctx, api.srv.deps.Directory)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		PrincipalID: profile.PrincipalID,
		Role:        profile.Role,
		Landing:     session.RouteFor(profile.Role),
	})
}

func (api *authApi) sections(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, session.Sections())
}

// profile is visible to its owner and to admins. A principal without profile gets a 404.
func (api *authApi) profile(ctx echo.Context) error {
	s, err := resolveSession(ctx, api.srv.deps.Directory)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	if s.Principal == nil || (id != s.Principal.ID && s.Principal.Role != user.RoleAdmin) {
		return errHttpNotFound
	}

	profile, err := api.srv.deps.Directory.FindProfileByPrincipalID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrProfileNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}
