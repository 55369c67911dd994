package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/access"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
)

const contextObjectKey = "object"

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type (
	adminApi struct {
		srv *Server
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *Server) {
	api := adminApi{srv: srv}
	section, _ := session.SectionFor(user.RoleAdmin)
	can := func(res access.Resource, act access.Action) echo.MiddlewareFunc {
		return permissionMiddleware(srv, res, act)
	}

	ag := g.Group(section.Root, jwt, sectionMiddleware(srv.deps.Directory, section))
	ag.GET("/dashboard", dashboardHandler(srv), can(access.Dashboard, access.Read))

	ug := ag.Group("/users")
	ug.GET("", api.queryUsers, can(access.Users, access.Read))
	ug.POST("", api.createUser, can(access.Users, access.Write))
	ug.DELETE("", api.destroyUsers, can(access.Users, access.Write))
	ug.GET("/roles", api.queryRoles, can(access.Users, access.Read))

	// detail endpoints
	dg := ug.Group("/:id", api.userObjectMiddleware)
	dg.GET("", api.retrieveUser, can(access.Users, access.Read))
	dg.PUT("", api.updateUser, can(access.Users, access.Write))
	dg.DELETE("", api.destroyUser, can(access.Users, access.Write))
}

func (api *adminApi) userObjectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := api.srv.deps.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding user by ID")
		}
		ctx.Set(contextObjectKey, usr)
		return next(ctx)
	}
}

func (api *adminApi) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.srv.deps.Validate); err != nil {
		return err
	}

	usr, err := api.srv.deps.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *adminApi) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.srv.deps.UserSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) retrieveUser(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) updateUser(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(usr, api.srv.deps.Validate); err != nil {
		return err
	}

	// an admin cannot demote themselves out of their own section
	if claims, _ := getContextClaims(ctx); usr.ID == claims.Subject && data.Role != usr.Role {
		return errHttpForbidden
	}

	usr, err := api.srv.deps.UserSvc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) destroyUser(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	if claims, _ := getContextClaims(ctx); usr.ID == claims.Subject {
		return errHttpForbidden
	}

	if err := api.srv.deps.UserSvc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) destroyUsers(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	claims, _ := getContextClaims(ctx)
	for _, id := range query.IDs {
		if id == claims.Subject {
			return errHttpForbidden
		}
	}

	if err := api.srv.deps.UserSvc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func dashboardHandler(srv *Server) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s := contextSession(ctx)
		if s.Principal == nil {
			return errUnauthorized
		}
		summary, err := srv.deps.DashboardSvc.Summary(ctx.Request().Context(), *s.Principal)
		if err != nil {
			return errors.Wrap(err, "computing dashboard")
		}
		return ctx.JSON(http.StatusOK, summary)
	}
}
