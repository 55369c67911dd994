package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/access"
	"github.com/trezcool/maintenance/core/material"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/task"
	"github.com/trezcool/maintenance/core/user"
)

type inventoryApi struct {
	srv *Server
}

func registerInventoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *Server) {
	api := inventoryApi{srv: srv}
	section, _ := session.SectionFor(user.RoleInventoryEmployee)
	can := func(res access.Resource, act access.Action) echo.MiddlewareFunc {
		return permissionMiddleware(srv, res, act)
	}

	ig := g.Group(section.Root, jwt, sectionMiddleware(srv.deps.Directory, section))
	ig.GET("/dashboard", dashboardHandler(srv), can(access.Dashboard, access.Read))
	ig.GET("/material-requests", queryRequestsHandler(srv, false), can(access.Materials, access.Read))
	ig.POST("/material-requests/:id/review", api.reviewRequest, can(access.Materials, access.Review))
	ig.GET("/tasks", api.queryTasks, can(access.Tasks, access.Read))
}

func (api *inventoryApi) reviewRequest(ctx echo.Context) error {
	var data material.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err := data.Validate(api.srv.deps.Validate); err != nil {
		return err
	}

	r, err := api.srv.deps.MaterialSvc.Review(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "reviewing material request")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *inventoryApi) queryTasks(ctx echo.Context) error {
	return queryTasks(ctx, api.srv, task.QueryFilter{})
}

// queryRequestsHandler lists material requests, restricted to the caller's own when own is set.
func queryRequestsHandler(srv *Server, own bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var filter material.QueryFilter
		if err := ctx.Bind(&filter); err != nil {
			return ctx.JSON(http.StatusOK, []material.Request{})
		}
		filter.TechnicianID = ""
		if own {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			filter.TechnicianID = claims.Subject
		}

		reqs, err := srv.deps.MaterialSvc.Query(ctx.Request().Context(), filter)
		if err != nil {
			return errors.Wrap(err, "querying material requests")
		}
		if reqs == nil {
			reqs = []material.Request{}
		}
		return ctx.JSON(http.StatusOK, reqs)
	}
}
