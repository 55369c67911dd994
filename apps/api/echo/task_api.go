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

type supervisorApi struct {
	srv *Server
}

func registerSupervisorAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *Server) {
	api := supervisorApi{srv: srv}
	section, _ := session.SectionFor(user.RoleSupervisor)
	can := func(res access.Resource, act access.Action) echo.MiddlewareFunc {
		return permissionMiddleware(srv, res, act)
	}

	sg := g.Group(section.Root, jwt, sectionMiddleware(srv.deps.Directory, section))
	sg.GET("/dashboard", dashboardHandler(srv), can(access.Dashboard, access.Read))
	sg.GET("/technicians", api.queryTechnicians, can(access.Technicians, access.Read))
	sg.GET("/tasks", api.queryTasks, can(access.Tasks, access.Read))
	sg.POST("/tasks", api.assignTask, can(access.Tasks, access.Write))
	sg.GET("/tasks/:id", api.retrieveTask, can(access.Tasks, access.Read))
	sg.DELETE("/tasks/:id", api.destroyTask, can(access.Tasks, access.Write))
	sg.GET("/material-requests", queryRequestsHandler(srv, false), can(access.Materials, access.Read))

	machines := machineApi{srv: srv}
	sg.GET("/machines", machines.queryMachines, can(access.Machines, access.Read))
	sg.POST("/machines", machines.createMachine, can(access.Machines, access.Write))
	sg.GET("/machines/:id", machines.retrieveMachine, can(access.Machines, access.Read))
	sg.PUT("/machines/:id", machines.updateMachine, can(access.Machines, access.Write))
	sg.DELETE("/machines/:id", machines.destroyMachine, can(access.Machines, access.Write))
	sg.GET("/meter-readings", machines.queryReadings, can(access.Readings, access.Read))
	sg.GET("/service-logs", machines.queryServiceLogs(false), can(access.ServiceLogs, access.Read))
	sg.POST("/service-logs/:id/approve", machines.approveServiceLog, can(access.ServiceLogs, access.Review))
}

func (api *supervisorApi) queryTechnicians(ctx echo.Context) error {
	filter := &user.QueryFilter{Search: ctx.QueryParam("search"), Roles: []user.Role{user.RoleTechnician}}
	techs, err := api.srv.deps.UserSvc.Query(ctx.Request().Context(), filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying technicians")
	}
	if techs == nil {
		techs = []user.User{}
	}
	return ctx.JSON(http.StatusOK, techs)
}

func (api *supervisorApi) queryTasks(ctx echo.Context) error {
	return queryTasks(ctx, api.srv, task.QueryFilter{})
}

func (api *supervisorApi) assignTask(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.srv.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	t, err := api.srv.deps.TaskSvc.Assign(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "assigning task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *supervisorApi) retrieveTask(ctx echo.Context) error {
	t, err := api.srv.deps.TaskSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *supervisorApi) destroyTask(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if _, err := api.srv.deps.TaskSvc.GetByID(reqCtx, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "getting task")
	}
	if err := api.srv.deps.TaskSvc.Delete(reqCtx, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type technicianApi struct {
	srv *Server
}

func registerTechnicianAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *Server) {
	api := technicianApi{srv: srv}
	section, _ := session.SectionFor(user.RoleTechnician)
	can := func(res access.Resource, act access.Action) echo.MiddlewareFunc {
		return permissionMiddleware(srv, res, act)
	}

	tg := g.Group(section.Root, jwt, sectionMiddleware(srv.deps.Directory, section))
	tg.GET("/dashboard", dashboardHandler(srv), can(access.Dashboard, access.Read))
	tg.GET("/tasks", api.queryTasks, can(access.Tasks, access.Read))
	tg.POST("/tasks/:id/complete", api.completeTask, can(access.Tasks, access.Complete))
	tg.GET("/material-requests", queryRequestsHandler(srv, true), can(access.Materials, access.Read))
	tg.POST("/material-requests", api.createRequest, can(access.Materials, access.Create))
	tg.DELETE("/material-requests/:id", api.cancelRequest, can(access.Materials, access.Cancel))

	machines := machineApi{srv: srv}
	tg.GET("/machines", machines.queryMachines, can(access.Machines, access.Read))
	tg.GET("/meter-readings", machines.queryReadings, can(access.Readings, access.Read))
	tg.POST("/meter-readings", machines.recordReading, can(access.Readings, access.Create))
	tg.PUT("/meter-readings/:id", machines.updateReading, can(access.Readings, access.Write))
	tg.DELETE("/meter-readings/:id", machines.destroyReading, can(access.Readings, access.Write))
	tg.GET("/service-logs", machines.queryServiceLogs(true), can(access.ServiceLogs, access.Read))
	tg.POST("/service-logs", machines.logService, can(access.ServiceLogs, access.Create))
	tg.POST("/service-logs/:id/status", machines.setServiceLogStatus, can(access.ServiceLogs, access.Complete))
}

func (api *technicianApi) queryTasks(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	return queryTasks(ctx, api.srv, task.QueryFilter{TechnicianID: claims.Subject})
}

func (api *technicianApi) completeTask(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	t, err := api.srv.deps.TaskSvc.Complete(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *technicianApi) createRequest(ctx echo.Context) error {
	var data material.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(api.srv.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	tech, err := api.srv.deps.UserSvc.GetByID(reqCtx, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting technician")
	}
	r, err := api.srv.deps.MaterialSvc.Create(reqCtx, tech, data)
	if err != nil {
		return errors.Wrap(err, "creating material request")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *technicianApi) cancelRequest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.srv.deps.MaterialSvc.Cancel(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "cancelling material request")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryTasks binds the status & overdue query params on top of base.
func queryTasks(ctx echo.Context, srv *Server, base task.QueryFilter) error {
	filter := base
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []task.Task{})
	}
	filter.TechnicianID = base.TechnicianID

	tasks, err := srv.deps.TaskSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}
