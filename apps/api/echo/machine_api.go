package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/machine"
)

// machineApi serves the machine registry to supervisors, and the meter readings & service logs to both
// supervisors and technicians.
type machineApi struct {
	srv *Server
}

func (api *machineApi) queryMachines(ctx echo.Context) error {
	machines, err := api.srv.deps.MachineSvc.Query(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "querying machines")
	}
	if machines == nil {
		machines = []machine.Machine{}
	}
	return ctx.JSON(http.StatusOK, machines)
}

func (api *machineApi) bindMachine(ctx echo.Context) (machine.NewMachine, error) {
	var data machine.NewMachine
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to NewMachine")
	}
	err := data.Validate(api.srv.deps.Validate)
	return data, err
}

func (api *machineApi) createMachine(ctx echo.Context) error {
	data, err := api.bindMachine(ctx)
	if err != nil {
		return err
	}
	m, err := api.srv.deps.MachineSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating machine")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *machineApi) retrieveMachine(ctx echo.Context) error {
	m, err := api.srv.deps.MachineSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting machine")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *machineApi) updateMachine(ctx echo.Context) error {
	data, err := api.bindMachine(ctx)
	if err != nil {
		return err
	}
	m, err := api.srv.deps.MachineSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating machine")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *machineApi) destroyMachine(ctx echo.Context) error {
	if err := api.srv.deps.MachineSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting machine")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *machineApi) queryReadings(ctx echo.Context) error {
	var filter machine.ReadingFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []machine.Reading{})
	}
	filter.TechnicianID = ""

	readings, err := api.srv.deps.MachineSvc.QueryReadings(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying meter readings")
	}
	if readings == nil {
		readings = []machine.Reading{}
	}
	return ctx.JSON(http.StatusOK, readings)
}

func (api *machineApi) bindReading(ctx echo.Context) (machine.NewReading, error) {
	var data machine.NewReading
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to NewReading")
	}
	err := data.Validate(api.srv.deps.Validate)
	return data, err
}

func (api *machineApi) recordReading(ctx echo.Context) error {
	data, err := api.bindReading(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	tech, err := api.srv.deps.UserSvc.GetByID(reqCtx, contextSession(ctx).Principal.ID)
	if err != nil {
		return errors.Wrap(err, "getting technician")
	}
	r, err := api.srv.deps.MachineSvc.RecordReading(reqCtx, tech, data)
	if err != nil {
		return errors.Wrap(err, "recording meter reading")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *machineApi) updateReading(ctx echo.Context) error {
	data, err := api.bindReading(ctx)
	if err != nil {
		return err
	}
	techID := contextSession(ctx).Principal.ID
	r, err := api.srv.deps.MachineSvc.UpdateReading(ctx.Request().Context(), techID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating meter reading")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *machineApi) destroyReading(ctx echo.Context) error {
	techID := contextSession(ctx).Principal.ID
	if err := api.srv.deps.MachineSvc.DeleteReading(ctx.Request().Context(), techID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting meter reading")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryServiceLogs lists service logs, restricted to the caller's own when own is set.
func (api *machineApi) queryServiceLogs(own bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var filter machine.LogFilter
		if err := ctx.Bind(&filter); err != nil {
			return ctx.JSON(http.StatusOK, []machine.ServiceLog{})
		}
		filter.TechnicianID = ""
		if own {
			filter.TechnicianID = contextSession(ctx).Principal.ID
		}

		logs, err := api.srv.deps.MachineSvc.QueryServiceLogs(ctx.Request().Context(), filter)
		if err != nil {
			return errors.Wrap(err, "querying service logs")
		}
		if logs == nil {
			logs = []machine.ServiceLog{}
		}
		return ctx.JSON(http.StatusOK, logs)
	}
}

func (api *machineApi) logService(ctx echo.Context) error {
	var data machine.NewServiceLog
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewServiceLog")
	}
	if err := data.Validate(api.srv.deps.Validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	tech, err := api.srv.deps.UserSvc.GetByID(reqCtx, contextSession(ctx).Principal.ID)
	if err != nil {
		return errors.Wrap(err, "getting technician")
	}
	l, err := api.srv.deps.MachineSvc.LogService(reqCtx, tech, data)
	if err != nil {
		return errors.Wrap(err, "logging service")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *machineApi) setServiceLogStatus(ctx echo.Context) error {
	var data machine.StatusChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusChange")
	}
	if err := data.Validate(api.srv.deps.Validate); err != nil {
		return err
	}

	techID := contextSession(ctx).Principal.ID
	l, err := api.srv.deps.MachineSvc.SetLogStatus(ctx.Request().Context(), techID, ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "changing service log status")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *machineApi) approveServiceLog(ctx echo.Context) error {
	l, err := api.srv.deps.MachineSvc.ApproveLog(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving service log")
	}
	return ctx.JSON(http.StatusOK, l)
}
