package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/maintenance/core/access"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/services/metrics"
)

const permissionDenied = "permission denied"

// sectionMiddleware lets through only the principals the section's guard authorizes.
func sectionMiddleware(directory session.RoleDirectory, section session.Section) echo.MiddlewareFunc {
	guard := session.NewGuard(section)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s, err := resolveSession(ctx, directory)
			if err != nil {
				return err
			}
			decision := guard.Check(s)
			metrics.RecordGuardDecision(string(section.Role), decision.State.String())

			if decision.State == session.Authorized {
				return next(ctx)
			}
			return &deniedError{Message: permissionDenied, Redirect: decision.Redirect}
		}
	}
}

// permissionMiddleware checks the principal's role against the access policy.
func permissionMiddleware(srv *Server, res access.Resource, act access.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s, err := resolveSession(ctx, srv.deps.Directory)
			if err != nil {
				return err
			}
			if s.Principal == nil {
				return errUnauthorized
			}
			if !srv.deps.Enforcer.Can(s.Principal.Role, res, act) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		if err := next(ctx); err != nil {
			// the error response must be written before its status is read
			ctx.Error(err)
		}
		metrics.ObserveRequest(ctx.Request().Method, ctx.Path(), ctx.Response().Status, time.Since(start))
		return nil
	}
}
