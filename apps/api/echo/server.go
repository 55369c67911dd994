package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/access"
	"github.com/trezcool/maintenance/core/dashboard"
	"github.com/trezcool/maintenance/core/identity"
	"github.com/trezcool/maintenance/core/machine"
	"github.com/trezcool/maintenance/core/material"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/task"
	"github.com/trezcool/maintenance/core/user"
	"github.com/trezcool/maintenance/services/metrics"
)

type (
	Deps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		Verifier       *identity.Verifier
		Directory      session.RoleDirectory
		Enforcer       *access.Enforcer
		UserSvc        *user.Service
		TaskSvc        *task.Service
		MaterialSvc    *material.Service
		MachineSvc     *machine.Service
		DashboardSvc   *dashboard.Service
		DisableReqLogs bool
	}

	Server struct {
		addr     string
		deps     *Deps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

// NewServer builds the API server.
// shutdown receives SIGINT/SIGTERM, and the shutdown errors raised by handlers; a nil shutdown gets a fresh channel.
func NewServer(addr string, shutdown chan os.Signal, deps *Deps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps, "deps"),
		vala.IsNotNil(deps.Conf, "deps.Conf"),
		vala.IsNotNil(deps.Logger, "deps.Logger"),
		vala.IsNotNil(deps.Validate, "deps.Validate"),
		vala.IsNotNil(deps.Verifier, "deps.Verifier"),
		vala.IsNotNil(deps.Directory, "deps.Directory"),
		vala.IsNotNil(deps.Enforcer, "deps.Enforcer"),
		vala.IsNotNil(deps.UserSvc, "deps.UserSvc"),
		vala.IsNotNil(deps.TaskSvc, "deps.TaskSvc"),
		vala.IsNotNil(deps.MaterialSvc, "deps.MaterialSvc"),
		vala.IsNotNil(deps.MachineSvc, "deps.MachineSvc"),
		vala.IsNotNil(deps.DashboardSvc, "deps.DashboardSvc"),
	).CheckAndPanic()

	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
	}
	s := &Server{
		addr:     addr,
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metricsMiddleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)

	registerAuthAPI(v1, jwt, s)
	registerAdminAPI(v1, jwt, s)
	registerSupervisorAPI(v1, jwt, s)
	registerTechnicianAPI(v1, jwt, s)
	registerInventoryAPI(v1, jwt, s)
}

// Start listens until the server is shut down. Listener failures are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
