package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/maintenance/apps/api/echo"
	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/access"
	"github.com/trezcool/maintenance/core/dashboard"
	"github.com/trezcool/maintenance/core/identity"
	"github.com/trezcool/maintenance/core/machine"
	"github.com/trezcool/maintenance/core/material"
	"github.com/trezcool/maintenance/core/task"
	"github.com/trezcool/maintenance/core/user"
	emailsvc "github.com/trezcool/maintenance/services/email"
	logsvc "github.com/trezcool/maintenance/services/logger"
	"github.com/trezcool/maintenance/storage/database"
	inmemdb "github.com/trezcool/maintenance/storage/database/inmem"
	sqlxrepos "github.com/trezcool/maintenance/storage/database/sqlx"
)

type repositories struct {
	users     user.Repository
	creds     identity.Repository
	tasks     task.Repository
	materials material.Repository
	machines  machine.Repository
	close     func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	mailSvc, err := emailsvc.New(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up email backend: %v", err), err)
	}
	verifier := identity.NewVerifier(repos.creds, logger)
	usrSvc := user.NewService(repos.users, verifier, logger)
	taskSvc := task.NewService(repos.tasks, usrSvc, mailSvc, logger)
	matSvc := material.NewService(repos.materials, logger)
	machineSvc := machine.NewService(repos.machines, logger)

	enforcer, err := access.NewEnforcer()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up access policy: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		conf.Server.Address,
		nil, /* shutdown */
		&echoapi.Deps{
			Conf:         conf,
			Logger:       logger,
			Validate:     validate,
			Translator:   translator,
			Verifier:     verifier,
			Directory:    identity.NewDirectory(usrSvc),
			Enforcer:     enforcer,
			UserSvc:      usrSvc,
			TaskSvc:      taskSvc,
			MaterialSvc:  matSvc,
			MachineSvc:   machineSvc,
			DashboardSvc: dashboard.NewService(usrSvc, taskSvc, matSvc),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpRepositories(conf *core.Config) (*repositories, error) {
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		return &repositories{
			users:     inmemdb.NewUserRepository(db),
			creds:     inmemdb.NewCredentialRepository(db),
			tasks:     inmemdb.NewTaskRepository(db),
			materials: inmemdb.NewMaterialRepository(db),
			machines:  inmemdb.NewMachineRepository(db),
			close:     func() error { return nil },
		}, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return nil, err
	}
	return &repositories{
		users:     sqlxrepos.NewUserRepository(db),
		creds:     sqlxrepos.NewCredentialRepository(db),
		tasks:     sqlxrepos.NewTaskRepository(db),
		materials: sqlxrepos.NewMaterialRepository(db),
		machines:  sqlxrepos.NewMachineRepository(db),
		close:     db.Close,
	}, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
