package cmd

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/maintenance/apps/api/echo"
	"github.com/trezcool/maintenance/apps/console/client"
	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/access"
	"github.com/trezcool/maintenance/core/dashboard"
	"github.com/trezcool/maintenance/core/identity"
	"github.com/trezcool/maintenance/core/machine"
	"github.com/trezcool/maintenance/core/material"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/task"
	"github.com/trezcool/maintenance/core/user"
	emailsvc "github.com/trezcool/maintenance/services/email"
	logsvc "github.com/trezcool/maintenance/services/logger"
	inmemdb "github.com/trezcool/maintenance/storage/database/inmem"
)

const testPassword = "Maint3nance"

var (
	conf     *core.Config
	db       *inmemdb.DB
	srv      *httptest.Server
	verifier *identity.Verifier
	usrSvc   *user.Service

	ctxBg = context.Background()
)

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	db = inmemdb.Open()
	verifier = identity.NewVerifier(inmemdb.NewCredentialRepository(db), logger)
	usrSvc = user.NewService(inmemdb.NewUserRepository(db), verifier, logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	taskSvc := task.NewService(inmemdb.NewTaskRepository(db), usrSvc, mailSvc, logger)
	matSvc := material.NewService(inmemdb.NewMaterialRepository(db), logger)

	enforcer, err := access.NewEnforcer()
	if err != nil {
		log.Fatalf("access.NewEnforcer(): %v", err)
	}
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	api := echoapi.NewServer("", nil, &echoapi.Deps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Verifier:       verifier,
		Directory:      identity.NewDirectory(usrSvc),
		Enforcer:       enforcer,
		UserSvc:        usrSvc,
		TaskSvc:        taskSvc,
		MaterialSvc:    matSvc,
		MachineSvc:     machine.NewService(inmemdb.NewMachineRepository(db), logger),
		DashboardSvc:   dashboard.NewService(usrSvc, taskSvc, matSvc),
		DisableReqLogs: true,
	})
	srv = httptest.NewServer(api)
	conf.Client.ServerURL = srv.URL

	pterm.DisableStyling()
	readPasswordFunc = func(int) ([]byte, error) { return []byte(testPassword), nil }

	code := m.Run()
	srv.Close()
	os.Exit(code)
}

func createUser(t *testing.T, role user.Role, username string) user.User {
	t.Helper()
	usr, err := usrSvc.Create(ctxBg, user.NewUser{
		Email:           username + "@test.cd",
		FirstName:       "First",
		LastName:        username,
		Username:        username,
		Password:        testPassword,
		PasswordConfirm: testPassword,
		Role:            role,
	})
	require.NoError(t, err)
	return usr
}

// console runs commands against the test server, sharing one credentials dir like a real terminal would.
type console struct {
	dir string
}

func newConsole(t *testing.T) console {
	t.Helper()
	db.Reset()
	return console{dir: t.TempDir()}
}

func (c console) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(conf, nil)
	cmd.SetArgs(append([]string{"--credentials-dir", c.dir}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(ctxBg)
	return out.String(), err
}

func (c console) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func TestLoginStatusLogout(t *testing.T) {
	c := newConsole(t)
	createUser(t, user.RoleTechnician, "tech")

	out := c.mustRun(t, "status")
	assert.Contains(t, out, "Not logged in")

	_, err := c.run(t, "", "login")
	assert.Error(t, err, "email is required")

	_, err = c.run(t, "", "login", "--email", "nobody@test.cd")
	assert.Equal(t, errInvalidLogin, err)

	out = c.mustRun(t, "login", "--email", "tech@test.cd")
	assert.Contains(t, out, "Logged in as tech@test.cd (technician)")
	assert.Contains(t, out, "Landing: /technician/dashboard")
	assert.Contains(t, out, "/technician/request-materials")

	out = c.mustRun(t, "status")
	assert.Contains(t, out, "Role: technician")
	assert.Contains(t, out, "Landing: /technician/dashboard")

	out = c.mustRun(t, "logout")
	assert.Contains(t, out, "Logged out")

	out = c.mustRun(t, "status")
	assert.Contains(t, out, "Not logged in")
}

func TestLogin_profileNotFound(t *testing.T) {
	c := newConsole(t)
	_, err := verifier.Register(ctxBg, "ghost@test.cd", testPassword)
	require.NoError(t, err)

	_, err = c.run(t, "", "login", "--email", "ghost@test.cd")
	assert.Equal(t, errProfileNotFound, err)

	out := c.mustRun(t, "status")
	assert.Contains(t, out, "Not logged in")
}

func TestOpen(t *testing.T) {
	c := newConsole(t)
	createUser(t, user.RoleTechnician, "tech")

	out := c.mustRun(t, "open", "/technician/tasks")
	assert.Contains(t, out, "Not logged in")
	assert.NotContains(t, out, "Pending Tasks")

	_, err := c.run(t, "", "open", "/nowhere")
	assert.EqualError(t, err, "/nowhere: no such section")

	c.mustRun(t, "login", "--email", "tech@test.cd")

	out = c.mustRun(t, "open", "/technician/tasks")
	assert.Contains(t, out, "Technician")
	assert.Contains(t, out, "Pending Material Requests")
	assert.Contains(t, out, "* Tasks")

	// another role's section lands on the own one
	out = c.mustRun(t, "open", "/admin/users")
	assert.Contains(t, out, "Pending Material Requests")
	assert.NotContains(t, out, "Total Users")
	assert.Contains(t, out, "* Dashboard")
}

func TestOpen_roleChanged(t *testing.T) {
	c := newConsole(t)
	tech := createUser(t, user.RoleTechnician, "tech")
	c.mustRun(t, "login", "--email", "tech@test.cd")

	_, err := usrSvc.Update(ctxBg, tech, user.UpdateUser{
		FirstName: tech.FirstName,
		LastName:  tech.LastName,
		Username:  tech.Username,
		Role:      user.RoleInventoryEmployee,
	})
	require.NoError(t, err)

	out := c.mustRun(t, "open", "/technician/tasks")
	assert.Contains(t, out, "Inventory Employee")
	assert.Contains(t, out, "Pending Requests")

	out = c.mustRun(t, "status")
	assert.Contains(t, out, "Role: inventory_employee")
}

func TestOpen_redirectTarget(t *testing.T) {
	c := newConsole(t)
	tech := createUser(t, user.RoleTechnician, "tech")
	c.mustRun(t, "login", "--email", "tech@test.cd")

	out := c.mustRun(t, "open", "/supervisor/tasks")
	assert.Contains(t, out, "Redirected to /technician/dashboard")
	assert.NotContains(t, out, "Not logged in")

	// a role no section serves
	tech.Role = "janitor"
	_, err := inmemdb.NewUserRepository(db).UpdateUser(ctxBg, tech)
	require.NoError(t, err)

	out = c.mustRun(t, "open", "/technician/tasks")
	assert.Contains(t, out, `/technician/tasks is closed to role "janitor", redirected to /`)
	assert.NotContains(t, out, "Not logged in")
	assert.NotContains(t, out, "Pending Material Requests")
}

func TestClosingStore(t *testing.T) {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	files, err := client.NewFileStore(t.TempDir())
	require.NoError(t, err)
	api := client.NewAPI(srv.URL, nil)
	store := session.NewStore(client.NewVerifier(api, files, logger), client.NewDirectory(api, files), logger)

	cmd := &cobra.Command{}
	cmd.SetContext(injectApp(ctxBg, &app{store: store}))
	run := closingStore(func(*cobra.Command, []string) error { return errors.New("command failed") })

	assert.EqualError(t, run(cmd, nil), "command failed")
	assert.EqualError(t, store.Initialize(ctxBg), "session store closed")
}

func TestSections(t *testing.T) {
	c := newConsole(t)
	out := c.mustRun(t, "sections")
	for _, want := range []string{"/admin", "/supervisor/dashboard", "technician", "inventory_employee"} {
		assert.Contains(t, out, want)
	}
}

func TestShell(t *testing.T) {
	c := newConsole(t)
	createUser(t, user.RoleSupervisor, "sup")

	stdin := strings.Join([]string{
		"status",
		"login",
		"login sup@test.cd",
		"open /supervisor",
		"bogus",
		"open /nowhere",
		"logout",
		"exit",
		"status", // never reached
	}, "\n")
	out, err := c.run(t, stdin, "shell")
	require.NoError(t, err, out)

	assert.Equal(t, 1, strings.Count(out, "Not logged in"))
	assert.Contains(t, out, "usage: login EMAIL")
	assert.Contains(t, out, "Logged in as sup@test.cd (supervisor)")
	assert.Contains(t, out, "Overdue Tasks")
	assert.Contains(t, out, "bogus: unknown command")
	assert.Contains(t, out, "/nowhere: no such section")
	assert.Contains(t, out, "Logged out")
}
