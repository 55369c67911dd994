package cmd

import (
	"context"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"github.com/trezcool/maintenance/apps/console/client"
	"github.com/trezcool/maintenance/core/session"
)

const sessionTimeout = 10 * time.Second

var (
	errInvalidLogin    = errors.New("invalid email or password")
	errProfileNotFound = errors.New("no profile is attached to this account, contact an administrator")
)

func (a *app) login(ctx context.Context, email string) error {
	pterm.Print("Password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	pterm.Println()
	if err != nil {
		return errors.Wrap(err, "reading password")
	}

	p, err := a.store.Login(ctx, email, string(pwd))
	if err != nil {
		if _, ok := session.IsAuthenticationError(err); ok {
			return errInvalidLogin
		}
		if errors.Is(err, session.ErrProfileNotFound) {
			return errProfileNotFound
		}
		return err
	}

	pterm.Success.Printf("Logged in as %s (%s)\n", email, p.Role)
	landing := session.RouteFor(p.Role)
	pterm.Info.Printf("Landing: %s\n", landing)
	if section, ok := session.SectionFor(p.Role); ok {
		a.printNav(section, landing)
	}
	return nil
}

func (a *app) logout(ctx context.Context) error {
	err := a.store.Logout(ctx)
	pterm.Success.Println("Logged out")
	if err != nil {
		a.logger.Warn("logout", err)
	}
	return nil
}

func (a *app) status(ctx context.Context) error {
	s, err := a.waitSession(ctx)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Session")
	if !s.Authenticated() {
		pterm.Info.Println("Not logged in")
		return nil
	}
	pterm.Info.Printf("Principal ID: %s\n", s.Principal.ID)
	pterm.Info.Printf("Role: %s\n", s.Principal.Role)
	pterm.Info.Printf("Landing: %s\n", session.RouteFor(s.Principal.Role))
	if creds, err := a.files.Load(); err == nil && !creds.ExpiresAt.IsZero() {
		pterm.Info.Printf("Token expires at: %s\n", creds.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func (a *app) sections(ctx context.Context) error {
	sections, err := a.api.Sections(ctx)
	if err != nil {
		return err
	}
	data := pterm.TableData{{"NAME", "ROLE", "ROOT", "LANDING"}}
	for _, s := range sections {
		data = append(data, []string{s.Name, string(s.Role), s.Root, s.Landing})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// open runs the section guard on path, then renders where the session is allowed to be.
func (a *app) open(ctx context.Context, path string) error {
	section, ok := session.SectionByPath(path)
	if !ok {
		return errors.Errorf("%s: no such section", path)
	}
	return a.enter(ctx, section, path, false)
}

func (a *app) enter(ctx context.Context, section session.Section, path string, redirected bool) error {
	guard := session.NewGuard(section)
	s := a.store.Session()
	decision := guard.Check(s)

	if decision.State == session.Loading {
		var err error
		if s, err = a.waitSession(ctx); err != nil {
			return err
		}
		decision = guard.Check(s)
	}

	switch decision.State {
	case session.Authorized:
		return a.render(ctx, section, path)
	case session.Unauthorized:
		if s.Principal == nil {
			pterm.Warning.Println("Not logged in, run `login` first")
			return nil
		}
		target, ok := session.SectionByPath(decision.Redirect)
		if !ok || redirected {
			// no section serves the redirect target
			pterm.Warning.Printf("%s is closed to role %q, redirected to %s\n", path, s.Principal.Role, decision.Redirect)
			return nil
		}
		pterm.Info.Printf("Redirected to %s\n", decision.Redirect)
		return a.enter(ctx, target, decision.Redirect, true)
	}
	return errors.New("session still loading")
}

// waitSession blocks until the store resolves, showing a placeholder meanwhile.
func (a *app) waitSession(ctx context.Context) (session.Session, error) {
	if s := a.store.Session(); !s.Loading {
		return s, nil
	}

	var spinner *pterm.SpinnerPrinter
	if a.interactive {
		spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Loading session...")
	}

	ctx, cancel := context.WithTimeout(ctx, sessionTimeout)
	defer cancel()
	s, err := a.store.Wait(ctx)

	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return s, errors.Wrap(err, "waiting for session")
	}
	return s, nil
}

func (a *app) render(ctx context.Context, section session.Section, path string) error {
	creds, err := a.files.Load()
	if err != nil {
		if err == client.ErrNotLoggedIn {
			pterm.Warning.Println("Not logged in, run `login` first")
			return nil
		}
		return err
	}
	if creds.Role != section.Role {
		// the token predates a role change
		if err = a.verifier.Refresh(ctx); err != nil {
			return err
		}
		if creds, err = a.files.Load(); err != nil {
			return err
		}
	}
	summary, err := a.api.Dashboard(ctx, creds.Token, section)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println(section.Name)
	data := make(pterm.TableData, 0, len(summary.Cards))
	for _, c := range summary.Cards {
		data = append(data, []string{c.Title, strconv.Itoa(c.Value)})
	}
	if err = pterm.DefaultTable.WithData(data).Render(); err != nil {
		return err
	}
	a.printNav(section, path)
	return nil
}

func (a *app) printNav(section session.Section, current string) {
	pterm.DefaultSection.WithLevel(2).Println("Navigation")
	for _, item := range section.Nav {
		marker := " "
		if item.Path == current || (current == section.Root && item.Path == section.Landing) {
			marker = "*"
		}
		pterm.Printf("%s %-22s %s\n", marker, item.Name, item.Path)
	}
}

func (a *app) printSessionChange(s session.Session) {
	switch {
	case s.Loading:
	case s.Principal == nil:
		pterm.Warning.Println("Signed out")
	default:
		pterm.Info.Printf("Signed in as %s, landing %s\n", s.Principal.Role, session.RouteFor(s.Principal.Role))
	}
}
