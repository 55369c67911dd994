package cmd

import (
	"bufio"
	"context"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Long: `Starts an interactive session. The token is refreshed in the background;
role changes and sign-outs made elsewhere show up as they happen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mustApp(cmd.Context()).shell(cmd.Context())
		},
	}
}

func (a *app) shell(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.verifier.Run(ctx, a.conf.Client.RefreshInterval)

	if _, err := a.waitSession(ctx); err != nil {
		return err
	}
	unwatch := a.store.Watch(a.printSessionChange)
	defer unwatch()
	a.printShellHelp()

	scanner := bufio.NewScanner(a.in)
	for {
		pterm.Print("> ")
		if !scanner.Scan() {
			pterm.Println()
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "exit", "quit":
			return nil
		case "help":
			a.printShellHelp()
		case "login":
			if len(fields) != 2 {
				pterm.Warning.Println("usage: login EMAIL")
				continue
			}
			err = a.login(ctx, fields[1])
		case "logout":
			err = a.logout(ctx)
		case "status":
			err = a.status(ctx)
		case "sections":
			err = a.sections(ctx)
		case "open":
			if len(fields) != 2 {
				pterm.Warning.Println("usage: open PATH")
				continue
			}
			err = a.open(ctx, fields[1])
		default:
			pterm.Warning.Printf("%s: unknown command, try help\n", fields[0])
		}
		if err != nil {
			pterm.Error.Println(err)
		}
	}
}

func (a *app) printShellHelp() {
	pterm.Println("Commands:")
	pterm.Println("  login EMAIL   log in, the password is prompted for")
	pterm.Println("  logout        log out")
	pterm.Println("  status        who is logged in")
	pterm.Println("  sections      list the sections")
	pterm.Println("  open PATH     open a section page")
	pterm.Println("  exit          leave the shell")
}
