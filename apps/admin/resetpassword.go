package main

import (
	"context"
	"fmt"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	email = core.CleanString(email, true /* lower */)
	if tag := user.CheckPassword(pwd, email); tag != "" {
		return fmt.Errorf("invalid password: %s", user.PasswordPolicyError(tag))
	}
	return cli.passwords.SetPassword(context.Background(), email, pwd)
}
