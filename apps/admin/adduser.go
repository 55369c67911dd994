package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/user"
)

// addUser registers the credential and the profile of a new user.
func (cli *commandLine) addUser(nu user.NewUser, pwd string) (user.User, error) {
	if core.CleanString(nu.Username) == "" {
		if i := strings.IndexByte(nu.Email, '@'); i > 0 {
			nu.Username = nu.Email[:i]
		}
	}
	nu.Password = pwd
	nu.PasswordConfirm = pwd

	if err := nu.Validate(cli.validate); err != nil {
		return user.User{}, cli.validationError(err)
	}
	return cli.usrSvc.Create(context.Background(), nu)
}

func (cli *commandLine) validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Translate(cli.translator)))
	}
	return fmt.Errorf("invalid user: %s", strings.Join(msgs, "; "))
}
