package main

import (
	"context"
	"time"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/user"
)

// addAdmin creates an admin account, or resets the password of the
// existing account with that email.
func (cli *commandLine) addAdmin(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	adm, err := cli.admins.GetAdminByEmail(ctx, email)
	if err == nil {
		if err = adm.SetPassword(pwd); err != nil {
			return err
		}
		return cli.admins.UpdatePassword(ctx, adm.ID, adm.PasswordHash)
	}
	if err != user.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	adm = user.Admin{
		Account: user.Account{
			Name:  name,
			Email: email,
			Role:  user.RoleAdmin,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = adm.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.admins.CreateAdmin(ctx, adm)
	return err
}
