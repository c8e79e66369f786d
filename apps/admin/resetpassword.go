package main

import (
	"context"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/user"
)

func (cli *commandLine) resetPassword(role user.Role, email, pwd string) error {
	ctx := context.Background()
	store, err := cli.store(role)
	if err != nil {
		return err
	}

	acct, err := store.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = acct.SetPassword(pwd); err != nil {
		return err
	}
	return store.UpdatePassword(ctx, acct.ID, acct.PasswordHash)
}
