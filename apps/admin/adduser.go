package main

import (
	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByUsernameOrEmail(uname)
	if err == user.ErrNotFound && email != "" {
		usr, err = cli.usrSvc.GetByUsernameOrEmail(email)
	}
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		nu := user.NewUser{
			Name:            uname,
			Username:        uname,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
		}
		if isAdmin {
			nu.Roles = user.AllRoles
		}
		_, err = cli.usrSvc.Create(nu)
		return err
	}

	uu := user.UpdateUser{
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if isAdmin {
		uu.Roles = user.AllRoles
	}
	active := true
	uu.IsActive = &active
	_, err = cli.usrSvc.Update(usr.ID, uu)
	return err
}
