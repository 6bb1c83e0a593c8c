package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gridconsole/internal/client/client"
	"github.com/dmitrijs2005/gridconsole/internal/client/session"
	"github.com/dmitrijs2005/gridconsole/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotLoggedIn = errors.New("not logged in, use 'login'")

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, username, string(password)); err != nil {
		return err
	}

	if u := a.session.User(); u != nil {
		fmt.Fprintf(a.out, "Logged in as %s (%s)\n", u.Username, u.Role)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return errNotLoggedIn
	}
	a.session.Logout(ctx)
	// Logout navigates; the operator asked for it, no need to re-prompt.
	a.loginRequested.Store(false)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return errNotLoggedIn
	}
	me, err := a.session.FetchMe(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:       %s\n", me.ID)
	fmt.Fprintf(a.out, "username: %s\n", me.Username)
	if me.DisplayName != "" {
		fmt.Fprintf(a.out, "name:     %s\n", me.DisplayName)
	}
	if me.Email != "" {
		fmt.Fprintf(a.out, "email:    %s\n", me.Email)
	}
	if me.Phone != "" {
		fmt.Fprintf(a.out, "phone:    %s\n", me.Phone)
	}
	fmt.Fprintf(a.out, "role:     %s\n", me.Role)
	if me.LastLoginAt != nil {
		fmt.Fprintf(a.out, "last login: %s\n", me.LastLoginAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return errNotLoggedIn
	}
	if _, ok := a.session.RefreshToken(ctx); !ok {
		a.loginRequested.Store(true)
		return errors.New("could not refresh credentials, please log in again")
	}
	fmt.Fprintln(a.out, "Credentials refreshed")
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		return errNotLoggedIn
	}

	oldPassword, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)

	newPassword, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	confirm, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(newPassword) != string(confirm) {
		return errors.New("passwords do not match")
	}

	if err := a.remote.ChangePassword(ctx, string(oldPassword), string(newPassword)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func (a *App) Status(context.Context) error {
	fmt.Fprintf(a.out, "server:  %s\n", a.config.ServerEndpointAddr)
	fmt.Fprintf(a.out, "session: %s\n", a.session.State())
	if a.remote.RefreshInFlight() {
		fmt.Fprintln(a.out, "token refresh in progress")
	}
	if a.watchdog != nil {
		fmt.Fprintf(a.out, "idle timeout: %s (armed: %t)\n", a.config.IdleTimeout, a.watchdog.Active())
	}
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.remote.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server is reachable")
	return nil
}

func describeError(err error) string {
	switch {
	case errors.Is(err, client.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, client.ErrAccountLocked):
		return "account temporarily locked after repeated failures, try again later"
	case errors.Is(err, client.ErrAccountDisabled):
		return "account disabled, contact an administrator"
	case errors.Is(err, client.ErrPasswordMismatch):
		return "current password is incorrect"
	case errors.Is(err, session.ErrProfileUnavailable):
		return "signed in but the profile could not be loaded (" + err.Error() + ")"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.Is(err, client.ErrUnauthorized):
		return "not authorized"
	default:
		return err.Error()
	}
}
