package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/M0byNick/bookandacoffee/internal/account"
	accountrepo "github.com/M0byNick/bookandacoffee/internal/account/repo"
)

func (rt *runtime) migrate(c *cli.Context) error {
	if err := rt.repo.EnsureTable(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "accounts table ready")
	return nil
}

func (rt *runtime) signup(c *cli.Context) error {
	a, err := rt.svc.Signup(c.Context, account.SignupInput{
		Username: c.String("username"),
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return err
	}
	return printJSON(c, a)
}

func (rt *runtime) login(c *cli.Context) error {
	a, err := rt.svc.Authenticate(c.Context, c.String("identifier"), c.String("password"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "ok %s\n", a.ID)
	return nil
}

func (rt *runtime) passwd(c *cli.Context) error {
	if err := rt.svc.ChangePassword(c.Context, c.String("id"), c.String("current"), c.String("new")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "password changed")
	return nil
}

func (rt *runtime) profile(c *cli.Context) error {
	a, err := rt.svc.UpdateProfile(c.Context, c.String("id"), account.ProfileInput{
		Biography:        c.String("bio"),
		FavoriteSubjects: c.StringSlice("subject"),
		ProfilePicURL:    c.String("picture"),
	})
	if err != nil {
		return err
	}
	return printJSON(c, a)
}

// confirmRequest prints the token; handing it to the user is up to the operator.
func (rt *runtime) confirmRequest(c *cli.Context) error {
	token, err := rt.svc.RequestConfirmation(c.Context, c.String("id"))
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Fprintln(c.App.Writer, "already confirmed")
		return nil
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}

func (rt *runtime) confirm(c *cli.Context) error {
	if err := rt.svc.ConfirmEmail(c.Context, c.String("id"), c.String("token")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "email confirmed")
	return nil
}

func (rt *runtime) show(c *cli.Context) error {
	a, err := rt.svc.Get(c.Context, c.String("id"))
	if err != nil {
		return err
	}
	return printJSON(c, a)
}

func (rt *runtime) remove(c *cli.Context) error {
	if err := rt.svc.Delete(c.Context, c.String("id")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "deleted")
	return nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userMessage maps errors to text that never reveals hashing internals or
// whether an account exists.
func userMessage(err error) string {
	switch {
	case errors.Is(err, account.ErrBadCredentials):
		return "invalid credentials"
	case errors.Is(err, account.ErrInvalidConfirmationToken):
		return "invalid or expired confirmation token"
	case errors.Is(err, account.ErrAlreadyConfirmed):
		return "email already confirmed"
	case errors.Is(err, account.ErrPasswordTooLong):
		return "password too long (max 72 bytes)"
	case errors.Is(err, accountrepo.ErrDuplicate):
		return "username or email already taken"
	case errors.Is(err, accountrepo.ErrNotFound):
		return "account not found"
	case errors.Is(err, account.ErrHashBackend):
		return "internal error"
	default:
		return err.Error()
	}
}
