package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/dcplaces/backend/internal/identity"
)

func credentialFlags(cmd *cobra.Command, email, password *string) {
	cmd.Flags().StringVarP(email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

func resultError(res identity.Result) error {
	if res.Success {
		return nil
	}
	return errors.New(res.Error)
}

func (r *root) newSignUpCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			res := app.Auth.SignUp(ctx, email, password)
			if err := resultError(res); err != nil {
				return err
			}
			if res.Data.Session == nil {
				app.ok("Account created for %s. Check your inbox to confirm it, then sign in.", email)
				return nil
			}
			app.ok("Account created; signed in as %s", email)
			return nil
		}),
	}
	credentialFlags(cmd, &email, &password)
	return cmd
}

func (r *root) newSignInCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			res := app.Auth.SignIn(ctx, email, password)
			if err := resultError(res); err != nil {
				return err
			}
			app.ok("Signed in as %s", res.Data.User.Email)
			return nil
		}),
	}
	credentialFlags(cmd, &email, &password)
	return cmd
}

func (r *root) newSignOutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			s := app.Store.Current()
			if s == nil {
				fmt.Fprintln(app.Out, "Not signed in")
				return nil
			}
			if err := resultError(app.Auth.SignOut(ctx, s.AccessToken)); err != nil {
				return err
			}
			app.ok("Signed out")
			return nil
		}),
	}
}

func (r *root) newWhoAmICommand() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			s, err := app.requireSession()
			if err != nil {
				return err
			}

			user := s.User
			if remote {
				res := app.Auth.GetUser(ctx, s.AccessToken)
				if err := resultError(res); err != nil {
					return err
				}
				user = *res.Data.User
			}

			headColor.Fprintln(app.Out, user.Email)
			fmt.Fprintf(app.Out, "id:      %s\n", user.ID)
			if exp := s.Expiry(); !exp.IsZero() {
				fmt.Fprintf(app.Out, "expires: %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "fetch the account from the identity service")
	return cmd
}
