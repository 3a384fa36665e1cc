// Package cli implements placesctl, a terminal client for the places API.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/dcplaces/backend/internal/config"
	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
)

type runFunc func(ctx context.Context, app *App, args []string) error

type root struct {
	load    func() *config.Config
	verbose bool
}

// NewRootCmd creates the root command. load supplies configuration; nil
// means config.Load.
func NewRootCmd(load func() *config.Config) *cobra.Command {
	if load == nil {
		load = config.Load
	}
	r := &root{load: load}

	rootCmd := &cobra.Command{
		Use:           "placesctl",
		Short:         "Browse and manage DC place recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "log identity and API calls")

	rootCmd.AddCommand(
		r.newSignUpCommand(),
		r.newSignInCommand(),
		r.newSignOutCommand(),
		r.newWhoAmICommand(),
		r.newPostsCommand(),
		r.newCommentsCommand(),
	)
	return rootCmd
}

// run wraps fn with the App lifecycle: session restored before, store closed
// and session persisted after, whatever fn returns.
func (r *root) run(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if r.verbose {
			logs.SetOutput(cmd.ErrOrStderr())
			logs.SetLevel("debug")
		} else {
			logs.SetOutput(io.Discard)
		}

		app, err := newApp(r.load(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := app.start(ctx); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, app.stop())
		}()

		return fn(ctx, app, args)
	}
}
