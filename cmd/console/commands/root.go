// Package commands defines the console's cobra command tree.
package commands

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"user-order-console/cmd/console/app"
	"user-order-console/internal/usecase/form"
	"user-order-console/internal/usecase/listing"
)

// cli carries the state shared by every command of one invocation.
type cli struct {
	opts app.Options
	app  *app.App
}

// Run executes the console with args and returns once the command finishes.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "console",
		Short: "Manage users and orders of the user/order API",
		Long: `Terminal client for the user/order API. Usage:

	console users list --q ada
	console orders create --user 3 --product Pen --amount 5,00
	console browse users
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.opts.Out = cmd.OutOrStdout()
			a, err := app.New(cmd.Context(), c.opts)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.opts.APIURL, "api-url", "", "API base URL (overrides API_BASE_URL)")
	root.PersistentFlags().StringVar(&c.opts.ConfigPath, "config", "", "directory containing app.env (defaults to CONFIG_PATH or .)")

	root.AddCommand(
		c.healthCmd(),
		c.usersCmd(),
		c.ordersCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.browseCmd(),
	)
	return root
}

func (c *cli) listOptions(page, limit int64, query string) listing.Options {
	if limit <= 0 {
		limit = c.app.Config.UI.PageSize
	}
	return listing.Options{
		Limit:             limit,
		Page:              page,
		Query:             query,
		ResetPageOnSearch: c.app.Config.UI.ResetPageOnSearch,
	}
}

func (c *cli) formDeps() form.Deps {
	d := c.app.Container
	return form.Deps{
		Notifier: d.Notifier,
		Bus:      d.Bus,
		Log:      d.Logger,
	}
}

// reportedError marks a failure that was already shown through a
// notification or an inline message.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
