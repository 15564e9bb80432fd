package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"user-order-console/internal/ui/render"
	"user-order-console/internal/usecase/form"
	"user-order-console/internal/usecase/listing"
	apperrors "user-order-console/pkg/errors"
)

// UserOrdersLoadError is shown when the orders of one user cannot be loaded
// and the API gave no structured reason.
const UserOrdersLoadError = "Could not load the user's orders."

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and create users",
	}
	cmd.AddCommand(c.usersListCmd(), c.usersCreateCmd(), c.userOrdersCmd())
	return cmd
}

func (c *cli) usersListCmd() *cobra.Command {
	var (
		page, limit int64
		query       string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of users, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := c.app.Container
			view := listing.NewUsers(d.Client.ListUsers, d.Logger, c.listOptions(page, limit, query))
			defer view.Close()

			view.Load(cmd.Context())
			s := view.State()
			if err := render.Users(cmd.OutOrStdout(), s); err != nil {
				return err
			}
			if s.Err != "" {
				return reported(errors.New(s.Err))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&page, "page", 1, "page number")
	cmd.Flags().Int64Var(&limit, "limit", 0, "page size (defaults to PAGE_SIZE)")
	cmd.Flags().StringVar(&query, "q", "", "search by name or email")
	return cmd
}

func (c *cli) usersCreateCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := form.NewUserForm(c.app.Container.Client, c.formDeps())
			f.Name, f.Email = name, email

			u, err := f.Submit(cmd.Context())
			if err != nil {
				return reported(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s <%s>\n", u.ID, u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func (c *cli) userOrdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders <user-id>",
		Short: "Show every order of one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			d := c.app.Container
			res, err := d.Client.ListUserOrders(cmd.Context(), id)
			if err != nil {
				d.Logger.Warn("failed to load user orders", zap.Int64("user_id", id), zap.Error(err))
				msg := apperrors.UserMessage(err, UserOrdersLoadError)
				if apiErr, ok := apperrors.AsAPIError(err); ok && apiErr.NotFound() && !apiErr.Structured() {
					msg = fmt.Sprintf("User #%d not found", id)
				}
				d.Notifier.Error(msg)
				return reported(err)
			}
			return render.UserOrders(cmd.OutOrStdout(), res.Items, res.Total)
		},
	}
}
