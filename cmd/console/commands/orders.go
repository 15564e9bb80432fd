package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"user-order-console/internal/ui/render"
	"user-order-console/internal/usecase/form"
	"user-order-console/internal/usecase/listing"
)

func (c *cli) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List and create orders",
	}
	cmd.AddCommand(c.ordersListCmd(), c.ordersCreateCmd())
	return cmd
}

func (c *cli) ordersListCmd() *cobra.Command {
	var (
		page, limit int64
		query       string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := c.app.Container
			view := listing.NewOrders(d.Client.ListOrders, d.Logger, c.listOptions(page, limit, query))
			defer view.Close()

			view.Load(cmd.Context())
			s := view.State()
			if err := render.Orders(cmd.OutOrStdout(), s); err != nil {
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
	cmd.Flags().StringVar(&query, "q", "", "search by product, user name or email")
	return cmd
}

func (c *cli) ordersCreateCmd() *cobra.Command {
	var (
		userID          int64
		product, amount string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order; without --user the selectable users are listed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := c.app.Container
			f := form.NewOrderForm(d.Client, d.UserOptions, c.formDeps())
			out := cmd.OutOrStdout()

			if userID == 0 {
				f.LoadUsers(cmd.Context())
				if opts := f.UserOptions(); len(opts) > 0 {
					fmt.Fprintln(out, "Select a user with --user:")
					for _, u := range opts {
						fmt.Fprintf(out, "  %d\t%s — %s\n", u.ID, u.Name, u.Email)
					}
				}
			}

			f.UserID, f.ProductName, f.Amount = userID, product, amount
			o, err := f.Submit(cmd.Context())
			if err != nil {
				return reported(err)
			}
			fmt.Fprintf(out, "#%d %s %s\n", o.ID, o.ProductName, o.Amount)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "id of the ordering user")
	cmd.Flags().StringVar(&product, "product", "", "product name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, with a comma or a dot as decimal separator")
	return cmd
}
