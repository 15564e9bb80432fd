package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"user-order-console/internal/usecase/transfer"
)

func (c *cli) control(dir string) *transfer.Control {
	d := c.app.Container
	if dir == "" {
		return d.Transfer
	}
	return transfer.New(d.Client, dir, d.Notifier, d.Bus, d.Logger)
}

func (c *cli) exportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "export users|orders|all...",
		Short:     "Write JSON exports into a directory",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{string(transfer.Users), string(transfer.Orders), string(transfer.All)},
		RunE: func(cmd *cobra.Command, args []string) error {
			entities := make([]transfer.Entity, 0, len(args))
			for _, arg := range args {
				e, err := transfer.ParseEntity(arg)
				if err != nil {
					return err
				}
				entities = append(entities, e)
			}

			paths, err := c.control(dir).ExportMany(cmd.Context(), entities...)
			if err != nil {
				return reported(err)
			}
			for _, path := range paths {
				size := "?"
				if info, err := os.Stat(path); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, size)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (defaults to EXPORT_DIR)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "import users|orders <file>",
		Short:     "Bulk-create records from a JSON file",
		Long:      "The file holds a JSON array of records or an object with an \"items\" array.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(transfer.Users), string(transfer.Orders)},
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := transfer.ParseEntity(args[0])
			if err != nil {
				return err
			}
			if entity == transfer.All {
				return fmt.Errorf("import accepts users or orders, not %q", args[0])
			}

			_, err = c.control("").Import(cmd.Context(), entity, args[1])
			return reported(err)
		},
	}
}
