package main

import (
	"EstoqueApp/app/services"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProductCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "product",
		Aliases: []string{"produto"},
		Short:   "Manage the product catalogue",
	}

	var sector string
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermViewReports); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODIGO\tDESCRICAO\tSETOR")
			for _, p := range app.InventoryService.Products() {
				if sector != "" && !strings.EqualFold(p.Sector, sector) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Code, p.Description, p.Sector)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVarP(&sector, "sector", "s", "", "only this sector")

	add := &cobra.Command{
		Use:   "add <code> <description> <sector>",
		Short: "Create or update a product",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditProducts); err != nil {
				return err
			}
			if err := app.InventoryService.UpsertProduct(args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product %s saved\n", args[0])
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a product and its inventory count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditProducts); err != nil {
				return err
			}
			if err := app.InventoryService.DeleteProduct(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product %s deleted\n", args[0])
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete every product, inventory count and movement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditProducts); err != nil {
				return err
			}
			if err := app.InventoryService.ClearProducts(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Products cleared")
			return nil
		},
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "List imported products waiting for a sector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermViewReports); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODIGO\tDESCRICAO")
			for _, p := range app.InventoryService.PendingImported() {
				fmt.Fprintf(w, "%s\t%s\n", p.Code, p.Description)
			}
			return w.Flush()
		},
	}

	assign := &cobra.Command{
		Use:   "assign <sector> [code...]",
		Short: "Assign a sector to products (all pending products when no code is given)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditProducts); err != nil {
				return err
			}
			var err error
			if len(args) == 1 {
				err = app.InventoryService.AssignSectorToPending(args[0])
			} else {
				err = app.InventoryService.AssignSectorToProducts(args[1:], args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sector %s assigned\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, del, clear, pending, assign)
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import products from a CSV file (code;description[;sector])",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditProducts); err != nil {
				return err
			}
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			result, err := app.InventoryService.ImportProductsFromCSV(content)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products (%d without sector, %d lines skipped)\n",
				result.Imported, result.Pending, result.Skipped)
			return nil
		},
	}
}
