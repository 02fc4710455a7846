package main

import (
	"EstoqueApp/app/services"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInventoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"estoque"},
		Short:   "Count stock and inspect movements",
	}

	var description, sector string
	add := &cobra.Command{
		Use:   "add <code> <quantity>",
		Short: "Add (or subtract, with a negative quantity) stock for a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession(services.PermEditInventory)
			if err != nil {
				return err
			}
			delta, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			if err := app.InventoryService.UpdateInventoryAs(sess, args[0], description, sector, delta); err != nil {
				return err
			}
			item, _ := app.InventoryService.Item(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s total: %.1f\n", item.Code, item.Total)
			return nil
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "description for new items")
	add.Flags().StringVarP(&sector, "sector", "s", "", "sector for new items")

	var listSector string
	list := &cobra.Command{
		Use:   "list",
		Short: "List inventory totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermViewReports); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODIGO\tDESCRICAO\tSETOR\tTOTAL")
			for _, it := range app.InventoryService.Inventory() {
				if listSector != "" && !strings.EqualFold(it.Sector, listSector) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\n", it.Code, it.Description, it.Sector, it.Total)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVarP(&listSector, "sector", "s", "", "only this sector")

	var code string
	history := &cobra.Command{
		Use:   "history",
		Short: "List stock movements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermViewReports); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATA\tCODIGO\tTIPO\tQUANTIDADE\tTOTAL")
			for _, m := range app.InventoryService.History() {
				if code != "" && m.Code != code {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.1f\n",
					m.Timestamp.Format("02/01/2006 15:04"), m.Code, m.Type, m.Quantity, m.Total)
			}
			return w.Flush()
		},
	}
	history.Flags().StringVarP(&code, "code", "c", "", "only this product code")

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Reset every count and the movement history (products are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditInventory); err != nil {
				return err
			}
			if err := app.InventoryService.ClearInventory(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Inventory cleared")
			return nil
		},
	}

	cmd.AddCommand(add, list, history, clear)
	return cmd
}

// parseQuantity accepts both "1.5" and "1,5"
func parseQuantity(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", services.ErrInvalidQuantity, s)
	}
	return v, nil
}
