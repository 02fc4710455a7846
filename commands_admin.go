package main

import (
	"EstoqueApp/app/models"
	"EstoqueApp/app/services"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSectorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sector",
		Aliases: []string{"setor"},
		Short:   "Manage sectors",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List sectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.login(); err != nil {
				return err
			}
			for _, s := range app.InventoryService.Sectors() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a sector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditProducts); err != nil {
				return err
			}
			return app.InventoryService.AddSector(args[0])
		},
	}

	rename := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a sector everywhere it is used",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditProducts); err != nil {
				return err
			}
			return app.InventoryService.EditSector(args[0], args[1])
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a sector with all its products, counts and movements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermEditProducts); err != nil {
				return err
			}
			return app.InventoryService.DeleteSector(args[0])
		},
	}

	cmd.AddCommand(list, add, rename, del)
	return cmd
}

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"usuario"},
		Short:   "Manage users and permissions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermManageUsers); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USUARIO\tPRODUTOS\tESTOQUE\tRELATORIOS\tUSUARIOS\tADMIN")
			for _, u := range app.InventoryService.Users() {
				fmt.Fprintf(w, "%s\t%t\t%t\t%t\t%t\t%t\n", u.Username,
					u.CanEditProducts, u.CanEditInventory, u.CanViewReports, u.CanManageUsers, u.IsAdmin)
			}
			return w.Flush()
		},
	}

	var perms models.Permissions
	bindPerms := func(c *cobra.Command) {
		c.Flags().BoolVar(&perms.CanEditProducts, "products", false, "may edit products and sectors")
		c.Flags().BoolVar(&perms.CanEditInventory, "inventory", false, "may count stock")
		c.Flags().BoolVar(&perms.CanViewReports, "reports", false, "may export reports")
		c.Flags().BoolVar(&perms.CanManageUsers, "users", false, "may manage users")
	}

	add := &cobra.Command{
		Use:   "add <username> <password>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession(services.PermManageUsers)
			if err != nil {
				return err
			}
			return app.InventoryService.AddUser(sess, args[0], args[1], perms)
		},
	}
	bindPerms(add)

	setPerms := &cobra.Command{
		Use:   "perms <username>",
		Short: "Replace a user's permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession(services.PermManageUsers)
			if err != nil {
				return err
			}
			return app.InventoryService.UpdateUserPermissions(sess, args[0], perms)
		},
	}
	bindPerms(setPerms)

	del := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession(services.PermManageUsers)
			if err != nil {
				return err
			}
			return app.InventoryService.DeleteUser(sess, args[0])
		},
	}

	passwd := &cobra.Command{
		Use:   "passwd <username> <new-password>",
		Short: "Change a password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.login()
			if err != nil {
				return err
			}
			return app.InventoryService.ChangePassword(sess, args[0], args[1])
		},
	}

	cmd.AddCommand(list, add, setPerms, del, passwd)
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var sector, output string
	cmd := &cobra.Command{
		Use:       "export <inventory|products|history>",
		Short:     "Export a ';'-separated CSV report",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"inventory", "products", "history"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermViewReports); err != nil {
				return err
			}

			var report string
			switch args[0] {
			case "inventory":
				report = app.InventoryService.GenerateInventoryCSV(sector)
			case "products":
				report = app.InventoryService.GenerateProductsCSV(sector)
			case "history":
				report = app.InventoryService.GenerateHistoryCSV(sector)
			default:
				return fmt.Errorf("unknown report %q", args[0])
			}

			if output == "" || output == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), report)
				return err
			}
			if err := os.WriteFile(output, []byte(report), 0644); err != nil {
				return fmt.Errorf("could not write report: %w", err)
			}
			app.LoggerService.LogInfo("Report exported", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sector, "sector", "s", "", "only this sector")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print inventory statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(services.PermViewReports); err != nil {
				return err
			}
			data, err := json.MarshalIndent(app.InventoryService.GetInventorySummary(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// readInput reads a file, or stdin for "-"
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", path, err)
	}
	return string(data), nil
}
