package main

import (
	"EstoqueApp/app/config"
	"EstoqueApp/app/database"
	"EstoqueApp/app/models"
	"EstoqueApp/app/services"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const logRetentionDays = 30

// App struct
type App struct {
	LoggerService    *services.LoggerService
	InventoryService *services.InventoryService

	// Flags
	configPath   string
	username     string
	password     string
	activeSector string
	verbose      bool

	session *models.Session
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// startup loads configuration, opens the store and loads the inventory
func (a *App) startup() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.LoggerService == nil {
		a.LoggerService = services.NewLoggerService(cfg.System.LogDir, a.verbose || cfg.System.Debug)
		if err := a.LoggerService.CleanOldLogs(logRetentionDays); err != nil {
			a.LoggerService.LogWarning("Could not clean old logs", err.Error())
		}
	}

	if err := database.InitializeWithConfig(cfg); err != nil {
		a.LoggerService.LogError("Failed to initialize database", err)
		return err
	}

	kv := database.NewGormKVStore(database.GetDB())
	if keys, err := kv.Keys(); err == nil {
		a.LoggerService.LogDebug("Opened inventory store", zap.Strings("keys", keys))
	}

	inv, err := services.NewInventoryService(
		kv,
		a.LoggerService,
		services.InventoryOptions{
			DefaultSectors:    cfg.Inventory.DefaultSectors,
			AdminPassword:     cfg.Security.AdminPassword,
			BcryptCost:        cfg.Security.BcryptCost,
			LowStockThreshold: cfg.Inventory.LowStockThreshold,
		},
	)
	if err != nil {
		a.LoggerService.LogError("Failed to load inventory", err)
		return err
	}
	a.InventoryService = inv
	return nil
}

// shutdown closes the database and flushes logs
func (a *App) shutdown() {
	if a.LoggerService == nil {
		return
	}
	if err := database.Close(); err != nil {
		a.LoggerService.LogError("Error closing database", err)
	}
	a.LoggerService.Close()
}

// login authenticates with the --user/--password flags once per run
func (a *App) login() (*models.Session, error) {
	if a.session == nil {
		if a.username == "" {
			return nil, fmt.Errorf("%w: --user is required", services.ErrPermissionDenied)
		}
		sess, err := a.InventoryService.Authenticate(a.username, a.password)
		if err != nil {
			return nil, err
		}
		a.session = sess.WithSector(a.activeSector)
	}
	return a.session, nil
}

// requireSession logs in and checks perm against the user's current permissions
func (a *App) requireSession(perm services.Permission) (*models.Session, error) {
	sess, err := a.login()
	if err != nil {
		return nil, err
	}
	if err := a.InventoryService.Authorize(sess, perm); err != nil {
		return nil, err
	}
	return sess, nil
}

// newRootCmd builds the command tree bound to app
func newRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "estoque",
		Short:         "Gerenciador de Estoque - products, stock counts, sectors and users",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.startup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "path to config.json (default: user config dir)")
	flags.StringVarP(&app.username, "user", "u", os.Getenv("ESTOQUE_USER"), "username")
	flags.StringVarP(&app.password, "password", "p", os.Getenv("ESTOQUE_PASSWORD"), "password")
	flags.StringVar(&app.activeSector, "active-sector", "", "restrict inventory edits to this sector")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newProductCmd(app),
		newInventoryCmd(app),
		newSectorCmd(app),
		newUserCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newSummaryCmd(app),
	)
	return root
}

func main() {
	// Load environment variables from .env file (for development)
	_ = godotenv.Load(".env")
	os.Exit(run())
}

func run() (code int) {
	app := NewApp()
	defer app.shutdown()
	defer func() {
		if r := recover(); r != nil {
			if app.LoggerService != nil {
				app.LoggerService.LogPanic(r)
			}
			fmt.Fprintln(os.Stderr, "Fatal:", r)
			code = 2
		}
	}()

	if err := newRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
