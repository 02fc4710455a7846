package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"EstoqueApp/app/security"
)

const appDirName = "Estoque"

// AppConfig holds all application configuration
type AppConfig struct {
	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Inventory rules and seed data
	Inventory InventoryConfig `json:"inventory"`

	// Security settings
	Security SecurityConfig `json:"security"`

	// System Configuration
	System SystemConfig `json:"system"`
}

// DatabaseConfig holds key/value store connection settings
type DatabaseConfig struct {
	Driver   string `json:"driver"` // "sqlite" or "postgres"
	Path     string `json:"path"`   // SQLite file
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
	URL      string `json:"url,omitempty"` // Full DSN, overrides the fields above
}

// InventoryConfig holds inventory seed data
type InventoryConfig struct {
	DefaultSectors    []string `json:"default_sectors"`
	LowStockThreshold float64  `json:"low_stock_threshold"`
}

// SecurityConfig holds authentication settings
type SecurityConfig struct {
	AdminPassword string `json:"admin_password"` // Seed admin password, encrypted at rest
	BcryptCost    int    `json:"bcrypt_cost"`
}

// SystemConfig holds system settings
type SystemConfig struct {
	LogDir string `json:"log_dir"`
	Debug  bool   `json:"debug"`
}

// GetConfigDir returns the per-user application directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv("ESTOQUE_CONFIG_DIR"); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("could not create config directory: %w", err)
		}
		return dir, nil
	}

	// Get user's AppData directory
	appData := os.Getenv("APPDATA")
	if appData == "" {
		// Fallback to the user config directory
		configDir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not determine config directory: %w", err)
		}
		appData = configDir
	}

	dir := filepath.Join(appData, appDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory: %w", err)
	}
	return dir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Default returns the built-in configuration
func Default() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    filepath.Join("data", "estoque.db"),
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Inventory: InventoryConfig{
			DefaultSectors:    []string{"Açougue", "Hortifruti", "Outros"},
			LowStockThreshold: 0,
		},
		Security: SecurityConfig{
			AdminPassword: "admin",
			BcryptCost:    10,
		},
		System: SystemConfig{
			LogDir: "",
		},
	}
}

// LoadConfig loads configuration from path and decrypts sensitive fields.
// An empty path means the default location. A missing file yields Default().
// Environment overrides are applied last.
func LoadConfig(path string) (*AppConfig, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("could not read config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
		if err := cfg.decryptSensitiveFields(); err != nil {
			return nil, fmt.Errorf("could not decrypt sensitive fields: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// SaveConfig saves configuration to path after encrypting sensitive fields
func SaveConfig(path string, cfg *AppConfig) error {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}

	// Encrypt a copy so the caller keeps plaintext values
	cfgCopy := *cfg
	if err := cfgCopy.encryptSensitiveFields(); err != nil {
		return fmt.Errorf("could not encrypt sensitive fields: %w", err)
	}

	data, err := json.MarshalIndent(&cfgCopy, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	// Write to file with restrictive permissions
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}

	return nil
}

// applyEnv overrides fields from environment variables
// Priority: DATABASE_URL > ESTOQUE_DB_* > config file
func (cfg *AppConfig) applyEnv() {
	if driver := os.Getenv("ESTOQUE_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if path := os.Getenv("ESTOQUE_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.URL = dsn
	}
	if pw := os.Getenv("ESTOQUE_ADMIN_PASSWORD"); pw != "" {
		cfg.Security.AdminPassword = pw
	}
	if dir := os.Getenv("ESTOQUE_LOG_DIR"); dir != "" {
		cfg.System.LogDir = dir
	}
	if debug, err := strconv.ParseBool(os.Getenv("ESTOQUE_DEBUG")); err == nil {
		cfg.System.Debug = debug
	}
}

// encryptSensitiveFields encrypts sensitive configuration fields
func (cfg *AppConfig) encryptSensitiveFields() error {
	var err error

	if cfg.Database.Password != "" {
		cfg.Database.Password, err = security.Encrypt(cfg.Database.Password)
		if err != nil {
			return fmt.Errorf("could not encrypt database password: %w", err)
		}
	}

	if cfg.Security.AdminPassword != "" {
		cfg.Security.AdminPassword, err = security.Encrypt(cfg.Security.AdminPassword)
		if err != nil {
			return fmt.Errorf("could not encrypt admin password: %w", err)
		}
	}

	return nil
}

// decryptSensitiveFields decrypts sensitive configuration fields
// If a field is not encrypted (plain text), it leaves it as-is
func (cfg *AppConfig) decryptSensitiveFields() error {
	if cfg.Database.Password != "" {
		decrypted, err := security.Decrypt(cfg.Database.Password)
		if err != nil {
			decrypted = cfg.Database.Password
		}
		cfg.Database.Password = decrypted
	}

	if cfg.Security.AdminPassword != "" {
		decrypted, err := security.Decrypt(cfg.Security.AdminPassword)
		if err != nil {
			decrypted = cfg.Security.AdminPassword
		}
		cfg.Security.AdminPassword = decrypted
	}

	return nil
}
