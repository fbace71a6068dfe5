// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Outputs holds fallback modes/positions for headless or
	// backend-less outputs
	Outputs OutputsConfig `mapstructure:"outputs"`

	// Seat configuration
	Seat SeatConfig `mapstructure:"seat"`

	// DnD configuration
	DnD DnDConfig `mapstructure:"dnd"`

	// Console configuration
	Console ConsoleConfig `mapstructure:"console"`

	// IPC configuration
	IPC IPCConfig `mapstructure:"ipc"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// OutputsConfig holds the saved output profiles, keyed by name for the
// profile helpers below. At startup the daemon brings up one output
// per enabled profile; the name is not matched to any backend
// connector.
type OutputsConfig struct {
	Profiles []OutputProfile `mapstructure:"profiles"`
}

// OutputProfile is a saved output configuration.
type OutputProfile struct {
	Name      string  `mapstructure:"name"`
	Width     int32   `mapstructure:"width"`
	Height    int32   `mapstructure:"height"`
	Refresh   int32   `mapstructure:"refresh"`
	X         int32   `mapstructure:"x"`
	Y         int32   `mapstructure:"y"`
	Auto      bool    `mapstructure:"auto"`
	Scale     float64 `mapstructure:"scale"`
	Transform string  `mapstructure:"transform"`
	Enabled   bool    `mapstructure:"enabled"`
}

// SeatConfig contains seat-wide input defaults
type SeatConfig struct {
	Name               string `mapstructure:"name"`
	XkbLayout          string `mapstructure:"xkb_layout"`
	RepeatRate         int    `mapstructure:"repeat_rate"`
	RepeatDelay        int    `mapstructure:"repeat_delay"`
	SelectionTimeoutMs int    `mapstructure:"selection_timeout_ms"`
}

// DnDConfig contains data-device drag-and-drop defaults
type DnDConfig struct {
	DefaultCompositorAction string `mapstructure:"default_compositor_action"`
	AskTimeoutMs            int    `mapstructure:"ask_timeout_ms"`
	AllowCompositorAsk      bool   `mapstructure:"allow_compositor_ask"`
}

// IPCConfig contains the introspection socket's settings
type IPCConfig struct {
	SocketPath     string `mapstructure:"socket_path"`
	MaxClients     int    `mapstructure:"max_clients"`
	RequestTimeout int    `mapstructure:"request_timeout_ms"`
}

// ConsoleConfig contains the SSH operator console's settings
type ConsoleConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	ListenAddress      string `mapstructure:"listen_address"`
	Port               int    `mapstructure:"port"`
	HostKeyPath        string `mapstructure:"host_key_path"`
	AuthorizedKeysPath string `mapstructure:"authorized_keys_path"`
	AllowMutations     bool   `mapstructure:"allow_mutations"`
	// MaxSessions caps concurrent console connections; 0 means unlimited.
	MaxSessions int `mapstructure:"max_sessions"`
}

// LoggingConfig contains structured-logging settings
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	FilePath string `mapstructure:"file_path"`
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Outputs: OutputsConfig{
			Profiles: []OutputProfile{},
		},
		Seat: SeatConfig{
			Name:               "seat0",
			XkbLayout:          "us",
			RepeatRate:         25,
			RepeatDelay:        600,
			SelectionTimeoutMs: 2000,
		},
		DnD: DnDConfig{
			DefaultCompositorAction: "copy",
			AskTimeoutMs:            3000,
			AllowCompositorAsk:      true,
		},
		Console: ConsoleConfig{
			Enabled:            false,
			ListenAddress:      "127.0.0.1",
			Port:               2322,
			HostKeyPath:        "",
			AuthorizedKeysPath: "",
			AllowMutations:     false,
			MaxSessions:        4,
		},
		IPC: IPCConfig{
			SocketPath:     defaultSocketPath(),
			MaxClients:     8,
			RequestTimeout: 2000,
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: "",
		},
	}

	// Global config instance
	cfg *Config
)

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "wlcored.sock")
	}
	return "/run/wlcored/wlcored.sock"
}

// Init initializes the configuration system using the default search path.
func Init() error {
	return InitWithFile("")
}

// InitWithFile initializes the configuration system. If configFile is
// non-empty it is read explicitly (as with cobra's --config flag),
// bypassing the default search path.
func InitWithFile(configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config name and type
		viper.SetConfigName("wlcored")
		viper.SetConfigType("toml")

		// Add config paths in order of precedence
		viper.AddConfigPath("/etc/wlcored") // System config directory (primary)

		// If running with sudo, try the real user's config
		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			userConfigPath := fmt.Sprintf("/home/%s/.config/wlcored", sudoUser)
			viper.AddConfigPath(userConfigPath)
		} else if home := os.Getenv("HOME"); home != "" && home != "/root" {
			// Normal user config
			viper.AddConfigPath(filepath.Join(home, ".config", "wlcored"))
		}

		viper.AddConfigPath(".") // Current directory (lowest priority)
	}

	// Set defaults
	viper.SetDefault("outputs", DefaultConfig.Outputs)
	viper.SetDefault("seat", DefaultConfig.Seat)
	viper.SetDefault("dnd", DefaultConfig.DnD)
	viper.SetDefault("console", DefaultConfig.Console)
	viper.SetDefault("ipc", DefaultConfig.IPC)
	viper.SetDefault("logging", DefaultConfig.Logging)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal config
	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		// If we can't create it (e.g., /etc/wlcored needs sudo), provide helpful message
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	// Check if config file is already loaded
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	// For servers/sudo, prefer system config
	if os.Getuid() == 0 || os.Getenv("SUDO_USER") != "" {
		return "/etc/wlcored/wlcored.toml"
	}

	// For regular users, use user config directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/wlcored/wlcored.toml"
	}

	return filepath.Join(home, ".config", "wlcored", "wlcored.toml")
}

// AddOutputProfile adds or replaces a saved output profile by name
func AddOutputProfile(profile OutputProfile) error {
	cfg := Get()

	for i, p := range cfg.Outputs.Profiles {
		if p.Name == profile.Name {
			cfg.Outputs.Profiles[i] = profile
			viper.Set("outputs", cfg.Outputs)
			return Save()
		}
	}

	cfg.Outputs.Profiles = append(cfg.Outputs.Profiles, profile)
	viper.Set("outputs", cfg.Outputs)
	return Save()
}

// RemoveOutputProfile removes a saved output profile by name
func RemoveOutputProfile(name string) error {
	cfg := Get()

	for i, p := range cfg.Outputs.Profiles {
		if p.Name == name {
			cfg.Outputs.Profiles = append(cfg.Outputs.Profiles[:i], cfg.Outputs.Profiles[i+1:]...)
			viper.Set("outputs", cfg.Outputs)
			return Save()
		}
	}

	return fmt.Errorf("output profile %s not found", name)
}

// GetOutputProfile returns a saved output profile by name
func GetOutputProfile(name string) (*OutputProfile, error) {
	cfg := Get()

	for _, p := range cfg.Outputs.Profiles {
		if p.Name == name {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("output profile %s not found", name)
}

// ListOutputProfiles returns all saved output profiles
func ListOutputProfiles() []OutputProfile {
	cfg := Get()
	return cfg.Outputs.Profiles
}

// UpdateSeat updates seat configuration
func UpdateSeat(seatCfg SeatConfig) error {
	viper.Set("seat", seatCfg)
	cfg.Seat = seatCfg
	return Save()
}

// UpdateConsole updates console configuration
func UpdateConsole(consoleCfg ConsoleConfig) error {
	viper.Set("console", consoleCfg)
	cfg.Console = consoleCfg
	return Save()
}
