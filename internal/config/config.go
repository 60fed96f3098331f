package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Oracle OracleConfig `toml:"oracle"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Address        string   `toml:"address"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DataConfig struct {
	Cards    string `toml:"cards"`    // YAML card database
	Sessions string `toml:"sessions"` // archived session directory
}

// OracleConfig points at the local Ollama server used for interpretations
type OracleConfig struct {
	Endpoint string   `toml:"endpoint"`
	Model    string   `toml:"model"`
	Timeout  Duration `toml:"timeout"`
}

type LogConfig struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"` // json or console
}

// Duration is a time.Duration written as a string like "30s" in the config file
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetDataPath returns the directory holding the card database and sessions
func GetDataPath() string {
	return filepath.Join(GetXDGDataHome(), "corvid")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "corvid", "config.toml")
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":8000",
			AllowedOrigins: []string{"*"},
		},
		Data: DataConfig{
			Cards:    filepath.Join(GetDataPath(), "cards.yaml"),
			Sessions: filepath.Join(GetDataPath(), "sessions"),
		},
		Oracle: OracleConfig{
			Endpoint: "http://localhost:11434",
			Model:    "llama3",
			Timeout:  Duration{30 * time.Second},
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads .env, then the config file at path (the default path when empty),
// then applies environment overrides
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	if path == "" {
		path = GetConfigFilePath()
	}

	config, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFile loads the config file, creating it with defaults if it doesn't exist
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefaultConfig(path)
	}

	// Start from defaults so a partial file keeps the remaining values
	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	return config, nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) (*Config, error) {
	configDir := filepath.Dir(path)

	// Ensure the config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	config := Default()

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return nil, fmt.Errorf("error encoding config: %w", err)
	}

	return config, nil
}

// applyEnv overrides file values with CORVID_* and OLLAMA_HOST variables
func (c *Config) applyEnv() error {
	if v := os.Getenv("CORVID_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("CORVID_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v := os.Getenv("CORVID_CARDS"); v != "" {
		c.Data.Cards = v
	}
	if v := os.Getenv("CORVID_SESSIONS"); v != "" {
		c.Data.Sessions = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		c.Oracle.Endpoint = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("CORVID_MODEL"); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv("CORVID_ORACLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CORVID_ORACLE_TIMEOUT: %w", err)
		}
		c.Oracle.Timeout = Duration{d}
	}
	if v := os.Getenv("CORVID_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CORVID_LOG_ENCODING"); v != "" {
		c.Log.Encoding = v
	}
	return nil
}
