// config.go: settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig contains settings for a rotating log file.
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // name of this node, can be used to identify source of reports
	Log  LogConfig // main log settings
}

// ModelSettings contains settings for the risk model artifact.
type ModelSettings struct {
	Path string // path to the serialized XGBoost model file
}

// WeatherSettings contains settings for the weather feature provider.
type WeatherSettings struct {
	Provider       string // weather data provider, "openmeteo" is the only supported value
	BaseURL        string // forecast API base URL
	PastDays       int    // lookback window in days
	ForecastDays   int    // forecast horizon in days
	RequestTimeout int    // HTTP request timeout in seconds
	CacheTTL       int    // in-process response cache TTL in minutes
	Debug          bool   // true to enable debug mode
}

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Enabled     bool      // true to enable web server
	Port        string    // port for web server
	CORSOrigins []string  // allowed CORS origins
	Log         LogConfig // web server log settings
	Debug       bool      // true to enable debug mode
}

// SecuritySettings contains settings for user authentication.
type SecuritySettings struct {
	JWTSecret   string // secret used to sign access tokens
	TokenExpiry int    // access token lifetime in minutes
}

// SchedulerSettings contains settings for the daily cache warm job.
type SchedulerSettings struct {
	Enabled  bool   // true to precompute the daily snapshot on a schedule
	Schedule string // cron expression, local time
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite
	Path    string // path to SQLite database file
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// OutputSettings contains settings for report persistence.
type OutputSettings struct {
	SQLite SQLiteSettings // SQLite database settings
	MySQL  MySQLSettings  // MySQL database settings
}

// Settings contains all runtime settings of the application.
type Settings struct {
	Debug bool // true to enable debug mode

	Main      MainSettings
	Model     ModelSettings
	Weather   WeatherSettings
	WebServer WebServerSettings
	Security  SecuritySettings
	Scheduler SchedulerSettings
	Output    OutputSettings
}

// Load reads the configuration into a new Settings instance. The instance is
// handed to the command layer and injected explicitly from there.
func Load() (*Settings, error) {
	settings := &Settings{}

	// Initialize viper and read configuration
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the configuration into the settings struct
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Validate the settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with defaults, config file paths and env binding.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("QUAKEPREDICT")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config file to disk and
// reads it back in.
func createDefaultConfig(configDir string) error {
	configPath := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetDefaultConfigPaths returns the list of directories searched for a config
// file, most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}
	return []string{
		".",
		filepath.Join(homeDir, ".config", "quakepredict"),
	}, nil
}

// SaveYAMLConfig writes settings to configPath atomically by writing to a
// temporary file first and renaming it over the original.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
